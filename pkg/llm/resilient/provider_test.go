package resilient

import (
	"context"
	"errors"
	"testing"
	"time"

	"rag-presupuestos-be/pkg/llm"
)

type scriptedProvider struct {
	calls   int
	replies []string
	errs    []error
}

func (s *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.errs) {
		i = len(s.errs) - 1
	}
	return s.replies[i], s.errs[i]
}

func (s *scriptedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestRetriesRateLimitThenSucceeds(t *testing.T) {
	inner := &scriptedProvider{
		replies: []string{"", "", "ok"},
		errs:    []error{llm.RateLimitedError(429, "quota"), llm.RateLimitedError(429, "quota"), nil},
	}
	p := Wrap(inner, Config{Sleep: noSleep})

	reply, err := p.Generate(context.Background(), "precio tabique")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if reply != "ok" {
		t.Errorf("reply = %q, want ok", reply)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestExhaustedRetriesSurfaceRateLimit(t *testing.T) {
	inner := &scriptedProvider{
		replies: []string{""},
		errs:    []error{llm.RateLimitedError(429, "quota")},
	}
	p := Wrap(inner, Config{Sleep: noSleep})

	_, err := p.Generate(context.Background(), "q")
	if !errors.Is(err, llm.ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited after exhaustion", err)
	}
	if inner.calls != DefaultMaxAttempts {
		t.Errorf("calls = %d, want %d", inner.calls, DefaultMaxAttempts)
	}
}

func TestFatalErrorNotRetried(t *testing.T) {
	fatal := errors.New("invalid request")
	inner := &scriptedProvider{
		replies: []string{""},
		errs:    []error{fatal},
	}
	p := Wrap(inner, Config{Sleep: noSleep})

	_, err := p.Generate(context.Background(), "q")
	if !errors.Is(err, fatal) {
		t.Errorf("err = %v, want wrapped fatal error", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on fatal)", inner.calls)
	}
}

func TestBackoffGrowsLinearly(t *testing.T) {
	var waits []time.Duration
	inner := &scriptedProvider{
		replies: []string{"", "", "ok"},
		errs:    []error{llm.RateLimitedError(429, ""), llm.RateLimitedError(429, ""), nil},
	}
	p := Wrap(inner, Config{
		BackoffStep: 10 * time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	})

	if _, err := p.Generate(context.Background(), "q"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	want := []time.Duration{10 * time.Second, 20 * time.Second}
	if len(waits) != len(want) {
		t.Fatalf("waits = %v, want %v", waits, want)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait[%d] = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestCancelledContextStopsRetry(t *testing.T) {
	inner := &scriptedProvider{
		replies: []string{""},
		errs:    []error{llm.RateLimitedError(429, "")},
	}
	p := Wrap(inner, Config{Sleep: sleepCtx})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, "q")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
