package resilient

import (
	"context"
	"errors"
	"time"

	"rag-presupuestos-be/pkg/llm"

	"github.com/sony/gobreaker/v2"
)

// Defaults follow the backoff the pricing assistant was tuned with:
// three attempts, waiting 10s, 20s, 30s between them.
const (
	DefaultMaxAttempts = 3
	defaultBackoffStep = 10 * time.Second
)

// Config tunes the wrapper. Zero values fall back to defaults.
type Config struct {
	MaxAttempts int
	BackoffStep time.Duration

	// Sleep is swappable so retry timing is testable.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BackoffStep <= 0 {
		c.BackoffStep = defaultBackoffStep
	}
	if c.Sleep == nil {
		c.Sleep = sleepCtx
	}
	return c
}

// Provider wraps an LLMProvider with rate-limit retries and a circuit
// breaker. Callers only ever see the final outcome: throttling is resolved
// here or surfaced as an ordinary error once retries are exhausted.
type Provider struct {
	inner   llm.LLMProvider
	cfg     Config
	breaker *gobreaker.CircuitBreaker[string]
}

var _ llm.LLMProvider = &Provider{}

func Wrap(inner llm.LLMProvider, cfg Config) *Provider {
	cfg = cfg.withDefaults()

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Provider{
		inner:   inner,
		cfg:     cfg,
		breaker: breaker,
	}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return p.breaker.Execute(func() (string, error) {
		return p.chatWithRetry(ctx, history, opts...)
	})
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func (p *Provider) chatWithRetry(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		reply, err := p.inner.Chat(ctx, history, opts...)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		// Only throttling is worth retrying; the backend already failed
		// definitively on anything else.
		if !errors.Is(err, llm.ErrRateLimited) || attempt == p.cfg.MaxAttempts {
			return "", err
		}

		wait := time.Duration(attempt) * p.cfg.BackoffStep
		if err := p.cfg.Sleep(ctx, wait); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
