package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"rag-presupuestos-be/pkg/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRepo(clock *fakeClock, cfg Config) *SessionRepository {
	cfg.Now = clock.Now
	return NewSessionRepositoryWithConfig(cfg)
}

func userTurn(content string) store.Turn {
	return store.Turn{Role: store.RoleUser, Content: content}
}

func assistantTurn(content string) store.Turn {
	return store.Turn{Role: store.RoleAssistant, Content: content}
}

func TestHistoryUnknownSessionIsEmpty(t *testing.T) {
	repo := newTestRepo(newFakeClock(), Config{})

	if got := repo.History("nonexistent"); len(got) != 0 {
		t.Errorf("History(unknown) = %d turns, want 0", len(got))
	}
}

func TestAppendThenHistoryPreservesOrder(t *testing.T) {
	repo := newTestRepo(newFakeClock(), Config{})

	repo.Append("s1", userTurn("precio cemento"), assistantTurn("El precio es 92,10 EUR/t"))

	history := repo.History("s1")
	if len(history) != 2 {
		t.Fatalf("History = %d turns, want 2", len(history))
	}
	if history[0].Role != store.RoleUser || history[0].Content != "precio cemento" {
		t.Errorf("first turn = %+v, want user question", history[0])
	}
	if history[1].Role != store.RoleAssistant {
		t.Errorf("second turn role = %q, want assistant", history[1].Role)
	}
}

func TestAppendEvictsOldestBeyondCap(t *testing.T) {
	repo := newTestRepo(newFakeClock(), Config{MaxTurns: 20, PromptTurns: 20})

	// 25 single-turn appends: only the most recent 20 must survive.
	for i := 0; i < 25; i++ {
		repo.Append("s1", userTurn(fmt.Sprintf("msg%d", i)))
	}

	history := repo.History("s1")
	if len(history) != 20 {
		t.Fatalf("History = %d turns, want 20", len(history))
	}
	if history[0].Content != "msg5" {
		t.Errorf("oldest surviving turn = %q, want msg5", history[0].Content)
	}
	if history[19].Content != "msg24" {
		t.Errorf("newest turn = %q, want msg24", history[19].Content)
	}
}

func TestHistoryTrimsToPromptTurns(t *testing.T) {
	repo := newTestRepo(newFakeClock(), Config{MaxTurns: 20, PromptTurns: 12})

	for i := 0; i < 9; i++ {
		repo.Append("s1", userTurn(fmt.Sprintf("q%d", i)), assistantTurn(fmt.Sprintf("a%d", i)))
	}

	history := repo.History("s1")
	if len(history) != 12 {
		t.Fatalf("History = %d turns, want 12 (prompt trim)", len(history))
	}
}

func TestAppendStampsTurnCreationTime(t *testing.T) {
	clock := newFakeClock()
	repo := newTestRepo(clock, Config{})

	repo.Append("s1", userTurn("precio cemento"))
	clock.Advance(time.Minute)
	repo.Append("s1", assistantTurn("El precio es 92,10 EUR/t"))

	history := repo.History("s1")
	if len(history) != 2 {
		t.Fatalf("History = %d turns, want 2", len(history))
	}
	if history[0].CreatedAt.IsZero() {
		t.Error("first turn carries zero CreatedAt")
	}
	if want := history[0].CreatedAt.Add(time.Minute); !history[1].CreatedAt.Equal(want) {
		t.Errorf("second turn CreatedAt = %v, want %v", history[1].CreatedAt, want)
	}

	// A caller-supplied timestamp is preserved.
	stamped := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.Append("s2", store.Turn{Role: store.RoleUser, Content: "q", CreatedAt: stamped})
	if got := repo.History("s2"); !got[0].CreatedAt.Equal(stamped) {
		t.Errorf("explicit CreatedAt = %v, want %v", got[0].CreatedAt, stamped)
	}
}

func TestSessionExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	repo := newTestRepo(clock, Config{TTL: 2 * time.Hour})

	repo.Append("s1", userTurn("q"), assistantTurn("a"))

	clock.Advance(2*time.Hour + time.Second)

	if got := repo.History("s1"); len(got) != 0 {
		t.Errorf("History after TTL = %d turns, want 0", len(got))
	}

	// The next append behaves exactly like a brand-new session.
	repo.Append("s1", userTurn("fresh"))
	history := repo.History("s1")
	if len(history) != 1 || history[0].Content != "fresh" {
		t.Errorf("post-expiry session = %+v, want single fresh turn", history)
	}
}

func TestAccessRefreshesTTL(t *testing.T) {
	clock := newFakeClock()
	repo := newTestRepo(clock, Config{TTL: 2 * time.Hour})

	repo.Append("s1", userTurn("q"))

	clock.Advance(90 * time.Minute)
	if got := repo.History("s1"); len(got) != 1 {
		t.Fatalf("session expired too early")
	}

	// Reading refreshed LastAccess, so another 90 minutes stays inside TTL.
	clock.Advance(90 * time.Minute)
	if got := repo.History("s1"); len(got) != 1 {
		t.Errorf("History after refresh = %d turns, want 1", len(got))
	}
}

func TestEvictOldestSessionAtGlobalCap(t *testing.T) {
	clock := newFakeClock()
	repo := newTestRepo(clock, Config{MaxSessions: 3})

	repo.Append("s0", userTurn("q"))
	clock.Advance(time.Minute)
	repo.Append("s1", userTurn("q"))
	clock.Advance(time.Minute)
	repo.Append("s2", userTurn("q"))
	clock.Advance(time.Minute)

	// Cap reached: creating a fourth session drops the least recently used.
	repo.Append("s3", userTurn("q"))

	if got := repo.History("s0"); len(got) != 0 {
		t.Errorf("oldest session survived eviction")
	}
	if got := repo.History("s3"); len(got) != 1 {
		t.Errorf("new session missing after eviction")
	}
}

func TestClear(t *testing.T) {
	repo := newTestRepo(newFakeClock(), Config{})

	repo.Append("s1", userTurn("q"))

	if !repo.Clear("s1") {
		t.Errorf("Clear(existing) = false, want true")
	}
	if repo.Clear("s1") {
		t.Errorf("Clear(cleared) = true, want false")
	}
	if repo.Clear("never") {
		t.Errorf("Clear(unknown) = true, want false")
	}
}

func TestStats(t *testing.T) {
	clock := newFakeClock()
	repo := newTestRepo(clock, Config{TTL: 2 * time.Hour, MaxSessions: 500})

	repo.Append("s1", userTurn("q"))
	repo.Append("s2", userTurn("q"))

	stats := repo.Stats()
	if stats.TotalSessions != 2 || stats.ActiveSessions != 2 {
		t.Errorf("Stats = %+v, want 2 total / 2 active", stats)
	}
	if stats.MaxSessions != 500 {
		t.Errorf("MaxSessions = %d, want 500", stats.MaxSessions)
	}
	if stats.TTLHours != 2 {
		t.Errorf("TTLHours = %v, want 2", stats.TTLHours)
	}
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	repo := newTestRepo(newFakeClock(), Config{MaxTurns: 1000, PromptTurns: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			repo.Append("shared", userTurn(fmt.Sprintf("q%d", n)))
		}(i)
	}
	wg.Wait()

	if got := repo.History("shared"); len(got) != 50 {
		t.Errorf("concurrent appends: History = %d turns, want 50", len(got))
	}
}

func TestNewSessionIDIsOpaqueAndUnique(t *testing.T) {
	repo := newTestRepo(newFakeClock(), Config{})

	a := repo.NewSessionID()
	b := repo.NewSessionID()
	if a == "" || a == b {
		t.Errorf("NewSessionID produced %q and %q, want distinct non-empty IDs", a, b)
	}
}
