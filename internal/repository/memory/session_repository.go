package memory

import (
	"sync"
	"time"

	"rag-presupuestos-be/pkg/store"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Defaults mirror the limits the pricing assistant was tuned with.
const (
	DefaultMaxTurns      = 20            // user + assistant turns kept per session
	DefaultPromptTurns   = 12            // most recent turns included in a prompt
	DefaultSessionTTL    = 2 * time.Hour // inactivity window before a session expires
	DefaultMaxSessions   = 500           // global cap to bound memory usage
	defaultSweepInterval = 10 * time.Minute
)

// Config tunes the session repository. Zero values fall back to defaults.
type Config struct {
	MaxTurns    int
	PromptTurns int
	TTL         time.Duration
	MaxSessions int

	// Now is the clock used for timestamps and TTL checks. Injectable so
	// expiry is testable without sleeping.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.PromptTurns <= 0 {
		c.PromptTurns = DefaultPromptTurns
	}
	if c.TTL <= 0 {
		c.TTL = DefaultSessionTTL
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = DefaultMaxSessions
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// SessionRepository is the in-memory conversational store. The cache gives
// us TTL bookkeeping and a background sweep; the mutex makes read-modify-write
// on a session's turn slice atomic so concurrent appends never lose turns.
type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
	cfg   Config
}

func NewSessionRepository() *SessionRepository {
	return NewSessionRepositoryWithConfig(Config{})
}

func NewSessionRepositoryWithConfig(cfg Config) *SessionRepository {
	cfg = cfg.withDefaults()
	return &SessionRepository{
		cache: cache.New(cfg.TTL, defaultSweepInterval),
		cfg:   cfg,
	}
}

// NewSessionID mints an opaque session identifier for callers that did not
// supply one.
func (r *SessionRepository) NewSessionID() string {
	return uuid.NewString()
}

// History returns the most recent turns of a session, capped at PromptTurns
// so long conversations do not saturate the generation context. Unknown or
// expired sessions yield an empty slice. Reading refreshes the TTL.
func (r *SessionRepository) History(sessionID string) []store.Turn {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.getAlive(sessionID)
	if sess == nil {
		return []store.Turn{}
	}

	sess.LastAccess = r.cfg.Now()
	r.cache.Set(sessionID, sess, cache.DefaultExpiration)

	turns := sess.Turns
	if len(turns) > r.cfg.PromptTurns {
		turns = turns[len(turns)-r.cfg.PromptTurns:]
	}
	// Copy so callers cannot mutate stored state.
	out := make([]store.Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds turns to a session, creating it if absent. Turns without a
// creation time are stamped with the store clock. Insertion beyond MaxTurns
// evicts from the front, oldest first.
func (r *SessionRepository) Append(sessionID string, turns ...store.Turn) {
	if len(turns) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.cfg.Now()

	sess := r.getAlive(sessionID)
	if sess == nil {
		r.evictOldestIfFull()
		sess = &store.Session{
			ID:        sessionID,
			CreatedAt: now,
		}
	}

	sess.LastAccess = now
	for i := range turns {
		if turns[i].CreatedAt.IsZero() {
			turns[i].CreatedAt = now
		}
	}
	sess.Turns = append(sess.Turns, turns...)
	if overflow := len(sess.Turns) - r.cfg.MaxTurns; overflow > 0 {
		sess.Turns = append([]store.Turn(nil), sess.Turns[overflow:]...)
	}

	r.cache.Set(sessionID, sess, cache.DefaultExpiration)
}

// Clear removes a session. Reports whether it existed.
func (r *SessionRepository) Clear(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.cache.Get(sessionID); !found {
		return false
	}
	r.cache.Delete(sessionID)
	return true
}

// Stats describes the store for the monitoring endpoint.
type Stats struct {
	TotalSessions  int     `json:"total_sessions"`
	ActiveSessions int     `json:"active_sessions"`
	MaxSessions    int     `json:"max_sessions"`
	TTLHours       float64 `json:"session_ttl_hours"`
}

func (r *SessionRepository) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.cfg.Now()
	active := 0
	for _, item := range r.cache.Items() {
		sess, ok := item.Object.(*store.Session)
		if !ok {
			continue
		}
		if now.Sub(sess.LastAccess) < r.cfg.TTL {
			active++
		}
	}

	return Stats{
		TotalSessions:  r.cache.ItemCount(),
		ActiveSessions: active,
		MaxSessions:    r.cfg.MaxSessions,
		TTLHours:       r.cfg.TTL.Hours(),
	}
}

// getAlive fetches a session and lazily expires it against the injected
// clock. The cache sweeps on wall time, so this check is what makes an idle
// session indistinguishable from a never-created one at the TTL boundary.
// Caller must hold r.mu.
func (r *SessionRepository) getAlive(sessionID string) *store.Session {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil
	}
	sess, ok := x.(*store.Session)
	if !ok {
		r.cache.Delete(sessionID)
		return nil
	}
	if r.cfg.Now().Sub(sess.LastAccess) >= r.cfg.TTL {
		r.cache.Delete(sessionID)
		return nil
	}
	return sess
}

// evictOldestIfFull drops the least recently touched session when the global
// cap is reached. Caller must hold r.mu.
func (r *SessionRepository) evictOldestIfFull() {
	if r.cache.ItemCount() < r.cfg.MaxSessions {
		return
	}

	var oldestID string
	var oldestAccess time.Time
	for id, item := range r.cache.Items() {
		sess, ok := item.Object.(*store.Session)
		if !ok {
			continue
		}
		if oldestID == "" || sess.LastAccess.Before(oldestAccess) {
			oldestID = id
			oldestAccess = sess.LastAccess
		}
	}
	if oldestID != "" {
		r.cache.Delete(oldestID)
	}
}
