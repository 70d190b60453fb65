package cache

import (
	"time"

	"github.com/starford/orgtasks/internal/models"
)

// Session binds a session key's comment mode to one task.
type Session struct {
	Task      models.Task `json:"task"`
	StartedAt time.Time   `json:"started_at"`
}

// Sessions tracks which keys are in comment mode. A session expires one
// TTL after it started, whether or not it was used.
type Sessions struct {
	store *Store[Session]
	now   func() time.Time
}

// NewSessions creates an empty session store.
func NewSessions(ttl time.Duration, now func() time.Time) *Sessions {
	if now == nil {
		now = time.Now
	}
	return &Sessions{store: NewStore[Session](ttl, now), now: now}
}

// Start binds key to t, replacing any previous binding.
func (s *Sessions) Start(key string, t models.Task) Session {
	sess := Session{Task: t, StartedAt: s.now()}
	s.store.Put(key, sess)
	return sess
}

// Get returns key's active session.
func (s *Sessions) Get(key string) (Session, bool) { return s.store.Get(key) }

// End leaves comment mode for key.
func (s *Sessions) End(key string) { s.store.Delete(key) }

// Sweep evicts expired sessions.
func (s *Sessions) Sweep() int { return s.store.Sweep() }
