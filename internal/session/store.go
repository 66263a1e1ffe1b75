// Package session keeps one table editor per browser session in memory.
//
// Sessions are identified by random UUIDs carried in a cookie. They are
// dropped after a period of inactivity, and the least recently used session
// is evicted when the store is full. Nothing is persisted.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvedit/internal/core"
)

const (
	DefaultTTL         = 2 * time.Hour
	DefaultMaxSessions = 1000
)

// Session is one browser session and its table.
type Session struct {
	ID      string
	Created time.Time

	mu         sync.Mutex
	editor     *core.Editor
	lastAccess atomic.Int64 // unix nanos
}

// Do runs fn with exclusive access to the session's editor.
// Operations on one session never interleave.
func (s *Session) Do(fn func(e *core.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.editor)
}

// Load replaces the session's table under the session lock.
func (s *Session) Load(t *core.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Load(t)
}

// Snapshot returns the editor state under the session lock.
func (s *Session) Snapshot() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Snapshot()
}

// LastAccess returns when the session was last looked up.
func (s *Session) LastAccess() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastAccess.Store(now.UnixNano())
}

// Options configures a Store. Zero values use the defaults.
type Options struct {
	TTL         time.Duration
	MaxSessions int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Store is a concurrency-safe map of sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl time.Duration
	max int
	now func() time.Time
}

// NewStore returns an empty store.
func NewStore(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      opts.TTL,
		max:      opts.MaxSessions,
		now:      opts.Now,
	}
}

// Create starts a new session with an empty editor.
// When the store is full the least recently used session is evicted.
func (st *Store) Create() *Session {
	now := st.now()
	s := &Session{
		ID:      uuid.New().String(),
		Created: now,
		editor:  core.NewEditor(),
	}
	s.touch(now)

	st.mu.Lock()
	defer st.mu.Unlock()

	for len(st.sessions) >= st.max {
		st.evictOldestLocked()
	}
	st.sessions[s.ID] = s
	return s
}

// Get returns a live session and marks it as used.
// Expired sessions are removed and reported as missing.
func (st *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}

	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := st.now()
	if st.expired(s, now) {
		st.Delete(id)
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Delete removes a session. Unknown IDs are ignored.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of sessions held, including expired ones not yet swept.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes every session idle for longer than the TTL and returns
// how many were removed.
func (st *Store) Sweep(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (st *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := st.Sweep(st.now()); n > 0 {
				slog.Info("expired sessions removed", "count", n, "remaining", st.Len())
			}
		}
	}
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return now.Sub(s.LastAccess()) > st.ttl
}

func (st *Store) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range st.sessions {
		if t := s.LastAccess(); oldestID == "" || t.Before(oldest) {
			oldestID, oldest = id, t
		}
	}
	if oldestID == "" {
		return
	}
	delete(st.sessions, oldestID)
	slog.Info("session evicted", "session_id", oldestID, "idle", st.now().Sub(oldest).Round(time.Second))
}
