package roundtrip

import (
	"errors"
	"sync"
	"time"
)

// ErrStoreFull is returned by Put when the store holds its maximum number of
// live sessions.
var ErrStoreFull = errors.New("too many sessions")

// Store keeps armed and completed sessions by id. Sessions idle for longer
// than the TTL (since DoneAt, or ArmedAt while armed) are dropped on Put.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
}

// NewStore creates an empty Store. A zero ttl or max disables that limit.
func NewStore(ttl time.Duration, max int) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      max,
	}
}

// Put saves a session after removing sessions expired at now
func (st *Store) Put(s *Session, now time.Time) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.pruneLocked(now)
	if st.max > 0 && len(st.sessions) >= st.max {
		return ErrStoreFull
	}
	st.sessions[s.ID] = s
	return nil
}

// Get retrieves a session
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session, reporting whether it existed
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// Prune removes sessions expired at now and returns how many were removed
func (st *Store) Prune(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pruneLocked(now)
}

func (st *Store) pruneLocked(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}
	removed := 0
	for id, s := range st.sessions {
		if now.Sub(s.lastActivity()) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
