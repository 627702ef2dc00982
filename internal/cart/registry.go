package cart

import (
	"strings"
	"sync"
	"time"
)

type session struct {
	store    *Store
	lastSeen time.Time
	inflight int
}

// Registry owns one Store per signed-in session. A store is created empty
// on first use and destroyed on sign-out or after sitting idle.
type Registry struct {
	IdleTTL time.Duration
	Now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry constructs a Registry evicting carts idle for longer than idleTTL.
// A non-positive idleTTL disables eviction.
func NewRegistry(idleTTL time.Duration) *Registry {
	return &Registry{IdleTTL: idleTTL, sessions: make(map[string]*session)}
}

func (r *Registry) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Open returns the store for userID, creating an empty one if needed.
func (r *Registry) Open(userID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.session(userID)
	s.lastSeen = r.now()
	return s.store
}

// Acquire is Open for the length of one operation: Sweep leaves the store
// alone until release is called, and release marks the store as seen.
func (r *Registry) Acquire(userID string) (store *Store, release func()) {
	r.mu.Lock()
	s := r.session(userID)
	s.inflight++
	s.lastSeen = r.now()
	r.mu.Unlock()

	var once sync.Once
	return s.store, func() {
		once.Do(func() {
			r.mu.Lock()
			s.inflight--
			s.lastSeen = r.now()
			r.mu.Unlock()
		})
	}
}

// session returns the entry for userID, creating it. Callers hold mu.
func (r *Registry) session(userID string) *session {
	userID = strings.TrimSpace(userID)
	if r.sessions == nil {
		r.sessions = make(map[string]*session)
	}
	s, ok := r.sessions[userID]
	if !ok {
		s = &session{store: NewStore()}
		r.sessions[userID] = s
	}
	return s
}

// Close destroys the store for userID and reports whether one existed.
func (r *Registry) Close(userID string) bool {
	userID = strings.TrimSpace(userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[userID]; !ok {
		return false
	}
	delete(r.sessions, userID)
	return true
}

// Sweep evicts stores not opened within IdleTTL and returns how many were
// removed. Stores held through Acquire are never evicted.
func (r *Registry) Sweep() int {
	if r.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.IdleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, s := range r.sessions {
		if s.inflight == 0 && s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live carts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
