package conversation

import (
	"sync"
	"sync/atomic"

	"github.com/torneiomaker/messenger-bot/internal/metrics"
)

// Store keeps one Profile per user id in memory.
//
// Entry creation is guarded by a store-wide RWMutex; read-modify-write of a
// single profile holds only that user's entry lock, so different users never
// wait on each other. Reads never block on an in-progress update and see the
// last committed profile.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	metrics *metrics.Metrics
}

type entry struct {
	mu        sync.Mutex // serializes updates for one user
	committed atomic.Pointer[Profile]
}

// NewStore creates an empty store. m may be nil.
func NewStore(m *metrics.Metrics) *Store {
	return &Store{
		entries: make(map[string]*entry),
		metrics: m,
	}
}

// Get returns the committed profile of userID and whether it exists.
func (s *Store) Get(userID string) (Profile, bool) {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if !ok {
		return Profile{}, false
	}
	return *e.committed.Load(), true
}

// Update runs fn with exclusive access to userID's profile, creating the
// initial profile for an unseen user. The profile fn leaves behind is
// committed when fn returns nil and its stage change is allowed; otherwise
// the previous profile is kept and the error is returned.
//
// fn may block (outbound calls); other updates of the same user wait.
func (s *Store) Update(userID string, fn func(p *Profile) error) error {
	e := s.getOrCreate(userID)

	e.mu.Lock()
	defer e.mu.Unlock()

	current := *e.committed.Load()
	working := current
	if err := fn(&working); err != nil {
		return err
	}
	working.UserID = userID

	if err := current.Stage.ValidateTransition(working.Stage); err != nil {
		return err
	}
	if current.Stage != working.Stage && s.metrics != nil {
		s.metrics.RecordStageTransition(current.Stage.String(), working.Stage.String())
	}

	e.committed.Store(&working)
	return nil
}

// getOrCreate returns the entry for userID, creating it if needed.
func (s *Store) getOrCreate(userID string) *entry {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	// Double-check after acquiring write lock
	e, ok = s.entries[userID]
	if ok {
		s.mu.Unlock()
		return e
	}
	e = &entry{}
	initial := NewProfile(userID)
	e.committed.Store(&initial)
	s.entries[userID] = e
	count := len(s.entries)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetConversationsActive(count)
	}
	return e
}

// Len returns the number of users with state.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// reset drops every profile.
func (s *Store) reset() {
	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetConversationsActive(0)
	}
}
