package state

import "sync"

// Store guards a SharedState with a single mutex, mirroring the source's
// Arc<Mutex<State>>: every session actor and the periodic broadcaster
// acquire this lock, perform their mutation and any reads they need, then
// release it. No operation is expected to hold the lock across socket I/O —
// callers enqueue outbound frames on a mailbox (which has its own small
// mutex and never takes the state lock) while
// still holding it, and only write to their own socket after releasing it.
type Store struct {
	mu    sync.Mutex
	State *SharedState
}

// NewStore creates a Store wrapping a fresh, empty SharedState.
func NewStore() *Store {
	return &Store{State: NewSharedState()}
}

// Lock acquires the state lock.
func (s *Store) Lock() {
	s.mu.Lock()
}

// Unlock releases the state lock.
func (s *Store) Unlock() {
	s.mu.Unlock()
}
