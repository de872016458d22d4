// Package storage owns the authoritative in-memory collection of fraud
// warnings. Persistence is deliberately out of scope: the engine's contract
// is a pure in-memory retrieval and lifecycle layer, with durability left
// to upstream collaborators.
package storage

import (
	"fmt"
	"sync"
	"time"

	"fraudwatch/core"
)

// Clock returns the current time in epoch milliseconds. Injectable so
// tests can pin timestamps.
type Clock func() int64

// SystemClock is the default wall-clock source
func SystemClock() int64 {
	return time.Now().UnixMilli()
}

// WarningStore is the thread-safe, authoritative owner of all fraud
// warnings. No other component holds a mutable reference: reads hand out
// deep copies, and every mutation goes through Update under the write
// lock, so per-id mutations apply in submission order.
//
// Warnings are never physically deleted. Terminal warnings are retained
// for audit and aggregation history; display capping is layered on top by
// FeedIndex.
type WarningStore struct {
	mu         sync.RWMutex
	warnings   map[string]*core.FraudWarning
	generation uint64
	clock      Clock
}

// NewWarningStore creates an empty store using the system clock
func NewWarningStore() *WarningStore {
	return NewWarningStoreWithClock(SystemClock)
}

// NewWarningStoreWithClock creates an empty store with an injected clock
func NewWarningStoreWithClock(clock Clock) *WarningStore {
	if clock == nil {
		clock = SystemClock
	}
	return &WarningStore{
		warnings: make(map[string]*core.FraudWarning),
		clock:    clock,
	}
}

// Insert adds a warning to the store. The warning is copied on the way in,
// so the caller keeps no mutable reference. Returns ErrDuplicateWarning if
// the id is already present.
func (s *WarningStore) Insert(w *core.FraudWarning) error {
	if w == nil {
		return fmt.Errorf("warning is required")
	}
	if w.ID == "" {
		return fmt.Errorf("warning id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.warnings[w.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateWarning, w.ID)
	}

	s.warnings[w.ID] = w.Clone()
	s.generation++
	return nil
}

// Get returns a snapshot of the warning with the given id, or
// ErrWarningNotFound.
func (s *WarningStore) Get(id string) (*core.FraudWarning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.warnings[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrWarningNotFound, id)
	}
	return w.Clone(), nil
}

// All returns an immutable snapshot of every warning. Order is
// unspecified; callers sort explicitly. The snapshot is internally
// consistent: it is taken under a single read lock, so a long-running
// aggregation never observes a partially-applied mutation.
func (s *WarningStore) All() []*core.FraudWarning {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]*core.FraudWarning, 0, len(s.warnings))
	for _, w := range s.warnings {
		snapshot = append(snapshot, w.Clone())
	}
	return snapshot
}

// Update applies a mutation function to the stored warning under the
// write lock and stamps UpdatedAt. If the mutator returns an error the
// store is left unchanged. Returns a snapshot of the post-mutation state.
func (s *WarningStore) Update(id string, mutate func(*core.FraudWarning) error) (*core.FraudWarning, error) {
	if mutate == nil {
		return nil, fmt.Errorf("mutator is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.warnings[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrWarningNotFound, id)
	}

	// Mutate a scratch copy so a failed mutator cannot leave the stored
	// warning half-written.
	scratch := stored.Clone()
	if err := mutate(scratch); err != nil {
		return nil, err
	}

	scratch.UpdatedAt = s.clock()
	if scratch.UpdatedAt < scratch.CreatedAt {
		scratch.UpdatedAt = scratch.CreatedAt
	}

	s.warnings[id] = scratch
	s.generation++
	return scratch.Clone(), nil
}

// Len returns the number of warnings held
func (s *WarningStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.warnings)
}

// Generation returns a counter that increments on every successful
// mutation. Derived caches key on it to detect staleness.
func (s *WarningStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Now exposes the store's clock, so collaborating layers stamp
// timestamps from the same source.
func (s *WarningStore) Now() int64 {
	return s.clock()
}
