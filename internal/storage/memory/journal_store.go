package memory

import (
	"context"
	"sync"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/journal"
)

// JournalStore is an in-memory journal sink, used by tests and the memory
// backend of ledgerd.
type JournalStore struct {
	mu     sync.RWMutex
	events []*journal.Event
}

// NewJournalStore creates an empty in-memory journal.
func NewJournalStore() *JournalStore {
	return &JournalStore{}
}

// Compile-time interface check.
var _ journal.Writer = (*JournalStore)(nil)

// Append stores a copy of the event.
func (s *JournalStore) Append(_ context.Context, e *journal.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eCopy := *e
	s.events = append(s.events, &eCopy)
	return nil
}

// GetByActor returns all events for an actor in append order.
func (s *JournalStore) GetByActor(_ context.Context, actor domain.Name) ([]*journal.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*journal.Event
	for _, e := range s.events {
		if e.Actor == actor {
			eCopy := *e
			result = append(result, &eCopy)
		}
	}
	return result, nil
}

// All returns every recorded event in append order.
func (s *JournalStore) All() []*journal.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*journal.Event, 0, len(s.events))
	for _, e := range s.events {
		eCopy := *e
		result = append(result, &eCopy)
	}
	return result
}
