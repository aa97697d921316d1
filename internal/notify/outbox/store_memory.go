package outbox

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"auditwatch/internal/sentinel"
)

// InMemoryStore keeps entries in insertion order.
type InMemoryStore struct {
	mu      sync.Mutex
	entries []*Entry
	index   map[uuid.UUID]*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{index: make(map[uuid.UUID]*Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[entry.ID]; ok {
		return fmt.Errorf("outbox entry %s: %w", entry.ID, sentinel.ErrAlreadyExists)
	}
	stored := entry.clone()
	s.entries = append(s.entries, stored)
	s.index[stored.ID] = stored
	return nil
}

func (s *InMemoryStore) FetchUnprocessed(_ context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Entry
	for _, e := range s.entries {
		if !e.IsPending() {
			continue
		}
		out = append(out, e.clone())
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkProcessed(_ context.Context, id uuid.UUID, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.index[id]
	if !ok || !e.IsPending() {
		return fmt.Errorf("outbox entry %s: %w", id, sentinel.ErrNotFound)
	}
	e.ProcessedAt = &processedAt
	return nil
}

func (s *InMemoryStore) CountPending(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.entries {
		if e.IsPending() {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	s.entries = slices.DeleteFunc(s.entries, func(e *Entry) bool {
		if e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(s.index, e.ID)
			deleted++
			return true
		}
		return false
	})
	return deleted, nil
}

var _ Store = (*InMemoryStore)(nil)
