package store

import (
	"context"
	"slices"
	"sync"

	"auditwatch/internal/audit/models"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
)

// InMemoryStore is an append-only event log guarded by a RWMutex.
// Writers hold the lock only for the append; readers copy matches out.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []*models.AuditEvent
	byID   map[id.EventID]int
	seq    int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.EventID]int)}
}

// Append stores a copy of e and assigns its sequence number.
// A duplicate id returns sentinel.ErrAlreadyExists.
func (s *InMemoryStore) Append(_ context.Context, e *models.AuditEvent) error {
	stored := e.Clone()

	s.mu.Lock()
	if _, exists := s.byID[e.ID]; exists {
		s.mu.Unlock()
		return sentinel.ErrAlreadyExists
	}
	s.seq++
	stored.Sequence = s.seq
	s.byID[e.ID] = len(s.events)
	s.events = append(s.events, stored)
	s.mu.Unlock()

	e.Sequence = stored.Sequence
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, eventID id.EventID) (*models.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.events[idx].Clone(), nil
}

func (s *InMemoryStore) Query(_ context.Context, filter models.EventFilter) ([]*models.AuditEvent, error) {
	s.mu.RLock()
	matches := make([]*models.AuditEvent, 0)
	for i := len(s.events) - 1; i >= 0; i-- {
		if filter.Matches(s.events[i]) {
			matches = append(matches, s.events[i].Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(matches, models.NewerFirst)
	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches, nil
}

// Count returns the number of stored events.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}
