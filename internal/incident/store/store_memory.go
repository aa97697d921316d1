package store

import (
	"context"
	"slices"
	"sync"

	"auditwatch/internal/incident/models"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
)

// InMemoryStore keeps incidents in a map. Values are copied in and out.
type InMemoryStore struct {
	mu        sync.RWMutex
	incidents map[id.IncidentID]*models.Incident
	seq       int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{incidents: make(map[id.IncidentID]*models.Incident)}
}

// Create stores inc and assigns the next incident number.
func (s *InMemoryStore) Create(_ context.Context, inc *models.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.incidents[inc.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	s.seq++
	inc.Number = s.seq
	s.incidents[inc.ID] = inc.Clone()
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, inc *models.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.incidents[inc.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.incidents[inc.ID] = inc.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, incidentID id.IncidentID) (*models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inc, ok := s.incidents[incidentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return inc.Clone(), nil
}

// FindActiveByPattern returns the newest OPEN or INVESTIGATING incident opened for key.
func (s *InMemoryStore) FindActiveByPattern(_ context.Context, key models.PatternKey) (*models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.Incident
	for _, inc := range s.incidents {
		if inc.Pattern == nil || *inc.Pattern != key || !inc.Status.IsActive() {
			continue
		}
		if found == nil || inc.Number > found.Number {
			found = inc
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	return found.Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	s.mu.RLock()
	matches := make([]*models.Incident, 0)
	for _, inc := range s.incidents {
		if filter.Matches(inc) {
			matches = append(matches, inc.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matches, models.NewestFirst)
	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches, nil
}
