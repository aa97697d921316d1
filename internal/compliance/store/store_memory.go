package store

import (
	"context"
	"slices"
	"sync"

	"auditwatch/internal/compliance/models"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
)

type referenceKey struct {
	standard  id.Standard
	reference string
}

// InMemoryStore keeps requirements in a map with a (standard, reference) index.
type InMemoryStore struct {
	mu           sync.RWMutex
	requirements map[id.RequirementID]*models.Requirement
	references   map[referenceKey]id.RequirementID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requirements: make(map[id.RequirementID]*models.Requirement),
		references:   make(map[referenceKey]id.RequirementID),
	}
}

func keyOf(r *models.Requirement) referenceKey {
	return referenceKey{standard: r.Standard, reference: r.Reference}
}

func (s *InMemoryStore) Create(_ context.Context, r *models.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requirements[r.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	if _, taken := s.references[keyOf(r)]; taken {
		return sentinel.ErrAlreadyExists
	}
	s.requirements[r.ID] = r.Clone()
	s.references[keyOf(r)] = r.ID
	return nil
}

// Update replaces a requirement. Standard and reference are immutable.
func (s *InMemoryStore) Update(_ context.Context, r *models.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.requirements[r.ID]
	if !exists {
		return sentinel.ErrNotFound
	}
	if keyOf(current) != keyOf(r) {
		return sentinel.ErrConflict
	}
	s.requirements[r.ID] = r.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, requirementID id.RequirementID) (*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requirements[requirementID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemoryStore) FindByReference(_ context.Context, standard id.Standard, reference string) (*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requirementID, ok := s.references[referenceKey{standard: standard, reference: reference}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.requirements[requirementID].Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.RequirementFilter) ([]*models.Requirement, error) {
	s.mu.RLock()
	matches := make([]*models.Requirement, 0)
	for _, r := range s.requirements {
		if filter.Matches(r) {
			matches = append(matches, r.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matches, models.ByReference)
	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches, nil
}
