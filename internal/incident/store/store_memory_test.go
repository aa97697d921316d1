package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/incident/models"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
)

var now = time.Date(2026, 8, 3, 1, 0, 0, 0, time.UTC)

var key = models.PatternKey{ActorID: "nurse-1", ResourceType: "patient_record", Flag: "REPEATED_ACCESS_FAILURE"}

func draft(pattern *models.PatternKey, std id.Standard) models.Draft {
	return models.Draft{
		Title:             "pattern",
		Type:              models.TypeUnauthorizedAccess,
		Severity:          models.SeverityHigh,
		Pattern:           pattern,
		StandardsImpacted: []id.Standard{std},
	}
}

func create(t *testing.T, s *InMemoryStore, d models.Draft) *models.Incident {
	t.Helper()
	inc, err := models.NewIncident(id.NewIncidentID(), d, now)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), inc))
	return inc
}

func TestInMemoryStore_NumbersAreMonotonic(t *testing.T) {
	s := NewInMemoryStore()
	first := create(t, s, draft(nil, id.StandardHIPAA))
	second := create(t, s, draft(nil, id.StandardHIPAA))
	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)
	assert.Equal(t, "INC-000002", second.DisplayNumber())

	assert.ErrorIs(t, s.Create(context.Background(), first), sentinel.ErrAlreadyExists)
}

func TestInMemoryStore_UpdateAndCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	inc := create(t, s, draft(nil, id.StandardHIPAA))

	inc.Title = "changed but not saved"
	got, err := s.FindByID(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, "pattern", got.Title)

	require.NoError(t, got.Transition(models.StatusInvestigating, now))
	require.NoError(t, s.Update(ctx, got))
	again, err := s.FindByID(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInvestigating, again.Status)

	missing, err := models.NewIncident(id.NewIncidentID(), draft(nil, id.StandardHIPAA), now)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Update(ctx, missing), sentinel.ErrNotFound)
	_, err = s.FindByID(ctx, missing.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_FindActiveByPattern(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	_, err := s.FindActiveByPattern(ctx, key)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	old := create(t, s, draft(&key, id.StandardHIPAA))
	create(t, s, draft(&models.PatternKey{ActorID: "other", ResourceType: "patient_record", Flag: key.Flag}, id.StandardHIPAA))

	got, err := s.FindActiveByPattern(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, old.ID, got.ID)

	require.NoError(t, got.Transition(models.StatusInvestigating, now))
	require.NoError(t, got.Transition(models.StatusResolved, now))
	require.NoError(t, s.Update(ctx, got))
	_, err = s.FindActiveByPattern(ctx, key)
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "resolved incidents are not active")
}

func TestInMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	a := create(t, s, draft(nil, id.StandardHIPAA))
	b := create(t, s, draft(nil, id.StandardGDPR))
	c := create(t, s, draft(nil, id.StandardHIPAA))

	all, err := s.List(ctx, models.IncidentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []id.IncidentID{c.ID, b.ID, a.ID}, []id.IncidentID{all[0].ID, all[1].ID, all[2].ID})

	hipaa, err := s.List(ctx, models.IncidentFilter{Standard: id.StandardHIPAA, Limit: 1})
	require.NoError(t, err)
	require.Len(t, hipaa, 1)
	assert.Equal(t, c.ID, hipaa[0].ID)
}
