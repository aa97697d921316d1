package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/audit/models"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
)

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newEvent(t *testing.T, actor string, at time.Time, outcome models.Outcome) *models.AuditEvent {
	t.Helper()
	e, err := models.NewAuditEvent(models.NewEventParams{
		ID:          id.NewEventID(),
		Timestamp:   at,
		Actor:       models.Actor{ID: actor},
		Action:      "read",
		Resource:    models.Resource{Type: "patient_record", ID: "pr-1"},
		Outcome:     outcome,
		Sensitivity: models.SensitivityProtected,
		Standards:   []id.Standard{id.StandardHIPAA},
	})
	require.NoError(t, err)
	return e
}

func TestInMemoryStore_AppendAssignsSequence(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	first := newEvent(t, "a", base, models.OutcomeSuccess)
	second := newEvent(t, "a", base, models.OutcomeSuccess)
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, int64(2), second.Sequence)

	err := s.Append(ctx, first)
	assert.ErrorIs(t, err, sentinel.ErrAlreadyExists)
}

func TestInMemoryStore_QueryNewestFirst(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	// inserted out of timestamp order
	mid := newEvent(t, "a", base.Add(time.Minute), models.OutcomeSuccess)
	old := newEvent(t, "a", base, models.OutcomeFailure)
	recent := newEvent(t, "b", base.Add(2*time.Minute), models.OutcomeDenied)
	for _, e := range []*models.AuditEvent{mid, old, recent} {
		require.NoError(t, s.Append(ctx, e))
	}

	got, err := s.Query(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, recent.ID, got[0].ID)
	assert.Equal(t, mid.ID, got[1].ID)
	assert.Equal(t, old.ID, got[2].ID)

	got, err = s.Query(ctx, models.EventFilter{ActorID: "a", Outcome: models.OutcomeFailure})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, old.ID, got[0].ID)

	got, err = s.Query(ctx, models.EventFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, recent.ID, got[0].ID)

	got, err = s.Query(ctx, models.EventFilter{ResourceType: "invoice"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestInMemoryStore_Immutability verifies that stored events cannot be changed through
// values handed to or returned from the store.
func TestInMemoryStore_Immutability(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	e := newEvent(t, "a", base, models.OutcomeSuccess)
	require.NoError(t, s.Append(ctx, e))

	e.Action = "delete"
	e.Standards[0] = id.StandardPCIDSS

	got, err := s.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "read", got.Action)
	assert.Equal(t, []id.Standard{id.StandardHIPAA}, got.Standards)

	got.Actor.ID = "tampered"
	again, err := s.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Actor.ID)

	_, err = s.FindByID(ctx, id.NewEventID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_ConcurrentAppends(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := newEvent(t, fmt.Sprintf("actor-%d", i%5), base.Add(time.Duration(i)*time.Second), models.OutcomeSuccess)
			assert.NoError(t, s.Append(ctx, e))
			_, err := s.Query(ctx, models.EventFilter{ActorID: e.Actor.ID})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	all, err := s.Query(ctx, models.EventFilter{})
	require.NoError(t, err)
	seen := make(map[int64]bool)
	for _, e := range all {
		assert.False(t, seen[e.Sequence], "sequence numbers are unique")
		seen[e.Sequence] = true
	}
}
