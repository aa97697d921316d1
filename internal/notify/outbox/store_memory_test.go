package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/sentinel"
)

func TestInMemoryStore_PendingLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	base := time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC)

	first := NewEntry("incident", "inc-1", "created", []byte(`{"n":1}`), base)
	second := NewEntry("incident", "inc-2", "escalated", []byte(`{"n":2}`), base.Add(time.Second))
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))
	assert.True(t, errors.Is(s.Append(ctx, first), sentinel.ErrAlreadyExists))

	batch, err := s.FetchUnprocessed(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, first.ID, batch[0].ID, "oldest first")

	batch[0].Payload[0] = 'X'
	again, err := s.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, byte('{'), again[0].Payload[0], "fetch returns copies")

	require.NoError(t, s.MarkProcessed(ctx, first.ID, base.Add(time.Minute)))
	assert.True(t, errors.Is(s.MarkProcessed(ctx, first.ID, base), sentinel.ErrNotFound), "already processed")
	assert.True(t, errors.Is(s.MarkProcessed(ctx, uuid.New(), base), sentinel.ErrNotFound))

	pending, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	deleted, err := s.DeleteProcessedBefore(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, deleted, "cutoff is exclusive")

	deleted, err = s.DeleteProcessedBefore(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rest, err := s.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, second.ID, rest[0].ID)

	none, err := s.FetchUnprocessed(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
