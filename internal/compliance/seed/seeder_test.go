package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/compliance/models"
	"auditwatch/internal/compliance/service"
	"auditwatch/internal/compliance/store"
	id "auditwatch/pkg/domain"
)

func TestSeedAllIsRepeatable(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	st := store.NewInMemoryStore()
	registry := service.New(st,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithClock(func() time.Time { return now }),
	)
	seeder := New(registry, slog.New(slog.NewTextHandler(io.Discard, nil)))

	c, err := Default()
	require.NoError(t, err)
	cmds, err := c.Commands("seed")
	require.NoError(t, err)
	for i := range cmds {
		if cmds[i].Standard == id.StandardHIPAA && cmds[i].Reference == "164.312(b)" {
			cmds[i].Status = models.StatusNotImplemented
		}
	}

	res, err := seeder.SeedAll(ctx, cmds)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: len(cmds)}, res)

	// an operator moves one requirement forward; reseeding keeps it
	req, err := st.FindByReference(ctx, id.StandardHIPAA, "164.312(b)")
	require.NoError(t, err)
	_, err = registry.Transition(ctx, req.ID, models.StatusInProgress, "admin")
	require.NoError(t, err)

	res, err = seeder.SeedAll(ctx, cmds)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: len(cmds) - 1, Skipped: 1}, res)

	got, err := st.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
}
