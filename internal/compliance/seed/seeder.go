package seed

import (
	"context"
	"fmt"
	"log/slog"

	"auditwatch/internal/compliance/models"
	"auditwatch/internal/compliance/service"
	dErrors "auditwatch/pkg/domain-errors"
)

// Registry is the part of the compliance registry the seeder writes through.
type Registry interface {
	Upsert(ctx context.Context, cmd service.UpsertCommand) (*models.Requirement, bool, error)
}

// Result counts what a seeding pass did.
type Result struct {
	Created int
	Updated int
	Skipped int
}

// Seeder loads catalog requirements into the registry.
type Seeder struct {
	registry Registry
	logger   *slog.Logger
}

func New(registry Registry, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{registry: registry, logger: logger}
}

// SeedAll upserts every command. Requirements whose status has moved on
// since the catalog was written are skipped, so reseeding is safe.
func (s *Seeder) SeedAll(ctx context.Context, cmds []service.UpsertCommand) (Result, error) {
	s.logger.InfoContext(ctx, "seeding requirement catalog", "requirements", len(cmds))

	var res Result
	for _, cmd := range cmds {
		_, created, err := s.registry.Upsert(ctx, cmd)
		switch {
		case dErrors.HasCode(err, dErrors.CodeInvalidTransition):
			s.logger.WarnContext(ctx, "catalog status differs from registry; keeping registry status",
				"standard", string(cmd.Standard),
				"reference", cmd.Reference,
			)
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("failed to seed %s %s: %w", cmd.Standard, cmd.Reference, err)
		case created:
			res.Created++
		default:
			res.Updated++
		}
	}

	s.logger.InfoContext(ctx, "requirement catalog seeded",
		"created", res.Created,
		"updated", res.Updated,
		"skipped", res.Skipped,
	)
	return res, nil
}
