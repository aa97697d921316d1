package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	compliancemetrics "auditwatch/internal/compliance/metrics"
	"auditwatch/internal/compliance/models"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	psync "auditwatch/pkg/platform/sync"
	"auditwatch/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *models.Requirement) error
	Update(ctx context.Context, r *models.Requirement) error
	FindByID(ctx context.Context, requirementID id.RequirementID) (*models.Requirement, error)
	FindByReference(ctx context.Context, standard id.Standard, reference string) (*models.Requirement, error)
	List(ctx context.Context, filter models.RequirementFilter) ([]*models.Requirement, error)
}

// UpsertCommand creates a requirement or updates its descriptive fields.
// A zero ID matches on (Standard, Reference). Status may only be set on
// create; on update it must equal the current status or be empty.
type UpsertCommand struct {
	ID        id.RequirementID
	Standard  id.Standard
	Reference string
	models.Details
	Status             models.Status
	LastReviewedAt     *time.Time
	ImplementationDate *time.Time
	VerificationDate   *time.Time
	Actor              string
}

// Registry is the catalog of compliance requirements. Mutations of one
// requirement are serialized by id; upserts first take the reference lock.
type Registry struct {
	store          Store
	referenceLocks *psync.ShardedMutex
	idLocks        *psync.ShardedMutex
	logger         *slog.Logger
	metrics        *compliancemetrics.Metrics
	now            func() time.Time
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *compliancemetrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func New(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:          store,
		referenceLocks: psync.NewShardedMutex(),
		idLocks:        psync.NewShardedMutex(),
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upsert returns the stored requirement and whether it was created.
func (r *Registry) Upsert(ctx context.Context, cmd UpsertCommand) (*models.Requirement, bool, error) {
	cmd.Reference = strings.TrimSpace(cmd.Reference)
	if !cmd.Standard.IsValid() {
		return nil, false, dErrors.New(dErrors.CodeValidation, "unknown standard: "+string(cmd.Standard))
	}
	if cmd.Reference == "" {
		return nil, false, dErrors.New(dErrors.CodeValidation, "reference is required")
	}

	var (
		result  *models.Requirement
		created bool
	)
	err := r.referenceLocks.WithLock(psync.Key(string(cmd.Standard), cmd.Reference), func() error {
		existing, err := r.findForUpsert(ctx, cmd)
		if err != nil {
			return err
		}
		if existing == nil {
			result, err = r.create(ctx, cmd)
			created = err == nil
			return err
		}
		result, err = r.updateDetails(ctx, existing.ID, cmd)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func (r *Registry) findForUpsert(ctx context.Context, cmd UpsertCommand) (*models.Requirement, error) {
	var (
		existing *models.Requirement
		err      error
	)
	if cmd.ID.IsNil() {
		existing, err = r.store.FindByReference(ctx, cmd.Standard, cmd.Reference)
	} else {
		existing, err = r.store.FindByID(ctx, cmd.ID)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load requirement")
	}
	if existing.Standard != cmd.Standard || existing.Reference != cmd.Reference {
		return nil, dErrors.New(dErrors.CodeConflict, "requirement standard and reference cannot change")
	}
	return existing, nil
}

func (r *Registry) create(ctx context.Context, cmd UpsertCommand) (*models.Requirement, error) {
	requirementID := cmd.ID
	if requirementID.IsNil() {
		requirementID = id.NewRequirementID()
	}
	req, err := models.NewRequirement(requirementID, models.Draft{
		Standard:           cmd.Standard,
		Reference:          cmd.Reference,
		Details:            cmd.Details,
		Status:             cmd.Status,
		LastReviewedAt:     cmd.LastReviewedAt,
		ImplementationDate: cmd.ImplementationDate,
		VerificationDate:   cmd.VerificationDate,
	}, r.now())
	if err != nil {
		return nil, err
	}
	if err := r.store.Create(ctx, req); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "requirement already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create requirement")
	}
	r.metrics.IncrementUpsert(string(req.Standard), "create")
	r.logAudit(ctx, "requirement_created",
		"requirement_id", req.ID.String(),
		"standard", string(req.Standard),
		"reference", req.Reference,
		"status", string(req.Status),
		"actor", cmd.Actor,
	)
	return req, nil
}

func (r *Registry) updateDetails(ctx context.Context, requirementID id.RequirementID, cmd UpsertCommand) (*models.Requirement, error) {
	req, err := r.update(ctx, requirementID, func(req *models.Requirement, now time.Time) error {
		if cmd.Status != "" && cmd.Status != req.Status {
			return dErrors.New(dErrors.CodeInvalidTransition,
				"status changes go through transition: requirement is "+string(req.Status))
		}
		return req.UpdateDetails(cmd.Details, now)
	})
	if err != nil {
		return nil, err
	}
	r.metrics.IncrementUpsert(string(req.Standard), "update")
	r.logAudit(ctx, "requirement_updated",
		"requirement_id", req.ID.String(),
		"standard", string(req.Standard),
		"reference", req.Reference,
		"actor", cmd.Actor,
	)
	return req, nil
}

// Transition moves the requirement one status step forward.
func (r *Registry) Transition(ctx context.Context, requirementID id.RequirementID, next models.Status, actor string) (*models.Requirement, error) {
	var from models.Status
	req, err := r.update(ctx, requirementID, func(req *models.Requirement, now time.Time) error {
		from = req.Status
		return req.Transition(next, now)
	})
	if err != nil {
		return nil, err
	}
	r.metrics.IncrementTransition(string(req.Standard), string(next))
	r.logAudit(ctx, "requirement_transitioned",
		"requirement_id", req.ID.String(),
		"standard", string(req.Standard),
		"reference", req.Reference,
		"from", string(from),
		"to", string(next),
		"actor", actor,
	)
	return req, nil
}

// MarkReviewed records a review and schedules the next one.
func (r *Registry) MarkReviewed(ctx context.Context, requirementID id.RequirementID, at time.Time, actor string) (*models.Requirement, error) {
	req, err := r.update(ctx, requirementID, func(req *models.Requirement, now time.Time) error {
		return req.MarkReviewed(at, now)
	})
	if err != nil {
		return nil, err
	}
	r.metrics.IncrementReview()
	r.logAudit(ctx, "requirement_reviewed",
		"requirement_id", req.ID.String(),
		"next_review_at", req.NextReviewAt,
		"actor", actor,
	)
	return req, nil
}

func (r *Registry) Get(ctx context.Context, requirementID id.RequirementID) (*models.Requirement, error) {
	if requirementID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "requirement ID required")
	}
	req, err := r.store.FindByID(ctx, requirementID)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to load requirement")
	}
	return req, nil
}

func (r *Registry) List(ctx context.Context, filter models.RequirementFilter) ([]*models.Requirement, error) {
	reqs, err := r.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requirements")
	}
	return reqs, nil
}

func (r *Registry) update(ctx context.Context, requirementID id.RequirementID, fn func(req *models.Requirement, now time.Time) error) (*models.Requirement, error) {
	if requirementID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "requirement ID required")
	}
	var updated *models.Requirement
	err := r.idLocks.WithLock(requirementID.String(), func() error {
		req, err := r.store.FindByID(ctx, requirementID)
		if err != nil {
			return wrapStoreErr(err, "failed to load requirement")
		}
		if err := fn(req, r.now()); err != nil {
			return err
		}
		if err := r.store.Update(ctx, req); err != nil {
			return wrapStoreErr(err, "failed to save requirement")
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func wrapStoreErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "requirement not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "requirement standard and reference cannot change")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (r *Registry) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	r.logger.InfoContext(ctx, event, args...)
}
