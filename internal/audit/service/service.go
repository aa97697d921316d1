package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"auditwatch/internal/audit/metrics"
	"auditwatch/internal/audit/models"
	"auditwatch/internal/platform/tracer"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
)

// Store is the append-only event log.
type Store interface {
	Append(ctx context.Context, e *models.AuditEvent) error
	FindByID(ctx context.Context, eventID id.EventID) (*models.AuditEvent, error)
	Query(ctx context.Context, filter models.EventFilter) ([]*models.AuditEvent, error)
}

// PatternObserver inspects each stored event. Errors never fail a recording.
type PatternObserver interface {
	Observe(ctx context.Context, e *models.AuditEvent) ([]models.Flag, error)
}

// RecordCommand describes one access to record. A nil ID is generated;
// a caller-supplied ID makes redelivery idempotent.
type RecordCommand struct {
	ID          id.EventID
	Timestamp   time.Time
	Actor       models.Actor
	Action      string
	Resource    models.Resource
	Origin      models.Origin
	Outcome     models.Outcome
	Sensitivity models.Sensitivity
	Risk        models.RiskLevel
	Standards   []id.Standard
}

// Recorder appends audit events and feeds them to the pattern monitor.
type Recorder struct {
	store   Store
	monitor PatternObserver
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	now     func() time.Time
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Recorder) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithPatternObserver runs the observer synchronously after every append.
func WithPatternObserver(o PatternObserver) Option {
	return func(r *Recorder) {
		r.monitor = o
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

func New(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record validates and appends the event, then runs pattern detection on the
// stored copy. The event is durable once Record returns, whatever the monitor did.
func (r *Recorder) Record(ctx context.Context, cmd RecordCommand) (_ *models.AuditEvent, err error) {
	start := r.now()
	defer r.metrics.ObserveRecord(start)

	if cmd.ID.IsNil() {
		cmd.ID = id.NewEventID()
	}
	ctx, span := r.tracer.Start(ctx, tracer.SpanAuditRecord,
		tracer.String(tracer.AttrEventID, cmd.ID.String()),
		tracer.String(tracer.AttrOutcome, string(cmd.Outcome)),
	)
	defer func() { span.End(err) }()

	event, err := models.NewAuditEvent(models.NewEventParams{
		ID:          cmd.ID,
		Timestamp:   cmd.Timestamp,
		RecordedAt:  r.now(),
		Actor:       cmd.Actor,
		Action:      cmd.Action,
		Resource:    cmd.Resource,
		Origin:      cmd.Origin,
		Outcome:     cmd.Outcome,
		Sensitivity: cmd.Sensitivity,
		Risk:        cmd.Risk,
		Standards:   cmd.Standards,
	})
	if err != nil {
		r.metrics.IncrementRejected("validation")
		return nil, err
	}

	if err := r.store.Append(ctx, event); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			r.metrics.IncrementRejected("duplicate")
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "audit event already recorded")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit event")
	}
	r.metrics.IncrementRecorded(string(event.Outcome), string(event.Sensitivity))
	r.logger.DebugContext(ctx, "audit event recorded",
		"event_id", event.ID.String(),
		"sequence", event.Sequence,
		"actor_id", event.Actor.ID,
		"resource_type", event.Resource.Type,
		"outcome", string(event.Outcome),
	)

	r.observe(ctx, event, span)
	return event, nil
}

func (r *Recorder) observe(ctx context.Context, event *models.AuditEvent, span tracer.Span) {
	if r.monitor == nil {
		return
	}
	flags, err := r.monitor.Observe(ctx, event.Clone())
	span.SetAttributes(tracer.Int(tracer.AttrFlagCount, len(flags)))
	if err != nil {
		r.logger.WarnContext(ctx, "pattern monitoring failed for recorded event",
			"event_id", event.ID.String(),
			"error", err,
		)
	}
}

// Query returns matching events newest first. An inverted range yields no events.
func (r *Recorder) Query(ctx context.Context, filter models.EventFilter) ([]*models.AuditEvent, error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanAuditQuery)
	if filter.Limit < 0 {
		filter.Limit = 0
	}
	events, err := r.store.Query(ctx, filter)
	span.End(err)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit events")
	}
	return events, nil
}

func (r *Recorder) Get(ctx context.Context, eventID id.EventID) (*models.AuditEvent, error) {
	if eventID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "event ID required")
	}
	event, err := r.store.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "audit event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit event")
	}
	return event, nil
}
