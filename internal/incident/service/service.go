package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	incidentmetrics "auditwatch/internal/incident/metrics"
	"auditwatch/internal/incident/models"
	"auditwatch/internal/platform/tracer"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	psync "auditwatch/pkg/platform/sync"
	"auditwatch/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, inc *models.Incident) error
	Update(ctx context.Context, inc *models.Incident) error
	FindByID(ctx context.Context, incidentID id.IncidentID) (*models.Incident, error)
	FindActiveByPattern(ctx context.Context, key models.PatternKey) (*models.Incident, error)
	List(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
}

// Notifier delivers dispatched response bundles. It must not block on I/O;
// an error only means the hand-off was refused.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Manager owns the incident lifecycle. Mutations of one incident are
// serialized by id; flag evaluation is serialized by pattern key, and always
// takes the pattern lock before the id lock.
type Manager struct {
	store         Store
	notifier      Notifier
	patternLocks  *psync.ShardedMutex
	incidentLocks *psync.ShardedMutex
	dedupWindow   time.Duration
	logger        *slog.Logger
	metrics       *incidentmetrics.Metrics
	tracer        tracer.Tracer
	now           func() time.Time
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(mt *incidentmetrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithDedupWindow sets how far apart two hits of one pattern may be and
// still land on the same incident. Default 15 minutes.
func WithDedupWindow(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.dedupWindow = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func New(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		patternLocks:  psync.NewShardedMutex(),
		incidentLocks: psync.NewShardedMutex(),
		dedupWindow:   15 * time.Minute,
		logger:        slog.Default(),
		tracer:        tracer.NewNoop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// update loads the incident under its id lock, applies fn and saves the result.
func (m *Manager) update(ctx context.Context, incidentID id.IncidentID, fn func(inc *models.Incident, now time.Time) error) (*models.Incident, error) {
	if incidentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "incident ID required")
	}
	var updated *models.Incident
	err := m.incidentLocks.WithLock(incidentID.String(), func() error {
		inc, err := m.store.FindByID(ctx, incidentID)
		if err != nil {
			return wrapStoreErr(err, "failed to load incident")
		}
		if err := fn(inc, m.now()); err != nil {
			return err
		}
		if err := m.store.Update(ctx, inc); err != nil {
			return wrapStoreErr(err, "failed to save incident")
		}
		updated = inc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// dispatch records the bundle for the incident's current severity in the
// immediate-action trace. The caller persists the incident.
func dispatch(inc *models.Incident) models.ResponseBundle {
	bundle := models.DispatchResponse(inc.Severity)
	inc.ImmediateActions = append(inc.ImmediateActions, bundle.Descriptions()...)
	return bundle
}

// notify hands the bundle to the notifier. Failures are logged and counted only.
func (m *Manager) notify(ctx context.Context, inc *models.Incident, bundle models.ResponseBundle, trigger models.DispatchTrigger) {
	m.metrics.IncrementDispatched(string(bundle.Severity), string(trigger))
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, models.NewNotification(inc, bundle, trigger, m.now())); err != nil {
		m.metrics.IncrementNotificationFailure()
		m.logger.ErrorContext(ctx, "failed to hand off incident response",
			"incident_id", inc.ID.String(),
			"incident_number", inc.DisplayNumber(),
			"severity", string(bundle.Severity),
			"trigger", string(trigger),
			"error", err,
		)
	}
}

func wrapStoreErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "incident not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (m *Manager) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	m.logger.InfoContext(ctx, event, args...)
}
