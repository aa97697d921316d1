// Package monitor inspects stored audit events for suspicious access patterns
// and hands the resulting flags to the incident manager.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"auditwatch/internal/audit/metrics"
	"auditwatch/internal/audit/models"
)

// Config holds the detection thresholds.
type Config struct {
	// BusinessStartHour and BusinessEndHour bound the working day in Location.
	// Access at hour < start or hour >= end is after-hours.
	BusinessStartHour int
	BusinessEndHour   int
	Location          *time.Location
	FailureWindow     time.Duration
	// FailureThreshold is exceeded (count > threshold) before a flag is raised.
	FailureThreshold int
}

func DefaultConfig() Config {
	return Config{
		BusinessStartHour: 6,
		BusinessEndHour:   22,
		Location:          time.UTC,
		FailureWindow:     15 * time.Minute,
		FailureThreshold:  5,
	}
}

// Validate rejects configurations that could never flag or always flag.
func (c Config) Validate() error {
	if c.BusinessStartHour < 0 || c.BusinessStartHour > 23 || c.BusinessEndHour < 1 || c.BusinessEndHour > 24 {
		return fmt.Errorf("business hours must be within 0-24, got %d-%d", c.BusinessStartHour, c.BusinessEndHour)
	}
	if c.BusinessStartHour >= c.BusinessEndHour {
		return fmt.Errorf("business start hour %d must precede end hour %d", c.BusinessStartHour, c.BusinessEndHour)
	}
	if c.FailureWindow <= 0 {
		return errors.New("failure window must be positive")
	}
	if c.FailureThreshold < 1 {
		return errors.New("failure threshold must be at least 1")
	}
	return nil
}

// IsAfterHours reports whether t falls outside the business window.
func (c Config) IsAfterHours(t time.Time) bool {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	h := t.In(loc).Hour()
	return h < c.BusinessStartHour || h >= c.BusinessEndHour
}

// WindowStore counts failures per key over a sliding window.
// RecordFailure must be idempotent for a repeated member.
type WindowStore interface {
	RecordFailure(ctx context.Context, key, member string, at time.Time) (int, error)
}

// FlagHandler decides what a raised flag means for incidents.
type FlagHandler interface {
	HandleFlag(ctx context.Context, flag models.Flag) error
}

// FlagHandlerFunc adapts a function to FlagHandler.
type FlagHandlerFunc func(ctx context.Context, flag models.Flag) error

func (f FlagHandlerFunc) HandleFlag(ctx context.Context, flag models.Flag) error {
	return f(ctx, flag)
}

// Monitor applies the detection rules to each stored event.
// It keeps no per-event state apart from the window counters.
type Monitor struct {
	cfg     Config
	windows WindowStore
	handler FlagHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Monitor)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) {
		m.metrics = mt
	}
}

func WithConfig(cfg Config) Option {
	return func(m *Monitor) {
		m.cfg = cfg
	}
}

// WithFlagHandler sets the receiver of raised flags. Without one flags are only returned.
func WithFlagHandler(h FlagHandler) Option {
	return func(m *Monitor) {
		m.handler = h
	}
}

func New(windows WindowStore, opts ...Option) (*Monitor, error) {
	if windows == nil {
		return nil, errors.New("window store is required")
	}
	m := &Monitor{
		cfg:     DefaultConfig(),
		windows: windows,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}
	return m, nil
}

// Evaluate applies the rules to e and returns the flags it raises.
// A window store error skips failure clustering and is returned alongside
// any after-hours flag.
func (m *Monitor) Evaluate(ctx context.Context, e *models.AuditEvent) ([]models.Flag, error) {
	var flags []models.Flag

	if e.Sensitivity == models.SensitivityProtected &&
		e.Outcome == models.OutcomeSuccess &&
		m.cfg.IsAfterHours(e.Timestamp) {
		flags = append(flags, models.NewFlag(models.FlagAfterHoursSensitiveAccess, e))
	}

	if !e.Outcome.IsFailure() {
		return flags, nil
	}

	count, err := m.windows.RecordFailure(ctx, FailureKey(e.Actor.ID, e.Resource.Type), e.ID.String(), e.Timestamp)
	if err != nil {
		m.metrics.IncrementWindowStoreError()
		return flags, fmt.Errorf("record failure window: %w", err)
	}
	if count > m.cfg.FailureThreshold {
		f := models.NewFlag(models.FlagRepeatedAccessFailure, e)
		f.FailureCount = count
		flags = append(flags, f)
	}
	return flags, nil
}

// Observe evaluates e and hands every raised flag to the flag handler.
// Handler errors are logged, counted and joined into the returned error;
// a failing flag does not prevent the remaining flags from being handled.
func (m *Monitor) Observe(ctx context.Context, e *models.AuditEvent) ([]models.Flag, error) {
	flags, evalErr := m.Evaluate(ctx, e)
	if evalErr != nil {
		m.logger.WarnContext(ctx, "pattern evaluation incomplete",
			"event_id", e.ID.String(),
			"error", evalErr,
		)
	}

	errs := []error{evalErr}
	for _, f := range flags {
		m.metrics.IncrementFlag(string(f.Type))
		m.logger.InfoContext(ctx, "suspicious pattern flagged",
			"flag", string(f.Type),
			"event_id", f.EventID.String(),
			"actor_id", f.ActorID,
			"resource_type", f.ResourceType,
			"failure_count", f.FailureCount,
		)
		if m.handler == nil {
			continue
		}
		if err := m.handler.HandleFlag(ctx, f); err != nil {
			m.metrics.IncrementFlagError(string(f.Type))
			m.logger.ErrorContext(ctx, "failed to handle flag",
				"flag", string(f.Type),
				"event_id", f.EventID.String(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("handle %s: %w", f.Type, err))
		}
	}
	return flags, errors.Join(errs...)
}

// FailureKey builds the window key for an (actor, resource type) pair.
func FailureKey(actorID, resourceType string) string {
	return strings.Join([]string{actorID, resourceType}, "|")
}
