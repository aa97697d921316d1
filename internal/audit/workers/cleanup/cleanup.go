package cleanup

import (
	"context"
	"log/slog"
	"time"

	"auditwatch/internal/audit/metrics"
)

// CleanupResult contains the results of a cleanup run.
type CleanupResult struct {
	WindowsPruned int
	Duration      time.Duration
}

// WindowPruner drops failure windows that have seen no failure for a full window.
type WindowPruner interface {
	PruneIdle(ctx context.Context, now time.Time) (int, error)
}

type Option func(*WindowCleanupService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *WindowCleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *WindowCleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *WindowCleanupService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *WindowCleanupService) {
		if now != nil {
			s.now = now
		}
	}
}

// WindowCleanupService periodically prunes idle in-memory failure windows.
type WindowCleanupService struct {
	store    WindowPruner
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(store WindowPruner, opts ...Option) *WindowCleanupService {
	service := &WindowCleanupService{
		store:    store,
		logger:   slog.Default(),
		interval: 5 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *WindowCleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			startTime := time.Now()
			res, err := s.RunOnce(ctx)
			duration := time.Since(startTime)

			if err != nil {
				s.logger.Error("failure_window_cleanup_failed",
					"error", err,
					"duration_ms", duration.Milliseconds(),
				)
				s.metrics.ObserveCleanup("error", 0, duration)
				continue
			}

			res.Duration = duration
			s.logger.Debug("failure_window_cleanup_completed",
				"windows_pruned", res.WindowsPruned,
				"duration_ms", duration.Milliseconds(),
			)
			s.metrics.ObserveCleanup("success", res.WindowsPruned, duration)

		case <-ctx.Done():
			s.logger.Info("failure window cleanup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single cleanup run. Logging is handled by the caller (Start).
func (s *WindowCleanupService) RunOnce(ctx context.Context) (*CleanupResult, error) {
	pruned, err := s.store.PruneIdle(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return &CleanupResult{WindowsPruned: pruned}, nil
}
