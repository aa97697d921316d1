// Package notify delivers dispatched incident response bundles.
//
// The Dispatcher accepts notifications without blocking and hands them to a
// Sink from a single worker goroutine, retrying with exponential backoff.
// A full buffer or a closed dispatcher refuses the hand-off; the incident
// manager logs and counts that, it never fails the incident operation.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"auditwatch/internal/incident/models"
	notifymetrics "auditwatch/internal/notify/metrics"
	"auditwatch/internal/sentinel"
)

// Sink is a delivery channel for notifications.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n models.Notification) error
}

type Config struct {
	BufferSize  int
	MaxAttempts int
	Backoff     time.Duration
}

func DefaultConfig() Config {
	return Config{
		BufferSize:  1024,
		MaxAttempts: 3,
		Backoff:     100 * time.Millisecond,
	}
}

type Dispatcher struct {
	sink    Sink
	cfg     Config
	queue   chan models.Notification
	logger  *slog.Logger
	metrics *notifymetrics.Metrics

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithMetrics(m *notifymetrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New starts the delivery worker. Zero config fields take their defaults.
func New(sink Sink, cfg Config, opts ...Option) *Dispatcher {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		sink:   sink,
		cfg:    cfg,
		queue:  make(chan models.Notification, cfg.BufferSize),
		logger: slog.Default(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	go d.run()
	return d
}

// Notify enqueues n. It fails with sentinel.ErrBufferFull when the buffer is
// full and sentinel.ErrUnavailable after Close.
func (d *Dispatcher) Notify(_ context.Context, n models.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.IncRejected("closed")
		return fmt.Errorf("notification dispatcher closed: %w", sentinel.ErrUnavailable)
	}
	select {
	case d.queue <- n:
		d.metrics.SetQueueDepth(len(d.queue))
		return nil
	default:
		d.metrics.IncRejected("buffer_full")
		return fmt.Errorf("notification queue holds %d entries: %w", cap(d.queue), sentinel.ErrBufferFull)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		d.metrics.SetQueueDepth(len(d.queue))
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n models.Notification) {
	name := d.sink.Name()
	backoff := d.cfg.Backoff
	var err error
retry:
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if err = d.sink.Deliver(d.ctx, n); err == nil {
			d.metrics.IncDelivered(name)
			return
		}
		if attempt == d.cfg.MaxAttempts {
			break
		}
		d.metrics.IncRetries(name)
		select {
		case <-d.ctx.Done():
			break retry
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	d.metrics.IncFailed(name)
	d.logger.Error("failed to deliver incident notification",
		"sink", name,
		"incident_id", n.IncidentID.String(),
		"incident_number", n.IncidentNumber,
		"severity", string(n.Severity),
		"trigger", string(n.Trigger),
		"error", err,
	)
}

// Close stops accepting notifications and waits for the queue to drain.
// When ctx expires first, in-flight retries are abandoned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	select {
	case <-d.done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}
