package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for event ingestion and pattern monitoring.
type Metrics struct {
	EventsRecorded      *prometheus.CounterVec
	EventsRejected      *prometheus.CounterVec
	RecordDuration      prometheus.Histogram
	FlagsRaised         *prometheus.CounterVec
	FlagHandlingErrors  *prometheus.CounterVec
	WindowStoreErrors   prometheus.Counter
	WindowCleanupRuns   *prometheus.CounterVec
	WindowCleanupPruned prometheus.Counter
	WindowCleanupTime   prometheus.Histogram
	ConsumedMessages    *prometheus.CounterVec
}

var (
	once     sync.Once
	instance *Metrics
)

// New returns the process-wide audit metrics, registering them on first use.
func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			EventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_audit_events_recorded_total",
				Help: "Total number of audit events appended to the event store",
			}, []string{"outcome", "sensitivity"}),
			EventsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_audit_events_rejected_total",
				Help: "Total number of audit events rejected before storage",
			}, []string{"reason"}),
			RecordDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "auditwatch_audit_record_duration_seconds",
				Help:    "Duration of Record including pattern monitoring",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			}),
			FlagsRaised: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_monitor_flags_raised_total",
				Help: "Total number of suspicious-pattern flags raised",
			}, []string{"flag"}),
			FlagHandlingErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_monitor_flag_handling_errors_total",
				Help: "Total number of flags the incident manager failed to handle",
			}, []string{"flag"}),
			WindowStoreErrors: promauto.NewCounter(prometheus.CounterOpts{
				Name: "auditwatch_monitor_window_store_errors_total",
				Help: "Total number of failure-window store errors",
			}),
			WindowCleanupRuns: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_monitor_window_cleanup_runs_total",
				Help: "Total number of failure-window cleanup runs",
			}, []string{"status"}),
			WindowCleanupPruned: promauto.NewCounter(prometheus.CounterOpts{
				Name: "auditwatch_monitor_window_cleanup_pruned_total",
				Help: "Total number of idle failure windows removed",
			}),
			WindowCleanupTime: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "auditwatch_monitor_window_cleanup_duration_seconds",
				Help:    "Duration of failure-window cleanup runs",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			}),
			ConsumedMessages: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_audit_consumed_messages_total",
				Help: "Total number of audit event messages consumed from Kafka",
			}, []string{"result"}),
		}
	})
	return instance
}

func (m *Metrics) IncrementRecorded(outcome, sensitivity string) {
	if m == nil {
		return
	}
	m.EventsRecorded.WithLabelValues(outcome, sensitivity).Inc()
}

func (m *Metrics) IncrementRejected(reason string) {
	if m == nil {
		return
	}
	m.EventsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveRecord(start time.Time) {
	if m == nil {
		return
	}
	m.RecordDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementFlag(flag string) {
	if m == nil {
		return
	}
	m.FlagsRaised.WithLabelValues(flag).Inc()
}

func (m *Metrics) IncrementFlagError(flag string) {
	if m == nil {
		return
	}
	m.FlagHandlingErrors.WithLabelValues(flag).Inc()
}

func (m *Metrics) IncrementWindowStoreError() {
	if m == nil {
		return
	}
	m.WindowStoreErrors.Inc()
}

// ObserveCleanup records one cleanup run; status is "success" or "error".
func (m *Metrics) ObserveCleanup(status string, pruned int, d time.Duration) {
	if m == nil {
		return
	}
	m.WindowCleanupRuns.WithLabelValues(status).Inc()
	m.WindowCleanupPruned.Add(float64(pruned))
	m.WindowCleanupTime.Observe(d.Seconds())
}

func (m *Metrics) IncrementConsumed(result string) {
	if m == nil {
		return
	}
	m.ConsumedMessages.WithLabelValues(result).Inc()
}
