package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the outbox worker.
type Metrics struct {
	PendingDepth    prometheus.Gauge
	PublishedTotal  prometheus.Counter
	PublishFailures prometheus.Counter
	PublishDuration prometheus.Histogram
	BatchSize       prometheus.Histogram
	PollDuration    prometheus.Histogram
	Purged          prometheus.Counter
}

var (
	once     sync.Once
	instance *Metrics
)

// New returns the process-wide outbox metrics.
func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			PendingDepth: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "auditwatch_outbox_pending_total",
				Help: "Current number of pending (unprocessed) outbox entries",
			}),
			PublishedTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "auditwatch_outbox_published_total",
				Help: "Total number of outbox entries published to Kafka",
			}),
			PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "auditwatch_outbox_publish_failures_total",
				Help: "Total number of outbox publish failures",
			}),
			PublishDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "auditwatch_outbox_publish_duration_seconds",
				Help:    "Time taken to publish an outbox entry to Kafka",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			}),
			BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "auditwatch_outbox_batch_size",
				Help:    "Number of entries processed per batch",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
			}),
			PollDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "auditwatch_outbox_poll_duration_seconds",
				Help:    "Time taken for each poll cycle",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			}),
			Purged: promauto.NewCounter(prometheus.CounterOpts{
				Name: "auditwatch_outbox_purged_total",
				Help: "Total number of processed outbox entries deleted",
			}),
		}
	})
	return instance
}

func (m *Metrics) SetPendingDepth(count int64) {
	if m == nil {
		return
	}
	m.PendingDepth.Set(float64(count))
}

func (m *Metrics) IncPublished() {
	if m == nil {
		return
	}
	m.PublishedTotal.Inc()
}

func (m *Metrics) IncPublishFailures() {
	if m == nil {
		return
	}
	m.PublishFailures.Inc()
}

func (m *Metrics) ObservePublishDuration(seconds float64) {
	if m == nil {
		return
	}
	m.PublishDuration.Observe(seconds)
}

func (m *Metrics) ObserveBatchSize(size int) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(size))
}

func (m *Metrics) ObservePollDuration(seconds float64) {
	if m == nil {
		return
	}
	m.PollDuration.Observe(seconds)
}

func (m *Metrics) AddPurged(n int64) {
	if m == nil {
		return
	}
	m.Purged.Add(float64(n))
}
