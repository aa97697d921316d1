package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	QueueDepth prometheus.Gauge
	Delivered  *prometheus.CounterVec
	Failed     *prometheus.CounterVec
	Retries    *prometheus.CounterVec
	Rejected   *prometheus.CounterVec
	Breaker    *prometheus.GaugeVec
}

var (
	once     sync.Once
	instance *Metrics
)

// New returns the process-wide notification metrics.
func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "auditwatch_notify_queue_depth",
				Help: "Notifications waiting for delivery",
			}),
			Delivered: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_notify_delivered_total",
				Help: "Total number of notifications delivered",
			}, []string{"sink"}),
			Failed: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_notify_failed_total",
				Help: "Total number of notifications dropped after exhausting retries",
			}, []string{"sink"}),
			Retries: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_notify_retries_total",
				Help: "Total number of delivery retries",
			}, []string{"sink"}),
			Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_notify_rejected_total",
				Help: "Total number of notifications refused at hand-off",
			}, []string{"reason"}),
			Breaker: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "auditwatch_notify_breaker_open",
				Help: "1 while the sink circuit breaker is open",
			}, []string{"sink"}),
		}
	})
	return instance
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) IncDelivered(sink string) {
	if m == nil {
		return
	}
	m.Delivered.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncFailed(sink string) {
	if m == nil {
		return
	}
	m.Failed.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncRetries(sink string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetBreakerOpen(sink string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.Breaker.WithLabelValues(sink).Set(v)
}
