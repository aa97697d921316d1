package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Upserts     *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Reviews     prometheus.Counter
}

var (
	once     sync.Once
	instance *Metrics
)

// New returns the process-wide compliance registry metrics.
func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			Upserts: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_requirement_upserts_total",
				Help: "Total number of requirement creates and updates",
			}, []string{"standard", "op"}),
			Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_requirement_transitions_total",
				Help: "Total number of requirement status transitions",
			}, []string{"standard", "to"}),
			Reviews: promauto.NewCounter(prometheus.CounterOpts{
				Name: "auditwatch_requirement_reviews_total",
				Help: "Total number of recorded requirement reviews",
			}),
		}
	})
	return instance
}

func (m *Metrics) IncrementUpsert(standard, op string) {
	if m == nil {
		return
	}
	m.Upserts.WithLabelValues(standard, op).Inc()
}

func (m *Metrics) IncrementTransition(standard, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(standard, to).Inc()
}

func (m *Metrics) IncrementReview() {
	if m == nil {
		return
	}
	m.Reviews.Inc()
}
