package request

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// NewMetrics returns the process-wide HTTP metrics, registering them on first use.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "auditwatch_http_request_duration_seconds",
				Help:    "Latency of HTTP requests by route pattern",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "route", "status"}),
		}
	})
	return metricsInstance
}

func (m *Metrics) ObserveRequest(method, route string, status int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(durationSeconds)
}
