package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ReportsGenerated    *prometheus.CounterVec
	SectionsUnavailable *prometheus.CounterVec
	GenerateDuration    prometheus.Histogram
	LastScore           *prometheus.GaugeVec
}

var (
	once     sync.Once
	instance *Metrics
)

func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			ReportsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_reports_generated_total",
				Help: "Total number of compliance reports generated",
			}, []string{"standard", "status"}),
			SectionsUnavailable: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_report_sections_unavailable_total",
				Help: "Total number of report sections degraded by a failing store read",
			}, []string{"section"}),
			GenerateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "auditwatch_report_generate_duration_seconds",
				Help:    "Duration of compliance report generation",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			}),
			LastScore: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "auditwatch_compliance_score",
				Help: "Compliance score of the most recent report per standard",
			}, []string{"standard"}),
		}
	})
	return instance
}

func (m *Metrics) ObserveReport(standard, status string, score int, d time.Duration) {
	if m == nil {
		return
	}
	m.ReportsGenerated.WithLabelValues(standard, status).Inc()
	m.LastScore.WithLabelValues(standard).Set(float64(score))
	m.GenerateDuration.Observe(d.Seconds())
}

func (m *Metrics) IncrementSectionUnavailable(section string) {
	if m == nil {
		return
	}
	m.SectionsUnavailable.WithLabelValues(section).Inc()
}
