package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	IncidentsCreated     *prometheus.CounterVec
	FlagsDeduplicated    *prometheus.CounterVec
	Transitions          *prometheus.CounterVec
	Escalations          *prometheus.CounterVec
	SeverityOverrides    prometheus.Counter
	ResponsesDispatched  *prometheus.CounterVec
	NotificationFailures prometheus.Counter
}

var (
	once     sync.Once
	instance *Metrics
)

// New returns the process-wide incident metrics.
func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			IncidentsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_incidents_created_total",
				Help: "Total number of incidents opened",
			}, []string{"source", "severity"}),
			FlagsDeduplicated: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_incident_flags_deduplicated_total",
				Help: "Total number of flags folded into an existing incident",
			}, []string{"flag"}),
			Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_incident_transitions_total",
				Help: "Total number of incident status transitions",
			}, []string{"to"}),
			Escalations: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_incident_escalations_total",
				Help: "Total number of incident escalations",
			}, []string{"to"}),
			SeverityOverrides: promauto.NewCounter(prometheus.CounterOpts{
				Name: "auditwatch_incident_severity_overrides_total",
				Help: "Total number of explicit severity overrides",
			}),
			ResponsesDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "auditwatch_incident_responses_dispatched_total",
				Help: "Total number of response bundles dispatched",
			}, []string{"severity", "trigger"}),
			NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "auditwatch_incident_notification_failures_total",
				Help: "Total number of response bundles the notifier rejected",
			}),
		}
	})
	return instance
}

func (m *Metrics) IncrementCreated(source, severity string) {
	if m == nil {
		return
	}
	m.IncidentsCreated.WithLabelValues(source, severity).Inc()
}

func (m *Metrics) IncrementDeduplicated(flag string) {
	if m == nil {
		return
	}
	m.FlagsDeduplicated.WithLabelValues(flag).Inc()
}

func (m *Metrics) IncrementTransition(to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) IncrementEscalation(to string) {
	if m == nil {
		return
	}
	m.Escalations.WithLabelValues(to).Inc()
}

func (m *Metrics) IncrementOverride() {
	if m == nil {
		return
	}
	m.SeverityOverrides.Inc()
}

func (m *Metrics) IncrementDispatched(severity, trigger string) {
	if m == nil {
		return
	}
	m.ResponsesDispatched.WithLabelValues(severity, trigger).Inc()
}

func (m *Metrics) IncrementNotificationFailure() {
	if m == nil {
		return
	}
	m.NotificationFailures.Inc()
}
