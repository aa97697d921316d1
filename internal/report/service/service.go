package service

import (
	"context"
	"log/slog"
	"time"

	auditmodels "auditwatch/internal/audit/models"
	compliancemodels "auditwatch/internal/compliance/models"
	incidentmodels "auditwatch/internal/incident/models"
	"auditwatch/internal/platform/tracer"
	reportmetrics "auditwatch/internal/report/metrics"
	"auditwatch/internal/report/models"
	id "auditwatch/pkg/domain"
)

type RequirementReader interface {
	List(ctx context.Context, filter compliancemodels.RequirementFilter) ([]*compliancemodels.Requirement, error)
}

type IncidentReader interface {
	List(ctx context.Context, filter incidentmodels.IncidentFilter) ([]*incidentmodels.Incident, error)
}

type EventReader interface {
	Query(ctx context.Context, filter auditmodels.EventFilter) ([]*auditmodels.AuditEvent, error)
}

const (
	sectionRequirements = "requirements"
	sectionIncidents    = "incidents"
	sectionEvents       = "events"
)

// Generator builds compliance reports. Each store is read independently, so
// a report is a best-effort snapshot rather than a consistent cut.
type Generator struct {
	requirements RequirementReader
	incidents    IncidentReader
	events       EventReader
	tracer       tracer.Tracer
	logger       *slog.Logger
	metrics      *reportmetrics.Metrics
	now          func() time.Time
}

type Option func(*Generator)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(g *Generator) {
		if t != nil {
			g.tracer = t
		}
	}
}

func WithMetrics(m *reportmetrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func New(requirements RequirementReader, incidents IncidentReader, events EventReader, opts ...Option) *Generator {
	g := &Generator{
		requirements: requirements,
		incidents:    incidents,
		events:       events,
		tracer:       tracer.NewNoop(),
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate never fails. Unreadable sections are zeroed and flagged; an
// inverted window skips the incident and event sections.
func (g *Generator) Generate(ctx context.Context, standard id.Standard, window models.Window) *models.Report {
	start := g.now()
	ctx, span := g.tracer.Start(ctx, tracer.SpanReportGenerate, tracer.String(tracer.AttrStandard, string(standard)))
	defer span.End(nil)

	report := &models.Report{
		Standard:    standard,
		Window:      window,
		GeneratedAt: start,
		Requirements: models.RequirementSummary{
			ByStatus:        map[string]int{},
			ByPriority:      map[string]int{},
			CriticalGapRefs: []string{},
		},
		Incidents: models.IncidentSummary{
			BySeverity: map[string]int{},
			ByStatus:   map[string]int{},
		},
		Events: models.EventSummary{
			BySensitivity: map[string]int{},
		},
	}

	g.summarizeRequirements(ctx, report, start)
	if window.Valid() {
		g.summarizeIncidents(ctx, report)
		g.summarizeEvents(ctx, report)
	} else {
		report.Flags = append(report.Flags, models.FlagInvalidWindow)
	}

	report.ComplianceScore = models.Score(report.Requirements.Fulfilled, report.Requirements.Total)
	report.Status = models.StatusForScore(report.ComplianceScore)
	report.CriticalGaps = len(report.Requirements.CriticalGapRefs)

	span.SetAttributes(
		tracer.Int(tracer.AttrScore, report.ComplianceScore),
		tracer.Bool(tracer.AttrDegraded, report.Degraded()),
	)
	g.metrics.ObserveReport(string(standard), string(report.Status), report.ComplianceScore, g.now().Sub(start))
	g.logger.InfoContext(ctx, "compliance report generated",
		"standard", string(standard),
		"score", report.ComplianceScore,
		"status", string(report.Status),
		"flags", report.FlagStrings(),
	)
	return report
}

func (g *Generator) summarizeRequirements(ctx context.Context, report *models.Report, now time.Time) {
	ctx, span := g.tracer.Start(ctx, tracer.SpanReportSection, tracer.String(tracer.AttrSection, sectionRequirements))
	defer span.End(nil)

	reqs, err := g.requirements.List(ctx, compliancemodels.RequirementFilter{Standard: report.Standard})
	if err != nil {
		g.unavailable(ctx, span, report, sectionRequirements, models.FlagRequirementsUnavailable, err)
		return
	}
	s := &report.Requirements
	for _, r := range reqs {
		s.Total++
		if r.Status.Fulfilled() {
			s.Fulfilled++
		}
		s.ByStatus[string(r.Status)]++
		s.ByPriority[string(r.Priority)]++
		if r.ReviewOverdue(now) {
			s.OverdueReviews++
		}
		if r.IsCriticalGap() {
			s.CriticalGapRefs = append(s.CriticalGapRefs, r.Reference)
		}
	}
	if s.Total == 0 {
		report.Flags = append(report.Flags, models.FlagNoRequirementsDefined)
	}
}

func (g *Generator) summarizeIncidents(ctx context.Context, report *models.Report) {
	ctx, span := g.tracer.Start(ctx, tracer.SpanReportSection, tracer.String(tracer.AttrSection, sectionIncidents))
	defer span.End(nil)

	incidents, err := g.incidents.List(ctx, incidentmodels.IncidentFilter{
		Standard:     report.Standard,
		DetectedFrom: report.Window.From,
		DetectedTo:   report.Window.To,
	})
	if err != nil {
		g.unavailable(ctx, span, report, sectionIncidents, models.FlagIncidentsUnavailable, err)
		return
	}
	s := &report.Incidents
	for _, inc := range incidents {
		s.Total++
		s.BySeverity[string(inc.Severity)]++
		s.ByStatus[string(inc.Status)]++
		if inc.Status.IsActive() {
			s.Open++
		}
		if inc.AuthoritiesNotified {
			s.AuthoritiesNotified++
		}
	}
}

func (g *Generator) summarizeEvents(ctx context.Context, report *models.Report) {
	ctx, span := g.tracer.Start(ctx, tracer.SpanReportSection, tracer.String(tracer.AttrSection, sectionEvents))
	defer span.End(nil)

	events, err := g.events.Query(ctx, auditmodels.EventFilter{
		Standard: report.Standard,
		From:     report.Window.From,
		To:       report.Window.To,
	})
	if err != nil {
		g.unavailable(ctx, span, report, sectionEvents, models.FlagEventsUnavailable, err)
		return
	}
	s := &report.Events
	for _, e := range events {
		s.Total++
		switch e.Outcome {
		case auditmodels.OutcomeFailure:
			s.Failures++
		case auditmodels.OutcomeDenied:
			s.Denials++
		}
		if e.Risk == auditmodels.RiskHigh {
			s.HighRisk++
		}
		s.BySensitivity[string(e.Sensitivity)]++
	}
}

func (g *Generator) unavailable(ctx context.Context, span tracer.Span, report *models.Report, section string, flag models.Flag, err error) {
	report.Flags = append(report.Flags, flag)
	span.AddEvent(tracer.EventSectionUnavailable, tracer.String(tracer.AttrSection, section))
	g.metrics.IncrementSectionUnavailable(section)
	g.logger.WarnContext(ctx, "report section unavailable",
		"standard", string(report.Standard),
		"section", section,
		"error", err,
	)
}
