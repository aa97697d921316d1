package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RequirementReader,IncidentReader,EventReader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	auditmodels "auditwatch/internal/audit/models"
	auditservice "auditwatch/internal/audit/service"
	auditstore "auditwatch/internal/audit/store"
	compliancemodels "auditwatch/internal/compliance/models"
	complianceservice "auditwatch/internal/compliance/service"
	compliancestore "auditwatch/internal/compliance/store"
	incidentmodels "auditwatch/internal/incident/models"
	incidentstore "auditwatch/internal/incident/store"
	"auditwatch/internal/platform/tracer"
	"auditwatch/internal/report/models"
	"auditwatch/internal/report/service/mocks"
	id "auditwatch/pkg/domain"
	"auditwatch/pkg/testutil"
)

type recordingTracer struct {
	mu     sync.Mutex
	spans  []string
	events []string
	attrs  map[string]any
}

func newRecordingTracer() *recordingTracer {
	return &recordingTracer{attrs: map[string]any{}}
}

func (t *recordingTracer) Start(ctx context.Context, name string, attrs ...tracer.Attribute) (context.Context, tracer.Span) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = append(t.spans, name)
	t.record(attrs)
	return ctx, &recordingSpan{t: t}
}

func (t *recordingTracer) record(attrs []tracer.Attribute) {
	for _, a := range attrs {
		t.attrs[a.Key] = a.Value
	}
}

type recordingSpan struct{ t *recordingTracer }

func (s *recordingSpan) End(error) {}

func (s *recordingSpan) SetAttributes(attrs ...tracer.Attribute) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	s.t.record(attrs)
}

func (s *recordingSpan) AddEvent(name string, _ ...tracer.Attribute) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	s.t.events = append(s.t.events, name)
}

type GeneratorSuite struct {
	suite.Suite
	ctx          context.Context
	ctrl         *gomock.Controller
	requirements *mocks.MockRequirementReader
	incidents    *mocks.MockIncidentReader
	events       *mocks.MockEventReader
	tracer       *recordingTracer
	generator    *Generator
	now          time.Time
	window       models.Window
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.requirements = mocks.NewMockRequirementReader(s.ctrl)
	s.incidents = mocks.NewMockIncidentReader(s.ctrl)
	s.events = mocks.NewMockEventReader(s.ctrl)
	s.tracer = newRecordingTracer()
	s.now = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
	s.window = models.Window{From: s.now.AddDate(0, -1, 0), To: s.now}
	s.generator = New(s.requirements, s.incidents, s.events,
		WithTracer(s.tracer),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *GeneratorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func requirement(ref string, status compliancemodels.Status, priority compliancemodels.Priority, nextReview time.Time) *compliancemodels.Requirement {
	return &compliancemodels.Requirement{
		ID:           id.NewRequirementID(),
		Standard:     id.StandardHIPAA,
		Reference:    ref,
		Status:       status,
		Priority:     priority,
		NextReviewAt: nextReview,
	}
}

func (s *GeneratorSuite) expectEmptyWindow() {
	s.incidents.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.events.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, nil)
}

func (s *GeneratorSuite) TestSevenOfTenIsPartiallyCompliant() {
	later := s.now.AddDate(0, 3, 0)
	var reqs []*compliancemodels.Requirement
	for i := range 10 {
		status := compliancemodels.StatusImplemented
		switch {
		case i >= 7:
			status = compliancemodels.StatusNotImplemented
		case i >= 5:
			status = compliancemodels.StatusVerified
		}
		reqs = append(reqs, requirement(string(rune('a'+i)), status, compliancemodels.PriorityMedium, later))
	}
	s.requirements.EXPECT().List(gomock.Any(), compliancemodels.RequirementFilter{Standard: id.StandardHIPAA}).Return(reqs, nil)
	s.expectEmptyWindow()

	r := s.generator.Generate(s.ctx, id.StandardHIPAA, s.window)
	s.Equal(70, r.ComplianceScore)
	s.Equal(models.StatusPartiallyCompliant, r.Status)
	s.Equal(10, r.Requirements.Total)
	s.Equal(7, r.Requirements.Fulfilled)
	s.Equal(map[string]int{"IMPLEMENTED": 5, "VERIFIED": 2, "NOT_IMPLEMENTED": 3}, r.Requirements.ByStatus)
	s.Zero(r.CriticalGaps)
	s.Empty(r.Flags)
	s.Equal(s.now, r.GeneratedAt)
}

func (s *GeneratorSuite) TestNoRequirementsDefined() {
	s.requirements.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.expectEmptyWindow()

	r := s.generator.Generate(s.ctx, id.StandardSOC2, s.window)
	s.Zero(r.ComplianceScore)
	s.Equal(models.StatusCriticallyNonCompliant, r.Status)
	s.Equal([]models.Flag{models.FlagNoRequirementsDefined}, r.Flags)
	s.Zero(r.CriticalGaps)
	s.NotNil(r.Requirements.CriticalGapRefs)
	s.False(r.Degraded())
}

func (s *GeneratorSuite) TestCriticalGapsAndOverdueReviews() {
	reqs := []*compliancemodels.Requirement{
		requirement("164.312(b)", compliancemodels.StatusNotImplemented, compliancemodels.PriorityCritical, s.now.Add(-time.Hour)),
		requirement("164.312(a)", compliancemodels.StatusInProgress, compliancemodels.PriorityCritical, s.now.Add(time.Hour)),
		requirement("164.308(a)", compliancemodels.StatusNotImplemented, compliancemodels.PriorityHigh, s.now.Add(-time.Hour)),
		requirement("164.310(d)", compliancemodels.StatusVerified, compliancemodels.PriorityCritical, s.now.Add(time.Hour)),
	}
	s.requirements.EXPECT().List(gomock.Any(), gomock.Any()).Return(reqs, nil)
	s.expectEmptyWindow()

	r := s.generator.Generate(s.ctx, id.StandardHIPAA, s.window)
	s.Equal(1, r.CriticalGaps)
	s.Equal([]string{"164.312(b)"}, r.Requirements.CriticalGapRefs)
	s.Equal(2, r.Requirements.OverdueReviews)
	s.Equal(25, r.ComplianceScore)
	s.Equal(map[string]int{"CRITICAL": 3, "HIGH": 1}, r.Requirements.ByPriority)
}

func (s *GeneratorSuite) TestIncidentAndEventSummaries() {
	s.requirements.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.incidents.EXPECT().List(gomock.Any(), incidentmodels.IncidentFilter{
		Standard:     id.StandardGDPR,
		DetectedFrom: s.window.From,
		DetectedTo:   s.window.To,
	}).Return([]*incidentmodels.Incident{
		{Severity: incidentmodels.SeverityHigh, Status: incidentmodels.StatusOpen},
		{Severity: incidentmodels.SeverityHigh, Status: incidentmodels.StatusInvestigating, AuthoritiesNotified: true},
		{Severity: incidentmodels.SeverityLow, Status: incidentmodels.StatusClosed},
	}, nil)
	s.events.EXPECT().Query(gomock.Any(), auditmodels.EventFilter{
		Standard: id.StandardGDPR,
		From:     s.window.From,
		To:       s.window.To,
	}).Return([]*auditmodels.AuditEvent{
		{Outcome: auditmodels.OutcomeSuccess, Sensitivity: auditmodels.SensitivityInternal, Risk: auditmodels.RiskLow},
		{Outcome: auditmodels.OutcomeFailure, Sensitivity: auditmodels.SensitivityProtected, Risk: auditmodels.RiskHigh},
		{Outcome: auditmodels.OutcomeDenied, Sensitivity: auditmodels.SensitivityProtected, Risk: auditmodels.RiskHigh},
		{Outcome: auditmodels.OutcomeDenied, Sensitivity: auditmodels.SensitivityConfidential, Risk: auditmodels.RiskMedium},
	}, nil)

	r := s.generator.Generate(s.ctx, id.StandardGDPR, s.window)
	s.Equal(3, r.Incidents.Total)
	s.Equal(2, r.Incidents.Open)
	s.Equal(1, r.Incidents.AuthoritiesNotified)
	s.Equal(map[string]int{"HIGH": 2, "LOW": 1}, r.Incidents.BySeverity)
	s.Equal(4, r.Events.Total)
	s.Equal(1, r.Events.Failures)
	s.Equal(2, r.Events.Denials)
	s.Equal(2, r.Events.HighRisk)
	s.Equal(2, r.Events.BySensitivity["PROTECTED"])
}

func (s *GeneratorSuite) TestFailingStoresDegradeSections() {
	down := errors.New("connection refused")
	s.requirements.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, down)
	s.incidents.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, down)
	s.events.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, down)

	r := s.generator.Generate(s.ctx, id.StandardPCIDSS, s.window)
	s.Require().NotNil(r)
	s.True(r.Degraded())
	s.Equal([]models.Flag{
		models.FlagRequirementsUnavailable,
		models.FlagIncidentsUnavailable,
		models.FlagEventsUnavailable,
	}, r.Flags)
	s.Zero(r.ComplianceScore)
	s.Zero(r.Incidents.Total)
	s.Zero(r.Events.Total)
	s.False(r.HasFlag(models.FlagNoRequirementsDefined), "unknown is not the same as none")

	s.Len(s.tracer.events, 3)
	s.Equal(true, s.tracer.attrs[tracer.AttrDegraded])
}

func (s *GeneratorSuite) TestInvertedWindowSkipsWindowedSections() {
	s.requirements.EXPECT().List(gomock.Any(), gomock.Any()).
		Return([]*compliancemodels.Requirement{requirement("a", compliancemodels.StatusVerified, compliancemodels.PriorityLow, s.now.Add(time.Hour))}, nil)

	r := s.generator.Generate(s.ctx, id.StandardHIPAA, models.Window{From: s.now, To: s.now.Add(-time.Hour)})
	s.Equal([]models.Flag{models.FlagInvalidWindow}, r.Flags)
	s.Equal(100, r.ComplianceScore)
	s.Equal(models.StatusCompliant, r.Status)
	s.Zero(r.Incidents.Total)
	s.Zero(r.Events.Total)
}

func (s *GeneratorSuite) TestSpans() {
	s.requirements.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.expectEmptyWindow()

	s.generator.Generate(s.ctx, id.StandardHIPAA, s.window)
	s.Equal([]string{
		tracer.SpanReportGenerate,
		tracer.SpanReportSection,
		tracer.SpanReportSection,
		tracer.SpanReportSection,
	}, s.tracer.spans)
	s.Equal("HIPAA", s.tracer.attrs[tracer.AttrStandard])
	s.Equal(0, s.tracer.attrs[tracer.AttrScore])
}

// TestWithInMemoryStores runs the generator over the real registry and stores.
func TestWithInMemoryStores(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := complianceservice.New(compliancestore.NewInMemoryStore(),
		complianceservice.WithLogger(discard),
		complianceservice.WithClock(func() time.Time { return now }),
	)
	for i := range 10 {
		b := testutil.NewRequirementBuilder(id.StandardHIPAA, fmt.Sprintf("164.312(%c)", 'a'+i))
		if i < 7 {
			b.WithStatus(compliancemodels.StatusImplemented)
		}
		_, _, err := registry.Upsert(ctx, b.Build())
		require.NoError(t, err)
	}

	events := auditstore.NewInMemoryStore()
	recorder := auditservice.New(events,
		auditservice.WithLogger(discard),
		auditservice.WithClock(func() time.Time { return now }),
	)
	_, err := recorder.Record(ctx, testutil.NewEventBuilder().
		At(now.Add(-time.Hour)).
		WithOutcome(auditmodels.OutcomeDenied).
		WithSensitivity(auditmodels.SensitivityProtected).
		WithStandards(id.StandardHIPAA).
		Build())
	require.NoError(t, err)
	_, err = recorder.Record(ctx, testutil.NewEventBuilder().At(now.Add(-time.Hour)).WithStandards(id.StandardGDPR).Build())
	require.NoError(t, err)

	g := New(registry, incidentstore.NewInMemoryStore(), recorder,
		WithLogger(discard),
		WithClock(func() time.Time { return now }),
	)
	r := g.Generate(ctx, id.StandardHIPAA, models.Window{From: now.AddDate(0, 0, -7), To: now})
	assert.Equal(t, 70, r.ComplianceScore)
	assert.Equal(t, models.StatusPartiallyCompliant, r.Status)
	assert.Equal(t, 1, r.Events.Total)
	assert.Equal(t, 1, r.Events.Denials)
	assert.Equal(t, 1, r.Events.HighRisk)
	assert.False(t, r.Degraded())
}
