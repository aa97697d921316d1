package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	auditmodels "auditwatch/internal/audit/models"
	"auditwatch/internal/audit/monitor"
	"auditwatch/internal/incident/models"
	"auditwatch/internal/incident/service/mocks"
	"auditwatch/internal/incident/store"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	"auditwatch/pkg/testutil"
)

type ManagerSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	notifier *mocks.MockNotifier
	store    *store.InMemoryStore
	manager  *Manager
	now      time.Time
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.store = store.NewInMemoryStore()
	s.now = time.Date(2026, 3, 3, 2, 5, 0, 0, time.UTC)
	s.manager = New(s.store,
		WithNotifier(s.notifier),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *ManagerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ManagerSuite) flag(t auditmodels.FlagType, at time.Time) auditmodels.Flag {
	return auditmodels.Flag{
		Type:         t,
		EventID:      id.NewEventID(),
		ActorID:      "nurse-12",
		ResourceType: "patient_record",
		OccurredAt:   at,
		Sensitivity:  auditmodels.SensitivityProtected,
		Standards:    []id.Standard{id.StandardHIPAA},
	}
}

func (s *ManagerSuite) failure(at time.Time) *auditmodels.AuditEvent {
	e, err := auditmodels.NewAuditEvent(auditmodels.NewEventParams{
		ID:          id.NewEventID(),
		Timestamp:   at,
		Actor:       auditmodels.Actor{ID: "clerk-3"},
		Action:      "read",
		Resource:    auditmodels.Resource{Type: "cardholder_data", ID: "card-1"},
		Outcome:     auditmodels.OutcomeDenied,
		Sensitivity: auditmodels.SensitivityConfidential,
		Standards:   []id.Standard{id.StandardPCIDSS},
	})
	s.Require().NoError(err)
	return e
}

func (s *ManagerSuite) openManual(sev models.Severity) *models.Incident {
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
	inc, err := s.manager.Create(s.ctx, CreateCommand{
		Title:    "Laptop with exports stolen",
		Type:     models.TypeDataBreach,
		Severity: sev,
		Actor:    "sec-admin",
	})
	s.Require().NoError(err)
	return inc
}

func (s *ManagerSuite) TestAfterHoursFlagOpensMediumIncident() {
	var sent models.Notification
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n models.Notification) error {
			sent = n
			return nil
		})

	inc, err := s.manager.EvaluateFlag(s.ctx, s.flag(auditmodels.FlagAfterHoursSensitiveAccess, s.now.Add(-5*time.Minute)))
	s.Require().NoError(err)

	s.Equal(models.TypeUnauthorizedAccess, inc.Type)
	s.Equal(models.SeverityMedium, inc.Severity)
	s.Equal(models.StatusOpen, inc.Status)
	s.Equal(ReporterPatternMonitor, inc.ReportedBy)
	s.Equal(s.now.Add(-5*time.Minute), inc.DetectedAt)
	s.Equal([]id.Standard{id.StandardHIPAA}, inc.StandardsImpacted)
	s.Equal([]string{"Document incident", "Assign investigator", "Schedule follow-up review"}, inc.ImmediateActions)
	s.Equal("INC-000001", inc.DisplayNumber())

	s.Equal(models.TriggerCreated, sent.Trigger)
	s.Equal(models.DispatchResponse(models.SeverityMedium).Actions, sent.Actions)
}

// TestSixFailuresOpenOneHighIncident drives the monitor end to end: the sixth
// denial inside fifteen minutes opens a HIGH incident and the seventh lands
// on it as a note.
func (s *ManagerSuite) TestSixFailuresOpenOneHighIncident() {
	var sent []models.Notification
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n models.Notification) error {
			sent = append(sent, n)
			return nil
		}).AnyTimes()

	mon, err := monitor.New(monitor.NewInMemoryWindowStore(15*time.Minute), monitor.WithFlagHandler(s.manager))
	s.Require().NoError(err)

	start := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	for i := range 7 {
		_, err := mon.Observe(s.ctx, s.failure(start.Add(time.Duration(i)*time.Minute)))
		s.Require().NoError(err)
	}

	incidents, err := s.manager.List(s.ctx, models.IncidentFilter{})
	s.Require().NoError(err)
	s.Require().Len(incidents, 1)
	inc := incidents[0]
	s.Equal(models.SeverityHigh, inc.Severity)
	s.Equal([]string{"Notify management", "Allocate investigator", "Coordinate response"}, inc.ImmediateActions)
	s.Len(inc.Notes, 2, "seventh failure is recorded on the same incident")
	s.Equal(start.Add(6*time.Minute), inc.LastFlaggedAt)
	s.Require().Len(sent, 1)
	s.Equal(models.SeverityHigh, sent[0].Severity)
}

// TestConcurrentFlagsDeduplicate verifies that racing flags for one pattern
// never open two incidents.
func (s *ManagerSuite) TestConcurrentFlagsDeduplicate() {
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	result := testutil.RunConcurrent(2, func(idx int) error {
		_, err := s.manager.EvaluateFlag(s.ctx, s.flag(auditmodels.FlagAfterHoursSensitiveAccess, s.now.Add(time.Duration(idx)*time.Second)))
		return err
	})
	s.Equal(int32(2), result.Successes)

	incidents, err := s.store.List(s.ctx, models.IncidentFilter{})
	s.Require().NoError(err)
	s.Require().Len(incidents, 1)
	s.Len(incidents[0].Notes, 2)
}

func (s *ManagerSuite) TestFlagOutsideWindowOpensNewIncident() {
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	first, err := s.manager.EvaluateFlag(s.ctx, s.flag(auditmodels.FlagAfterHoursSensitiveAccess, s.now))
	s.Require().NoError(err)
	second, err := s.manager.EvaluateFlag(s.ctx, s.flag(auditmodels.FlagAfterHoursSensitiveAccess, s.now.Add(16*time.Minute)))
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)
}

func (s *ManagerSuite) TestResolvedIncidentIsNotReused() {
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	first, err := s.manager.EvaluateFlag(s.ctx, s.flag(auditmodels.FlagAfterHoursSensitiveAccess, s.now))
	s.Require().NoError(err)
	_, err = s.manager.Transition(s.ctx, first.ID, models.StatusInvestigating, "sec-7")
	s.Require().NoError(err)
	_, err = s.manager.Transition(s.ctx, first.ID, models.StatusResolved, "sec-7")
	s.Require().NoError(err)

	second, err := s.manager.EvaluateFlag(s.ctx, s.flag(auditmodels.FlagAfterHoursSensitiveAccess, s.now.Add(time.Minute)))
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)
}

func (s *ManagerSuite) TestUnknownFlagIsRejected() {
	_, err := s.manager.EvaluateFlag(s.ctx, s.flag("ODD_BEHAVIOUR", s.now))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// TestCloseRequiresResolution walks the lifecycle through the manager and
// checks the close gate.
func (s *ManagerSuite) TestCloseRequiresResolution() {
	inc := s.openManual(models.SeverityLow)

	_, err := s.manager.Transition(s.ctx, inc.ID, models.StatusResolved, "sec-7")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "no skipping")

	for _, next := range []models.Status{models.StatusInvestigating, models.StatusResolved} {
		_, err = s.manager.Transition(s.ctx, inc.ID, next, "sec-7")
		s.Require().NoError(err)
	}

	_, err = s.manager.Transition(s.ctx, inc.ID, models.StatusClosed, "sec-7")
	s.True(dErrors.HasCode(err, dErrors.CodeIncompleteResolution))

	_, err = s.manager.SetResolution(s.ctx, inc.ID, ResolutionCommand{
		Resolution:         "device wiped remotely",
		RootCause:          "unencrypted laptop",
		PreventiveMeasures: []string{"enforce disk encryption"},
	}, "sec-7")
	s.Require().NoError(err)

	closed, err := s.manager.Transition(s.ctx, inc.ID, models.StatusClosed, "sec-7")
	s.Require().NoError(err)
	s.NotNil(closed.ClosedAt)

	_, err = s.manager.AddNote(s.ctx, inc.ID, "too late", "sec-7")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *ManagerSuite) TestEscalateDispatchesNewBundle() {
	inc := s.openManual(models.SeverityHigh)

	var sent models.Notification
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n models.Notification) error {
			sent = n
			return nil
		})
	escalated, err := s.manager.Escalate(s.ctx, inc.ID, models.SeverityEmergency, "ciso")
	s.Require().NoError(err)
	s.Equal(models.SeverityEmergency, escalated.Severity)
	s.Equal(models.TriggerEscalated, sent.Trigger)
	s.Contains(escalated.ImmediateActions, "Notify regulatory authorities")

	_, err = s.manager.Escalate(s.ctx, inc.ID, models.SeverityCritical, "ciso")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidEscalation))
	_, err = s.manager.Escalate(s.ctx, inc.ID, models.SeverityEmergency, "ciso")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidEscalation), "same severity is not an escalation")
}

func (s *ManagerSuite) TestOverrideDownDoesNotDispatch() {
	inc := s.openManual(models.SeverityCritical)

	lowered, err := s.manager.OverrideSeverity(s.ctx, inc.ID, models.SeverityLow, "test data, not real exports", "ciso")
	s.Require().NoError(err)
	s.Equal(models.SeverityLow, lowered.Severity)
	s.Len(lowered.ImmediateActions, 3, "only the creation bundle")

	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
	raised, err := s.manager.OverrideSeverity(s.ctx, inc.ID, models.SeverityHigh, "exports confirmed", "ciso")
	s.Require().NoError(err)
	s.Len(raised.ImmediateActions, 6)
}

func (s *ManagerSuite) TestNotifierErrorDoesNotFailCreate() {
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(sentinel.ErrBufferFull)

	inc, err := s.manager.Create(s.ctx, CreateCommand{
		Title:    "Phishing campaign",
		Type:     models.TypeSocialEngineering,
		Severity: models.SeverityMedium,
	})
	s.Require().NoError(err)

	got, err := s.manager.Get(s.ctx, inc.ID)
	s.Require().NoError(err)
	s.Equal(inc.ID, got.ID)
}

func (s *ManagerSuite) TestAuxiliaryOperations() {
	inc := s.openManual(models.SeverityMedium)

	_, err := s.manager.AssignInvestigator(s.ctx, inc.ID, "sec-7", "lead")
	s.Require().NoError(err)
	_, err = s.manager.RecordActions(s.ctx, inc.ID, models.PhaseContainment, []string{"disable account"}, "sec-7")
	s.Require().NoError(err)
	_, err = s.manager.UpdateImpact(s.ctx, inc.ID, models.Impact{AffectedActors: 2, AffectedRecords: 120}, "sec-7")
	s.Require().NoError(err)
	_, err = s.manager.RecordAuthorityNotification(s.ctx, inc.ID, time.Time{}, "dpo")
	s.Require().NoError(err)
	_, err = s.manager.RecordAuthorityNotification(s.ctx, inc.ID, time.Time{}, "dpo")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	got, err := s.manager.Get(s.ctx, inc.ID)
	s.Require().NoError(err)
	s.Equal("sec-7", got.InvestigatorID)
	s.Equal([]string{"disable account"}, got.ContainmentActions)
	s.Equal(120, got.Impact.AffectedRecords)
	s.True(got.AuthoritiesNotified)
}

func (s *ManagerSuite) TestStoreErrorsAreTranslated() {
	mockStore := mocks.NewMockStore(s.ctrl)
	m := New(mockStore, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	missing := id.NewIncidentID()
	mockStore.EXPECT().FindByID(gomock.Any(), missing).Return(nil, sentinel.ErrNotFound)
	_, err := m.Transition(s.ctx, missing, models.StatusInvestigating, "sec-7")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	mockStore.EXPECT().FindActiveByPattern(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	_, err = m.EvaluateFlag(s.ctx, s.flag(auditmodels.FlagRepeatedAccessFailure, s.now))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = m.Get(s.ctx, id.IncidentID{})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
