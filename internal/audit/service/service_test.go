package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,PatternObserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"auditwatch/internal/audit/models"
	"auditwatch/internal/audit/service/mocks"
	"auditwatch/internal/audit/store"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
)

type RecorderSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	observer *mocks.MockPatternObserver
	store    *store.InMemoryStore
	recorder *Recorder
	now      time.Time
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.observer = mocks.NewMockPatternObserver(s.ctrl)
	s.store = store.NewInMemoryStore()
	s.now = time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)
	s.recorder = New(s.store,
		WithPatternObserver(s.observer),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *RecorderSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RecorderSuite) command() RecordCommand {
	return RecordCommand{
		Timestamp:   s.now.Add(-time.Minute),
		Actor:       models.Actor{ID: "clerk-3", Role: "billing"},
		Action:      "read",
		Resource:    models.Resource{Type: "invoice", ID: "inv-77"},
		Outcome:     models.OutcomeSuccess,
		Sensitivity: models.SensitivityConfidential,
		Standards:   []id.Standard{id.StandardPCIDSS},
	}
}

func (s *RecorderSuite) TestRecordAppendsThenObserves() {
	var observed *models.AuditEvent
	s.observer.EXPECT().Observe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *models.AuditEvent) ([]models.Flag, error) {
			// the event must already be visible to readers
			got, err := s.store.FindByID(s.ctx, e.ID)
			s.Require().NoError(err)
			observed = got
			return nil, nil
		})

	e, err := s.recorder.Record(s.ctx, s.command())
	s.Require().NoError(err)
	s.False(e.ID.IsNil(), "missing id is generated")
	s.Equal(int64(1), e.Sequence)
	s.Equal(s.now, e.RecordedAt)
	s.Equal(models.RiskMedium, e.Risk)
	s.Require().NotNil(observed)
	s.Equal(e.ID, observed.ID)
}

func (s *RecorderSuite) TestValidationErrorStoresNothing() {
	cmd := s.command()
	cmd.Actor.ID = ""

	_, err := s.recorder.Record(s.ctx, cmd)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *RecorderSuite) TestMonitorFailureDoesNotFailRecord() {
	s.observer.EXPECT().Observe(gomock.Any(), gomock.Any()).
		Return([]models.Flag{{Type: models.FlagRepeatedAccessFailure}}, dErrors.New(dErrors.CodeInternal, "incident store down"))

	e, err := s.recorder.Record(s.ctx, s.command())
	s.Require().NoError(err)
	s.NotNil(e)
}

func (s *RecorderSuite) TestDuplicateIDIsConflictAndNotReobserved() {
	cmd := s.command()
	cmd.ID = id.NewEventID()
	s.observer.EXPECT().Observe(gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)

	_, err := s.recorder.Record(s.ctx, cmd)
	s.Require().NoError(err)

	_, err = s.recorder.Record(s.ctx, cmd)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *RecorderSuite) TestStoreErrorsAreTranslated() {
	mockStore := mocks.NewMockStore(s.ctrl)
	r := New(mockStore)

	mockStore.EXPECT().Append(gomock.Any(), gomock.Any()).Return(assertErr)
	_, err := r.Record(s.ctx, s.command())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	missing := id.NewEventID()
	mockStore.EXPECT().FindByID(gomock.Any(), missing).Return(nil, sentinel.ErrNotFound)
	_, err = r.Get(s.ctx, missing)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	mockStore.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, assertErr)
	_, err = r.Query(s.ctx, models.EventFilter{})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = r.Get(s.ctx, id.EventID{})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *RecorderSuite) TestQueryFiltersAndInvertedRange() {
	s.observer.EXPECT().Observe(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	for i := range 3 {
		cmd := s.command()
		cmd.Timestamp = s.now.Add(time.Duration(-i) * time.Hour)
		_, err := s.recorder.Record(s.ctx, cmd)
		s.Require().NoError(err)
	}

	got, err := s.recorder.Query(s.ctx, models.EventFilter{From: s.now.Add(-90 * time.Minute)})
	s.Require().NoError(err)
	s.Len(got, 2)

	got, err = s.recorder.Query(s.ctx, models.EventFilter{From: s.now, To: s.now.Add(-time.Hour)})
	s.Require().NoError(err)
	s.Empty(got)

	got, err = s.recorder.Query(s.ctx, models.EventFilter{Limit: -1})
	s.Require().NoError(err)
	s.Len(got, 3)
}

var assertErr = errors.New("db down")
