package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"auditwatch/internal/audit/handler/mocks"
	"auditwatch/internal/audit/models"
	"auditwatch/internal/audit/service"
	"auditwatch/internal/platform/kafka/consumer"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
)

// IngestHandlerSuite covers the commit-or-redeliver decision for each
// kind of message.
type IngestHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	handler *IngestHandler
	ctx     context.Context
}

func TestIngestHandlerSuite(t *testing.T) {
	suite.Run(t, new(IngestHandlerSuite))
}

func (s *IngestHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.handler = NewIngestHandler(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	s.ctx = context.Background()
}

func (s *IngestHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

const payload = `{"timestamp":"2026-02-01T02:00:00Z","actor_id":"nurse-12","action":"read",
	"resource_type":"patient_record","resource_id":"p-1","outcome":"FAILURE","sensitivity":"PROTECTED"}`

func (s *IngestHandlerSuite) TestKeyBecomesEventID() {
	eventID := id.NewEventID()
	s.service.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd service.RecordCommand) (*models.AuditEvent, error) {
			s.Equal(eventID, cmd.ID)
			s.Equal(models.OutcomeFailure, cmd.Outcome)
			s.Equal("nurse-12", cmd.Actor.ID)
			return &models.AuditEvent{ID: eventID}, nil
		})

	err := s.handler.Handle(s.ctx, &consumer.Message{Key: []byte(eventID.String()), Value: []byte(payload)})
	s.NoError(err)
}

func (s *IngestHandlerSuite) TestMalformedMessagesCommit() {
	s.NoError(s.handler.Handle(s.ctx, &consumer.Message{Key: []byte("not-a-uuid"), Value: []byte(payload)}))
	s.NoError(s.handler.Handle(s.ctx, &consumer.Message{Key: []byte(id.NewEventID().String()), Value: []byte(`{`)}))
	s.NoError(s.handler.Handle(s.ctx, &consumer.Message{
		Key:   []byte(id.NewEventID().String()),
		Value: []byte(`{"outcome":"MAYBE"}`),
	}))
}

func (s *IngestHandlerSuite) TestPermanentRecordErrorsCommit() {
	s.service.EXPECT().Record(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "audit event already recorded"))
	s.NoError(s.handler.Handle(s.ctx, &consumer.Message{Key: []byte(id.NewEventID().String()), Value: []byte(payload)}))

	s.service.EXPECT().Record(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValidation, "actor id is required"))
	s.NoError(s.handler.Handle(s.ctx, &consumer.Message{Key: []byte(id.NewEventID().String()), Value: []byte(payload)}))
}

func (s *IngestHandlerSuite) TestStoreFailureRedelivers() {
	s.service.EXPECT().Record(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Wrap(errors.New("db down"), dErrors.CodeInternal, "failed to append audit event"))

	err := s.handler.Handle(s.ctx, &consumer.Message{Key: []byte(id.NewEventID().String()), Value: []byte(payload)})
	s.Error(err)
}
