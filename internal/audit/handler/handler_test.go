package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"auditwatch/internal/audit/handler/mocks"
	"auditwatch/internal/audit/models"
	"auditwatch/internal/audit/service"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	"auditwatch/pkg/platform/middleware/metadata"
)

const firefox = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0"

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Use(metadata.NewMiddleware(nil).Handler)
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.9:51234"
	req.Header.Set("User-Agent", firefox)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func sampleEvent() *models.AuditEvent {
	e, _ := models.NewAuditEvent(models.NewEventParams{
		ID:          id.NewEventID(),
		Timestamp:   time.Date(2026, 2, 1, 2, 0, 0, 0, time.UTC),
		RecordedAt:  time.Date(2026, 2, 1, 2, 0, 1, 0, time.UTC),
		Actor:       models.Actor{ID: "nurse-12"},
		Action:      "read",
		Resource:    models.Resource{Type: "patient_record", ID: "p-1"},
		Outcome:     models.OutcomeSuccess,
		Sensitivity: models.SensitivityProtected,
		Standards:   []id.Standard{id.StandardHIPAA},
	})
	return e
}

func (s *HandlerSuite) TestRecordFillsOriginFromRequest() {
	e := sampleEvent()
	s.service.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd service.RecordCommand) (*models.AuditEvent, error) {
			s.Equal("203.0.113.9", cmd.Origin.Address)
			s.Equal(metadata.DescribeClient(firefox), cmd.Origin.ClientDescriptor)
			s.Equal(models.OutcomeSuccess, cmd.Outcome)
			s.Equal(models.SensitivityProtected, cmd.Sensitivity)
			s.Equal([]id.Standard{id.StandardHIPAA}, cmd.Standards)
			s.Equal("nurse-12", cmd.Actor.ID)
			return e, nil
		})

	rec := s.do(http.MethodPost, "/v1/audit/events", `{
		"timestamp":"2026-02-01T02:00:00Z","actor_id":" nurse-12 ","action":"read",
		"resource_type":"patient_record","resource_id":"p-1","outcome":"success",
		"sensitivity":"protected","standards":["hipaa","HIPAA"]}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp EventResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(e.ID.String(), resp.ID)
	s.Equal("MEDIUM", resp.Risk)
	s.Equal([]string{"HIPAA"}, resp.Standards)
}

func (s *HandlerSuite) TestRecordKeepsCallerOrigin() {
	s.service.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd service.RecordCommand) (*models.AuditEvent, error) {
			s.Equal("10.0.0.7", cmd.Origin.Address)
			s.Equal("billing-batch", cmd.Origin.ClientDescriptor)
			return sampleEvent(), nil
		})
	rec := s.do(http.MethodPost, "/v1/audit/events",
		`{"timestamp":"2026-02-01T02:00:00Z","actor_id":"a","action":"read","resource_type":"r","resource_id":"1",
		  "outcome":"SUCCESS","origin_address":"10.0.0.7","client_descriptor":"billing-batch"}`)
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *HandlerSuite) TestRecordRejectsUnknownEnums() {
	rec := s.do(http.MethodPost, "/v1/audit/events", `{"actor_id":"a","outcome":"MAYBE"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "unknown outcome")

	rec = s.do(http.MethodPost, "/v1/audit/events", `{"actor_id":"a","outcome":"SUCCESS","standards":["NIST"]}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestRecordValidationAndConflict() {
	s.service.EXPECT().Record(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValidation, "actor id is required"))
	rec := s.do(http.MethodPost, "/v1/audit/events", `{"action":"read","outcome":"SUCCESS"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "actor id is required")

	s.service.EXPECT().Record(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "audit event already recorded"))
	rec = s.do(http.MethodPost, "/v1/audit/events", `{"id":"`+id.NewEventID().String()+`","action":"read","outcome":"SUCCESS"}`)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlerSuite) TestQueryParsesFilter() {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.service.EXPECT().Query(gomock.Any(), models.EventFilter{
		From:        from,
		ActorID:     "nurse-12",
		Outcome:     models.OutcomeDenied,
		Sensitivity: models.SensitivityRestricted,
		Standard:    id.StandardGDPR,
		Limit:       10,
	}).Return([]*models.AuditEvent{sampleEvent()}, nil)

	rec := s.do(http.MethodGet, "/v1/audit/events?from=2026-01-01T00:00:00Z&actor_id=nurse-12&outcome=denied&sensitivity=restricted&standard=gdpr&limit=10", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp EventListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(1, resp.Count)

	rec = s.do(http.MethodGet, "/v1/audit/events?to=noon", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestGet() {
	e := sampleEvent()
	s.service.EXPECT().Get(gomock.Any(), e.ID).Return(e, nil)
	rec := s.do(http.MethodGet, "/v1/audit/events/"+e.ID.String(), "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/v1/audit/events/42", "")
	s.Equal(http.StatusBadRequest, rec.Code)

	missing := id.NewEventID()
	s.service.EXPECT().Get(gomock.Any(), missing).Return(nil, dErrors.New(dErrors.CodeNotFound, "audit event not found"))
	rec = s.do(http.MethodGet, "/v1/audit/events/"+missing.String(), "")
	s.Equal(http.StatusNotFound, rec.Code)
}
