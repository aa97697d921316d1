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

	"auditwatch/internal/compliance/handler/mocks"
	"auditwatch/internal/compliance/models"
	"auditwatch/internal/compliance/service"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	adminmw "auditwatch/pkg/platform/middleware/admin"
)

const adminToken = "secret-token"

var now = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

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
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(s.service, logger)
	h.now = func() time.Time { return now }
	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(adminToken, logger))
		h.RegisterAdmin(r)
	})
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
	req.Header.Set(adminmw.HeaderAdminToken, adminToken)
	req.Header.Set(adminmw.HeaderActorID, "compliance-officer")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func sampleRequirement() *models.Requirement {
	req, _ := models.NewRequirement(id.NewRequirementID(), models.Draft{
		Standard:  id.StandardGDPR,
		Reference: "Art. 33",
		Details: models.Details{
			Title:     "Breach notification",
			Priority:  models.PriorityCritical,
			Frequency: models.FrequencyMonthly,
		},
	}, now.AddDate(0, -2, 0))
	return req
}

func (s *HandlerSuite) TestUpsertCreates() {
	req := sampleRequirement()
	s.service.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd service.UpsertCommand) (*models.Requirement, bool, error) {
			s.Equal(id.StandardGDPR, cmd.Standard)
			s.Equal("Art. 33", cmd.Reference)
			s.Equal(models.PriorityCritical, cmd.Priority)
			s.Equal(models.FrequencyQuarterly, cmd.Frequency)
			s.Equal(models.RiskHigh, cmd.Risk.Level)
			s.Equal([]string{"POL-1"}, cmd.PolicyRefs)
			s.Equal("compliance-officer", cmd.Actor)
			return req, true, nil
		})

	rec := s.do(http.MethodPut, "/admin/requirements",
		`{"standard":"gdpr","reference":" Art. 33 ","title":"Breach notification","priority":"critical",
		  "review_frequency":"quarterly","risk":{"level":"high"},"policy_refs":["POL-1"," POL-1"]}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp RequirementResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(req.ID.String(), resp.ID)
	s.Equal("NOT_IMPLEMENTED", resp.Status)
	s.True(resp.ReviewOverdue, "monthly review scheduled two months ago")
	s.NotNil(resp.EvidenceRefs)
}

func (s *HandlerSuite) TestUpsertUpdateIsOK() {
	s.service.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(sampleRequirement(), false, nil)
	rec := s.do(http.MethodPut, "/admin/requirements", `{"standard":"GDPR","reference":"Art. 33","title":"x","priority":"LOW"}`)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestUpsertValidation() {
	rec := s.do(http.MethodPut, "/admin/requirements", `{"standard":"GDPR","reference":"Art. 33","title":"  ","priority":"LOW"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "title is required")

	rec = s.do(http.MethodPut, "/admin/requirements", `{"standard":"NIST","reference":"AC-2","title":"x","priority":"LOW"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "unknown standard")

	rec = s.do(http.MethodPut, "/admin/requirements", `{"standard":"GDPR","reference":"AC-2","title":"x","priority":"URGENT"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestUpsertStatusChangeIsConflict() {
	s.service.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		Return(nil, false, dErrors.New(dErrors.CodeInvalidTransition, "status changes go through transition"))
	rec := s.do(http.MethodPut, "/admin/requirements",
		`{"standard":"GDPR","reference":"Art. 33","title":"x","priority":"LOW","status":"VERIFIED"}`)
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(rec.Body.String(), "invalid_transition")
}

func (s *HandlerSuite) TestAdminTokenRequired() {
	req := httptest.NewRequest(http.MethodPut, "/admin/requirements", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestTransition() {
	req := sampleRequirement()
	s.service.EXPECT().Transition(gomock.Any(), req.ID, models.StatusInProgress, "compliance-officer").Return(req, nil)

	rec := s.do(http.MethodPost, "/admin/requirements/"+req.ID.String()+"/transition", `{"status":"in_progress"}`)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/admin/requirements/"+req.ID.String()+"/transition", `{"status":"DONE"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestReview() {
	req := sampleRequirement()
	at := now.Add(-time.Hour)
	s.service.EXPECT().MarkReviewed(gomock.Any(), req.ID, time.Time{}, "compliance-officer").Return(req, nil)
	s.service.EXPECT().MarkReviewed(gomock.Any(), req.ID, at, "compliance-officer").Return(req, nil)

	rec := s.do(http.MethodPost, "/admin/requirements/"+req.ID.String()+"/review", "")
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/admin/requirements/"+req.ID.String()+"/review", `{"reviewed_at":"`+at.Format(time.RFC3339)+`"}`)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) TestGet() {
	req := sampleRequirement()
	s.service.EXPECT().Get(gomock.Any(), req.ID).Return(req, nil)
	rec := s.do(http.MethodGet, "/v1/requirements/"+req.ID.String(), "")
	s.Equal(http.StatusOK, rec.Code)

	missing := id.NewRequirementID()
	s.service.EXPECT().Get(gomock.Any(), missing).Return(nil, dErrors.New(dErrors.CodeNotFound, "requirement not found"))
	rec = s.do(http.MethodGet, "/v1/requirements/"+missing.String(), "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/v1/requirements/not-a-uuid", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestListParsesFilter() {
	s.service.EXPECT().List(gomock.Any(), models.RequirementFilter{
		Standard: id.StandardHIPAA,
		Status:   models.StatusImplemented,
		Priority: models.PriorityHigh,
		Category: "technical",
		Limit:    5,
	}).Return([]*models.Requirement{sampleRequirement()}, nil)

	rec := s.do(http.MethodGet, "/v1/requirements?standard=hipaa&status=implemented&priority=high&category=technical&limit=5", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp RequirementListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(1, resp.Count)

	rec = s.do(http.MethodGet, "/v1/requirements?limit=-1", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}
