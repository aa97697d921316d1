package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"auditwatch/internal/incident/models"
	"auditwatch/internal/incident/service"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	"auditwatch/pkg/platform/httputil"
	"auditwatch/pkg/requestcontext"
)

// Service defines the incident operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, cmd service.CreateCommand) (*models.Incident, error)
	Get(ctx context.Context, incidentID id.IncidentID) (*models.Incident, error)
	List(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
	Transition(ctx context.Context, incidentID id.IncidentID, next models.Status, actor string) (*models.Incident, error)
	Escalate(ctx context.Context, incidentID id.IncidentID, next models.Severity, actor string) (*models.Incident, error)
	OverrideSeverity(ctx context.Context, incidentID id.IncidentID, next models.Severity, reason, actor string) (*models.Incident, error)
	SetResolution(ctx context.Context, incidentID id.IncidentID, cmd service.ResolutionCommand, actor string) (*models.Incident, error)
	AssignInvestigator(ctx context.Context, incidentID id.IncidentID, investigatorID, actor string) (*models.Incident, error)
	RecordActions(ctx context.Context, incidentID id.IncidentID, phase models.ActionPhase, actions []string, actor string) (*models.Incident, error)
	UpdateImpact(ctx context.Context, incidentID id.IncidentID, impact models.Impact, actor string) (*models.Incident, error)
	RecordAuthorityNotification(ctx context.Context, incidentID id.IncidentID, at time.Time, actor string) (*models.Incident, error)
	AddNote(ctx context.Context, incidentID id.IncidentID, text, actor string) (*models.Incident, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/incidents", h.HandleList)
	r.Get("/v1/incidents/{id}", h.HandleGet)
	r.Get("/v1/dispatch/{severity}", h.HandleDispatch)
}

// RegisterAdmin mounts the mutating endpoints; the caller guards them.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/incidents", h.HandleCreate)
	r.Post("/admin/incidents/{id}/transition", h.HandleTransition)
	r.Post("/admin/incidents/{id}/escalate", h.HandleEscalate)
	r.Post("/admin/incidents/{id}/override-severity", h.HandleOverrideSeverity)
	r.Put("/admin/incidents/{id}/resolution", h.HandleSetResolution)
	r.Put("/admin/incidents/{id}/investigator", h.HandleAssignInvestigator)
	r.Post("/admin/incidents/{id}/actions", h.HandleRecordActions)
	r.Put("/admin/incidents/{id}/impact", h.HandleUpdateImpact)
	r.Post("/admin/incidents/{id}/authorities-notified", h.HandleAuthorityNotification)
	r.Post("/admin/incidents/{id}/notes", h.HandleAddNote)
}

// HandleCreate opens an incident manually and dispatches its response bundle.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateIncidentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	cmd, err := req.ToCommand(httputil.ActorFromContext(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	inc, err := h.service.Create(ctx, cmd)
	if err != nil {
		h.logger.ErrorContext(ctx, "create incident failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIncidentResponse(inc))
}

// HandleList returns incidents newest first, filtered by query parameters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	incidents, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list incidents failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	resp := &IncidentListResponse{Incidents: make([]*IncidentResponse, len(incidents)), Count: len(incidents)}
	for i, inc := range incidents {
		resp.Incidents[i] = toIncidentResponse(inc)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := parseIncidentID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, "get incident failed", incidentID, func(ctx context.Context, _ string) (*models.Incident, error) {
		return h.service.Get(ctx, incidentID)
	})
}

// HandleDispatch returns the response bundle a severity triggers.
func (h *Handler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	severity, err := models.ParseSeverity(chi.URLParam(r, "severity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDispatchResponse(models.DispatchResponse(severity)))
}

func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := parseIncidentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	next, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, "transition incident failed", incidentID, func(ctx context.Context, actor string) (*models.Incident, error) {
		return h.service.Transition(ctx, incidentID, next, actor)
	})
}

func (h *Handler) HandleEscalate(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := parseIncidentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[EscalateRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	next, err := models.ParseSeverity(req.Severity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, "escalate incident failed", incidentID, func(ctx context.Context, actor string) (*models.Incident, error) {
		return h.service.Escalate(ctx, incidentID, next, actor)
	})
}

// HandleOverrideSeverity changes severity in either direction; a reason is mandatory.
func (h *Handler) HandleOverrideSeverity(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := parseIncidentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[OverrideSeverityRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	next, err := models.ParseSeverity(req.Severity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, "override severity failed", incidentID, func(ctx context.Context, actor string) (*models.Incident, error) {
		return h.service.OverrideSeverity(ctx, incidentID, next, req.Reason, actor)
	})
}

func (h *Handler) HandleSetResolution(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := parseIncidentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResolutionRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	cmd := service.ResolutionCommand{
		Resolution:         req.Resolution,
		RootCause:          req.RootCause,
		PreventiveMeasures: req.PreventiveMeasures,
	}
	h.respond(w, r, "set resolution failed", incidentID, func(ctx context.Context, actor string) (*models.Incident, error) {
		return h.service.SetResolution(ctx, incidentID, cmd, actor)
	})
}

func (h *Handler) HandleAssignInvestigator(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := parseIncidentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssignInvestigatorRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	h.respond(w, r, "assign investigator failed", incidentID, func(ctx context.Context, actor string) (*models.Incident, error) {
		return h.service.AssignInvestigator(ctx, incidentID, req.InvestigatorID, actor)
	})
}

func (h *Handler) HandleRecordActions(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := parseIncidentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RecordActionsRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	phase, err := models.ParseActionPhase(req.Phase)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, "record actions failed", incidentID, func(ctx context.Context, actor string) (*models.Incident, error) {
		return h.service.RecordActions(ctx, incidentID, phase, req.Actions, actor)
	})
}

func (h *Handler) HandleUpdateImpact(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := parseIncidentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ImpactRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	impact := models.Impact{AffectedActors: req.AffectedActors, AffectedRecords: req.AffectedRecords}
	h.respond(w, r, "update impact failed", incidentID, func(ctx context.Context, actor string) (*models.Incident, error) {
		return h.service.UpdateImpact(ctx, incidentID, impact, actor)
	})
}

// HandleAuthorityNotification records that regulators were notified. It may
// be recorded once per incident.
func (h *Handler) HandleAuthorityNotification(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := parseIncidentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AuthorityNotificationRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	h.respond(w, r, "record authority notification failed", incidentID, func(ctx context.Context, actor string) (*models.Incident, error) {
		return h.service.RecordAuthorityNotification(ctx, incidentID, req.NotifiedAt, actor)
	})
}

func (h *Handler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := parseIncidentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[NoteRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	h.respond(w, r, "add note failed", incidentID, func(ctx context.Context, actor string) (*models.Incident, error) {
		return h.service.AddNote(ctx, incidentID, req.Text, actor)
	})
}

// respond runs op with the calling admin as actor and writes the incident.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, failure string, incidentID id.IncidentID, op func(ctx context.Context, actor string) (*models.Incident, error)) {
	ctx := r.Context()
	inc, err := op(ctx, httputil.ActorFromContext(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, failure,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
			"incident_id", incidentID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIncidentResponse(inc))
}

func parseIncidentID(w http.ResponseWriter, r *http.Request) (id.IncidentID, bool) {
	incidentID, err := id.ParseIncidentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid incident id"))
		return id.IncidentID{}, false
	}
	return incidentID, true
}

func parseFilter(r *http.Request) (models.IncidentFilter, error) {
	q := r.URL.Query()
	var (
		filter models.IncidentFilter
		err    error
	)
	if v := q.Get("status"); v != "" {
		if filter.Status, err = models.ParseStatus(v); err != nil {
			return filter, err
		}
	}
	if v := q.Get("severity"); v != "" {
		if filter.Severity, err = models.ParseSeverity(v); err != nil {
			return filter, err
		}
	}
	if v := q.Get("type"); v != "" {
		if filter.Type, err = models.ParseIncidentType(v); err != nil {
			return filter, err
		}
	}
	if v := q.Get("standard"); v != "" {
		if filter.Standard, err = id.ParseStandard(v); err != nil {
			return filter, err
		}
	}
	if v := q.Get("from"); v != "" {
		if filter.DetectedFrom, err = time.Parse(time.RFC3339, v); err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "from must be RFC3339")
		}
	}
	if v := q.Get("to"); v != "" {
		if filter.DetectedTo, err = time.Parse(time.RFC3339, v); err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "to must be RFC3339")
		}
	}
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 0 {
			return filter, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
	}
	return filter, nil
}
