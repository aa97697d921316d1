package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"auditwatch/internal/audit/models"
	"auditwatch/internal/audit/service"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	"auditwatch/pkg/platform/httputil"
	"auditwatch/pkg/requestcontext"
)

// Service defines the event store operations exposed to transports.
type Service interface {
	Record(ctx context.Context, cmd service.RecordCommand) (*models.AuditEvent, error)
	Query(ctx context.Context, filter models.EventFilter) ([]*models.AuditEvent, error)
	Get(ctx context.Context, eventID id.EventID) (*models.AuditEvent, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/audit/events", h.HandleRecord)
	r.Get("/v1/audit/events", h.HandleQuery)
	r.Get("/v1/audit/events/{id}", h.HandleGet)
}

// HandleRecord appends one event. Origin address and client descriptor
// default to what the metadata middleware resolved for the request.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RecordEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if cmd.Origin.Address == "" {
		cmd.Origin.Address = requestcontext.ClientIP(ctx)
	}
	if cmd.Origin.ClientDescriptor == "" {
		cmd.Origin.ClientDescriptor = requestcontext.ClientDescriptor(ctx)
	}

	event, err := h.service.Record(ctx, cmd)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "record audit event failed", "error", err, "request_id", requestID)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEventResponse(event))
}

// HandleQuery returns events newest first.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.service.Query(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "query audit events failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}

	resp := &EventListResponse{Events: make([]*EventResponse, len(events)), Count: len(events)}
	for i, e := range events {
		resp.Events[i] = toEventResponse(e)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	event, err := h.service.Get(ctx, eventID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "get audit event failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
				"event_id", eventID.String(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventResponse(event))
}

func parseFilter(r *http.Request) (models.EventFilter, error) {
	q := r.URL.Query()
	filter := models.EventFilter{
		ActorID:      q.Get("actor_id"),
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
	}
	var err error
	if v := q.Get("from"); v != "" {
		if filter.From, err = time.Parse(time.RFC3339, v); err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "from must be RFC3339")
		}
	}
	if v := q.Get("to"); v != "" {
		if filter.To, err = time.Parse(time.RFC3339, v); err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "to must be RFC3339")
		}
	}
	if v := q.Get("outcome"); v != "" {
		if filter.Outcome, err = models.ParseOutcome(v); err != nil {
			return filter, err
		}
	}
	if v := q.Get("sensitivity"); v != "" {
		if filter.Sensitivity, err = models.ParseSensitivity(v); err != nil {
			return filter, err
		}
	}
	if v := q.Get("standard"); v != "" {
		if filter.Standard, err = id.ParseStandard(v); err != nil {
			return filter, err
		}
	}
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 0 {
			return filter, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
	}
	return filter, nil
}
