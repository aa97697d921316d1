package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"auditwatch/internal/compliance/models"
	"auditwatch/internal/compliance/service"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	"auditwatch/pkg/platform/httputil"
	"auditwatch/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	Upsert(ctx context.Context, cmd service.UpsertCommand) (*models.Requirement, bool, error)
	Get(ctx context.Context, requirementID id.RequirementID) (*models.Requirement, error)
	List(ctx context.Context, filter models.RequirementFilter) ([]*models.Requirement, error)
	Transition(ctx context.Context, requirementID id.RequirementID, next models.Status, actor string) (*models.Requirement, error)
	MarkReviewed(ctx context.Context, requirementID id.RequirementID, at time.Time, actor string) (*models.Requirement, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
	now     func() time.Time
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger, now: time.Now}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/requirements", h.HandleList)
	r.Get("/v1/requirements/{id}", h.HandleGet)
}

// RegisterAdmin mounts the mutating endpoints; the caller guards them.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/admin/requirements", h.HandleUpsert)
	r.Post("/admin/requirements/{id}/transition", h.HandleTransition)
	r.Post("/admin/requirements/{id}/review", h.HandleReview)
}

// HandleUpsert creates a requirement (201) or updates its descriptive fields (200).
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpsertRequirementRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	cmd, err := req.ToCommand(httputil.ActorFromContext(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, created, err := h.service.Upsert(ctx, cmd)
	if err != nil {
		h.logger.ErrorContext(ctx, "upsert requirement failed",
			"error", err,
			"request_id", requestID,
			"standard", string(cmd.Standard),
			"reference", cmd.Reference,
		)
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, toRequirementResponse(result, h.now()))
}

// HandleList returns requirements ordered by standard and reference.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reqs, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list requirements failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}

	now := h.now()
	resp := &RequirementListResponse{Requirements: make([]*RequirementResponse, len(reqs)), Count: len(reqs)}
	for i, req := range reqs {
		resp.Requirements[i] = toRequirementResponse(req, now)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	requirementID, ok := parseRequirementID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, "get requirement failed", requirementID, func(ctx context.Context, _ string) (*models.Requirement, error) {
		return h.service.Get(ctx, requirementID)
	})
}

func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	requirementID, ok := parseRequirementID(w, r)
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
	h.respond(w, r, "transition requirement failed", requirementID, func(ctx context.Context, actor string) (*models.Requirement, error) {
		return h.service.Transition(ctx, requirementID, next, actor)
	})
}

// HandleReview records a review; an empty body means "reviewed now".
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	requirementID, ok := parseRequirementID(w, r)
	if !ok {
		return
	}
	var at time.Time
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
		if !ok {
			return
		}
		at = req.ReviewedAt
	}
	h.respond(w, r, "mark requirement reviewed failed", requirementID, func(ctx context.Context, actor string) (*models.Requirement, error) {
		return h.service.MarkReviewed(ctx, requirementID, at, actor)
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, failure string, requirementID id.RequirementID, op func(ctx context.Context, actor string) (*models.Requirement, error)) {
	ctx := r.Context()
	req, err := op(ctx, httputil.ActorFromContext(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, failure,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
			"requirement_id", requirementID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequirementResponse(req, h.now()))
}

func parseRequirementID(w http.ResponseWriter, r *http.Request) (id.RequirementID, bool) {
	requirementID, err := id.ParseRequirementID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid requirement id"))
		return id.RequirementID{}, false
	}
	return requirementID, true
}

func parseFilter(r *http.Request) (models.RequirementFilter, error) {
	q := r.URL.Query()
	var (
		filter models.RequirementFilter
		err    error
	)
	if v := q.Get("standard"); v != "" {
		if filter.Standard, err = id.ParseStandard(v); err != nil {
			return filter, err
		}
	}
	if v := q.Get("status"); v != "" {
		if filter.Status, err = models.ParseStatus(v); err != nil {
			return filter, err
		}
	}
	if v := q.Get("priority"); v != "" {
		if filter.Priority, err = models.ParsePriority(v); err != nil {
			return filter, err
		}
	}
	filter.Category = q.Get("category")
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 0 {
			return filter, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
	}
	return filter, nil
}
