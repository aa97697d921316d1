package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"auditwatch/internal/report/models"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	"auditwatch/pkg/platform/httputil"
)

type Generator interface {
	Generate(ctx context.Context, standard id.Standard, window models.Window) *models.Report
}

type Handler struct {
	generator Generator
	logger    *slog.Logger
	now       func() time.Time
}

func New(generator Generator, logger *slog.Logger) *Handler {
	return &Handler{generator: generator, logger: logger, now: time.Now}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/reports/{standard}", h.HandleGenerate)
}

// HandleGenerate always answers 200 once the request parses; degraded
// sections are reported through flags.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	standard, err := id.ParseStandard(chi.URLParam(r, "standard"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	window, err := h.parseWindow(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	report := h.generator.Generate(r.Context(), standard, window)
	httputil.WriteJSON(w, http.StatusOK, ToReportResponse(report))
}

// parseWindow defaults to the DefaultWindow period ending now.
func (h *Handler) parseWindow(r *http.Request) (models.Window, error) {
	q := r.URL.Query()
	window := models.Window{To: h.now()}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return window, dErrors.New(dErrors.CodeBadRequest, "to must be RFC3339")
		}
		window.To = to
	}
	window.From = window.To.Add(-models.DefaultWindow)
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return window, dErrors.New(dErrors.CodeBadRequest, "from must be RFC3339")
		}
		window.From = from
	}
	return window, nil
}
