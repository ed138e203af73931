package netted

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quipu-reports/quipu/internal/platform/httpx"
)

// Handler serves the netted treasury report.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the netted routes under the treasury prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/report/netted", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := intParam(q.Get("per_page"), 100)
	page := intParam(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	positions, total, run, err := h.service.List(r.Context(), q.Get("supplier"), limit, (page-1)*limit)
	if err != nil {
		h.logger.Error("list netted positions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, httpx.Envelope{
		Data:    positions,
		Count:   httpx.IntPtr(len(positions)),
		Total:   httpx.IntPtr(total),
		Page:    httpx.IntPtr(page),
		PerPage: httpx.IntPtr(limit),
		Summary: run,
	})
}

func intParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
