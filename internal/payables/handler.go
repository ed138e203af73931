package payables

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quipu-reports/quipu/internal/engine"
	"github.com/quipu-reports/quipu/internal/export"
	"github.com/quipu-reports/quipu/internal/platform/httpx"
)

// Handler serves the treasury report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the treasury routes. The netted report mounts
// separately because it reads the local store, not the ledger.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/report", h.report)
	r.Get("/report/export", h.exportReport)
	r.Get("/report/supplier-banks", h.supplierBanks)
	r.Get("/summary/by-account", h.summaryByAccount)
	r.Get("/summary/by-supplier", h.summaryBySupplier)
	r.Get("/summary/by-aging", h.summaryByAging)
	r.Get("/filter-options", h.filterOptions)
	r.Get("/status", h.status)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	f, err := engine.ParseFilters(r.URL.Query())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filters", err.Error())
		return
	}
	page, err := h.service.Report(r.Context(), f)
	if err != nil {
		h.logger.Error("build treasury report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	overall := engine.SummarizeByAccount(page.Data).Overall
	httpx.OK(w, httpx.Envelope{
		Data:    page.Data,
		Count:   httpx.IntPtr(len(page.Data)),
		Summary: overall,
		Filters: f.Echo(),
		Page:    httpx.IntPtr(page.Page),
		PerPage: httpx.IntPtr(page.PerPage),
		Pages:   httpx.IntPtr(page.TotalPages),
		HasMore: httpx.BoolPtr(page.HasMore),
		Total:   httpx.IntPtr(page.TotalCount),
	})
}

func (h *Handler) exportReport(w http.ResponseWriter, r *http.Request) {
	f, err := engine.ParseFilters(r.URL.Query())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filters", err.Error())
		return
	}
	rows, err := h.service.Export(r.Context(), f)
	if err != nil {
		h.logger.Error("export treasury report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	filename := "treasury_" + time.Now().Format("20060102_150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := export.WriteRowsCSV(w, rows); err != nil {
		h.logger.Error("write treasury csv", slog.Any("error", err))
	}
}

func (h *Handler) supplierBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.service.SupplierBanks(r.Context(), r.URL.Query().Get("supplier"))
	if err != nil {
		h.logger.Error("supplier bank directory", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, httpx.Envelope{Data: banks, Count: httpx.IntPtr(len(banks))})
}

func (h *Handler) summaryByAccount(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, h.service.SummaryByAccount)
}

func (h *Handler) summaryBySupplier(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, h.service.SummaryBySupplier)
}

func (h *Handler) summaryByAging(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, h.service.SummaryByAging)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request,
	build func(ctx context.Context, f engine.Filters) (engine.Summary, error)) {
	f, err := engine.ParseFilters(r.URL.Query())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filters", err.Error())
		return
	}
	s, err := build(r.Context(), f)
	if err != nil {
		h.logger.Error("treasury summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, httpx.Envelope{
		Data:    s.Groups,
		Count:   httpx.IntPtr(len(s.Groups)),
		Summary: s.Overall,
		Filters: f.Echo(),
	})
}

func (h *Handler) filterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.FilterOptions(r.Context())
	if err != nil {
		h.logger.Error("treasury filter options", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, httpx.Envelope{Data: opts})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, httpx.Envelope{Data: map[string]any{
		"service":   "treasury",
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}})
}
