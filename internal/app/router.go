package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/quipu-reports/quipu/internal/netted"
	"github.com/quipu-reports/quipu/internal/observability"
	"github.com/quipu-reports/quipu/internal/payables"
	"github.com/quipu-reports/quipu/internal/receivables"
	"github.com/quipu-reports/quipu/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	CollectionsHandler *receivables.Handler
	TreasuryHandler    *payables.Handler
	NettedHandler      *netted.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the report API surface.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.CollectionsHandler != nil {
		r.Route("/collections", params.CollectionsHandler.MountRoutes)
	}
	if params.TreasuryHandler != nil {
		r.Route("/treasury", func(r chi.Router) {
			params.TreasuryHandler.MountRoutes(r)
			if params.NettedHandler != nil {
				params.NettedHandler.MountRoutes(r)
			}
		})
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
