package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/logistock/logistock/internal/inventory"
	"github.com/logistock/logistock/internal/observability"
	"github.com/logistock/logistock/internal/platform/httpx"
	"github.com/logistock/logistock/internal/report"
	"github.com/logistock/logistock/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Metrics          *observability.Metrics
	InventoryHandler *inventory.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with LogiStock defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, http.StatusText(http.StatusNotFound), "no route for "+r.URL.Path, "not_found")
	})

	var guard func(http.Handler) http.Handler
	if params.Config != nil {
		guard = TokenGuard(params.Config.AppTokenHash, params.Logger)
	}
	if params.InventoryHandler != nil {
		params.InventoryHandler.MountRoutes(r, guard)
	}
	if params.ReportHandler != nil {
		params.ReportHandler.MountRoutes(r, guard)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
