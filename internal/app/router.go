package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fasontrack/fasontrack/internal/observability"
	"github.com/fasontrack/fasontrack/internal/shared"
	"github.com/fasontrack/fasontrack/internal/stats"
	"github.com/fasontrack/fasontrack/internal/trackers"
	"github.com/fasontrack/fasontrack/internal/tracking"
	"github.com/fasontrack/fasontrack/internal/workorders"
	"github.com/fasontrack/fasontrack/internal/workshops"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Config            *Config
	Auth              *shared.Authenticator
	WorkOrdersHandler *workorders.Handler
	TrackingHandler   *tracking.Handler
	WorkshopsHandler  *workshops.Handler
	TrackersHandler   *trackers.Handler
	StatsHandler      *stats.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with fasontrack defaults. The
// mobile work order feed and the health and metrics endpoints are
// public; everything else sits behind the upstream bearer check.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Auth.Logger,
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

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	// The work orders handler splits its own routes: /mobile is public,
	// the rest require a caller identity.
	r.Route("/work-orders", params.WorkOrdersHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.Auth.Middleware)

		r.Route("/tracking", params.TrackingHandler.MountRoutes)
		r.Route("/workshops", params.WorkshopsHandler.MountRoutes)
		r.Route("/fason/users/fason-trackers", params.TrackersHandler.MountRoutes)
		r.Get("/stats", params.StatsHandler.Stats)
		r.Get("/dashboard", params.StatsHandler.Dashboard)
	})

	return r
}
