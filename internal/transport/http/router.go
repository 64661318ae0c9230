// Package httptransport assembles the portal's HTTP surface: the shared
// middleware chain, the assessment routes, and the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"govseal/internal/assessment/handler"
	"govseal/internal/platform/metrics"
	"govseal/internal/platform/middleware"
)

// NewRouter wires the middleware chain and mounts every route. Health and
// metrics stay outside the authenticated group.
func NewRouter(h *handler.Handler, validator middleware.ActorValidator, m *metrics.Metrics, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log, m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireActor(validator, log))
		h.Register(r)
	})

	return r
}
