// Package httptransport assembles the HTTP router. Transport concerns only:
// middleware order, route mounting, health and metrics endpoints.
package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idguardian/internal/platform/metrics"
	"idguardian/internal/verification/handler"
	"idguardian/pkg/platform/httputil"
	"idguardian/pkg/platform/middleware/metadata"
	"idguardian/pkg/platform/middleware/requestid"
	"idguardian/pkg/platform/middleware/requesttime"
)

// HealthCheck probes one dependency. Nil-safe wiring: only configured
// dependencies register a check.
type HealthCheck func(ctx context.Context) error

// NewRouter wires the middleware chain and mounts the wizard endpoints.
func NewRouter(wizard *handler.Handler, m *metrics.Metrics, checks map[string]HealthCheck) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.Recoverer)
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(metadata.ClientMetadata)
	if m != nil {
		router.Use(m.Middleware)
	}

	router.Get("/healthz", healthHandler(checks))
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	wizard.Register(router)
	return router
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status":       http.StatusText(status),
			"dependencies": deps,
		})
	}
}
