// Package httptransport assembles the public HTTP surface: middleware chain,
// domain routes, health and metrics endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sigil/internal/platform/middleware"
)

// Registrar mounts a group of routes onto the router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of a backing resource.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router bundles everything NewRouter needs.
type Router struct {
	Logger   *slog.Logger
	Handlers []Registrar
	Checks   map[string]HealthChecker
}

// NewRouter wires the middleware chain and all public endpoints.
func NewRouter(cfg Router) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger))

	r.Get("/healthz", handleHealth(cfg.Checks))
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range cfg.Handlers {
		h.Register(r)
	}
	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
