// Package httptransport assembles the process-wide router: feature
// handlers mount themselves, plus the health and metrics endpoints every
// deployment expects.
package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"membergate/internal/transport/http/shared"
)

// Registrar is implemented by feature handlers that mount their own routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// NewRouter builds the root router.
func NewRouter(checks map[string]HealthCheck, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", healthHandler(checks))
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks)+1)
		results["status"] = "ok"

		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				results["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		shared.WriteJSON(w, status, results)
	}
}
