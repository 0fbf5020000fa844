package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finsight/internal/platform/metrics"
	"finsight/pkg/platform/httputil"
	adminmw "finsight/pkg/platform/middleware/admin"
	authmw "finsight/pkg/platform/middleware/auth"
	"finsight/pkg/platform/middleware/request"
)

// Registrar mounts a handler's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports a named dependency's health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the handlers and guards the router wires together.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Validator  authmw.JWTValidator
	AdminToken string
	Assistant  Registrar
	Admin      Registrar
	Health     []HealthCheck
}

// NewRouter wires every endpoint. Transport stays thin: handlers delegate to
// domain services.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(request.Middleware)
	r.Use(d.Metrics.Middleware)

	r.Get("/health", handleHealth(d.Health))
	r.Handle("/metrics", promhttp.Handler())

	if d.Assistant != nil {
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(d.Validator, logger))
			d.Assistant.Register(r)
		})
	}
	if d.Admin != nil {
		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(d.AdminToken, logger))
			d.Admin.Register(r)
		})
	}
	return r
}

func handleHealth(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				deps[c.Name] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[c.Name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": overall, "dependencies": deps})
	}
}
