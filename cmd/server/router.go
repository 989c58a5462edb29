package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"apertura/internal/platform/metrics"
	"apertura/pkg/platform/httputil"
	request "apertura/pkg/platform/middleware/request"
)

// healthCheck reports one backing dependency.
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

type registrar interface {
	Register(r chi.Router)
}

func newRouter(logger *slog.Logger, httpMetrics *metrics.Metrics, checks []healthCheck, handlers ...registrar) chi.Router {
	r := chi.NewRouter()
	r.Use(request.Recover(logger))
	r.Use(request.RequestID)
	r.Use(request.Time)
	r.Use(request.Logger(logger))
	r.Use(metrics.Middleware(httpMetrics))

	r.Get("/health", healthHandler(checks))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func healthHandler(checks []healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := map[string]string{}
		for _, c := range checks {
			if err := c.check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[c.name] = err.Error()
				continue
			}
			report[c.name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": report,
		})
	}
}
