package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/medimage-analyzer/internal/metrics"
)

// MetricsMiddleware tracks request metrics labelled by chi route pattern
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.InFlight(1)
		defer metrics.InFlight(-1)

		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.ObserveHTTP(r.Method, route, wrapped.statusCode, time.Since(start))
	})
}
