package middleware

import (
	"net/http"
	"strconv"
	"time"

	"amocrm-leads/internal/common/logger"
	"amocrm-leads/internal/common/metrics"
)

// Logging writes one access log line per request and records the HTTP
// metrics. It must wrap the ServeMux directly so the matched route pattern
// is visible after the call.
func Logging(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

			next.ServeHTTP(sw, r)

			duration := time.Since(start)
			route := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.code)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

			log.Info("request", map[string]interface{}{
				"requestId":  RequestIDFromContext(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"route":      route,
				"status":     sw.code,
				"durationMs": duration.Milliseconds(),
				"remoteAddr": r.RemoteAddr,
			})
		})
	}
}

// routeLabel keeps metric cardinality bounded to registered routes.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}
