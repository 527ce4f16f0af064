package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"amocrm-leads/internal/common/config"
)

// CORS answers preflight requests and decorates responses for allowed
// origins. With no configured origins the caller's Origin is reflected,
// since credentialed responses cannot use "*".
func CORS(cfg config.CORSConfig) Middleware {
	methods := strings.Join(withOptions(cfg.AllowedMethods), ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := origin != "" && (len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, origin))

			if origin != "" {
				w.Header().Add("Vary", "Origin")
			}
			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowed {
					h := w.Header()
					h.Set("Access-Control-Allow-Methods", methods)
					if headers != "" {
						h.Set("Access-Control-Allow-Headers", headers)
					}
					if cfg.MaxAge > 0 {
						h.Set("Access-Control-Max-Age", maxAge)
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func withOptions(methods []string) []string {
	if slices.Contains(methods, http.MethodOptions) {
		return methods
	}
	return append(slices.Clone(methods), http.MethodOptions)
}
