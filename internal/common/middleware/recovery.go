package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"amocrm-leads/internal/common/errors"
	"amocrm-leads/internal/common/logger"
)

// Recovery turns a panic in a handler into a 500 INTERNAL_ERROR response.
func Recovery(log logger.Logger) Middleware {
	errHandler := errors.NewErrorHandler(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("Panic recovered", map[string]interface{}{
					"panic":  fmt.Sprint(rec),
					"method": r.Method,
					"path":   r.URL.Path,
					"stack":  string(debug.Stack()),
				})
				errHandler.HandleHTTPError(w, r, RequestIDFromContext(r.Context()),
					errors.NewInternalError(fmt.Errorf("panic: %v", rec)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
