// Package server wires the HTTP routes, middleware and listener.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"amocrm-leads/internal/common/config"
	"amocrm-leads/internal/common/errors"
	"amocrm-leads/internal/common/logger"
	"amocrm-leads/internal/common/middleware"
)

const readinessTimeout = 5 * time.Second

// Route is a request handler that mounts itself on the mux.
type Route interface {
	Register(mux *http.ServeMux)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Options struct {
	Config    *config.Config
	Logger    logger.Logger
	Routes    []Route
	Readiness []HealthChecker
}

type Server struct {
	httpServer      *http.Server
	logger          logger.Logger
	shutdownTimeout time.Duration
}

func New(opts Options) *Server {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           NewRouter(opts),
			ReadTimeout:       config.GetDuration(cfg.Server.ReadTimeout),
			ReadHeaderTimeout: config.GetDuration(cfg.Server.ReadTimeout),
			WriteTimeout:      config.GetDuration(cfg.Server.WriteTimeout),
		},
		logger:          log,
		shutdownTimeout: config.GetDuration(cfg.Server.ShutdownTimeout),
	}
}

// NewRouter builds the full handler tree: routes, health endpoints, metrics and the
// middleware chain.
func NewRouter(opts Options) http.Handler {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	mux := http.NewServeMux()
	for _, route := range opts.Routes {
		route.Register(mux)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		errors.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("GET /ready", readyHandler(opts.Readiness, log))

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}

	return middleware.Chain(mux,
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.CORS(cfg.CORS),
		middleware.Logging(log),
	)
}

func readyHandler(checks []HealthChecker, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		for _, check := range checks {
			if err := check.HealthCheck(ctx); err != nil {
				log.Warn("Readiness check failed", map[string]interface{}{
					"requestId": middleware.RequestIDFromContext(r.Context()),
					"error":     err.Error(),
				})
				errors.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
				return
			}
		}
		errors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
