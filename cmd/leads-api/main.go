// cmd/leads-api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"amocrm-leads/internal/common/amocrm"
	"amocrm-leads/internal/common/config"
	"amocrm-leads/internal/common/logger"
	"amocrm-leads/internal/common/observability"
	"amocrm-leads/internal/common/server"
	leadsfetch "amocrm-leads/internal/workers/crm/leads-fetch"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting leads API...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	crm := amocrm.NewClient(cfg.AmoCRM, obs, log)

	leads, err := leadsfetch.NewHandler(leadsfetch.HandlerOptions{
		AppConfig:     cfg,
		CRM:           crm,
		Logger:        log,
		Observability: obs,
	})
	if err != nil {
		zapLog.Fatal("failed to create leads-fetch handler", zap.Error(err))
	}

	srv := server.New(server.Options{
		Config:    cfg,
		Logger:    log,
		Routes:    []server.Route{leads},
		Readiness: []server.HealthChecker{leads},
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received, draining requests...", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		zapLog.Error("Error during HTTP server shutdown", zap.Error(err))
	}

	zapLog.Info("Leads API stopped")
}
