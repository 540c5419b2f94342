// Package app wires configuration, logging, telemetry, the reconciliation
// pipeline, and the HTTP server into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitepulse/internal/config"
	"sitepulse/internal/infrastructure"
	"sitepulse/internal/metrics"
	"sitepulse/internal/pipeline"
	httptransport "sitepulse/internal/transport/http"
)

// Application holds the assembled server and its lifecycle dependencies.
type Application struct {
	config    *config.Config
	logger    *slog.Logger
	providers *infrastructure.OTelProviders
	server    *http.Server
}

// NewApplication builds the full dependency graph from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	meters, err := infrastructure.CreateIngestMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest metrics: %w", err)
	}

	p := pipeline.New(logger, pipeline.Options{
		Resolver: pipeline.Config{Seed: cfg.Ingest.ChannelSeed},
		Metrics: metrics.Config{
			TopEvents:   cfg.Ingest.TopEvents,
			TrendWindow: cfg.Ingest.TrendWindow,
		},
		Meters: meters,
		Tracer: providers.Tracer,
	})

	router := httptransport.NewRouter(logger, cfg.Server, p, providers, meters)

	app := &Application{
		config:    cfg,
		logger:    logger,
		providers: providers,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
	return app, nil
}

// Run starts the server and blocks until an interrupt or server error.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting",
			slog.String("addr", a.server.Addr),
			slog.String("service", infrastructure.ServiceName),
			slog.String("version", infrastructure.ServiceVersion))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		a.logger.Error("http server failed", slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	return a.shutdown()
}

// shutdown drains the server and flushes telemetry within the configured
// timeout.
func (a *Application) shutdown() error {
	timeout := a.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.logger.Info("shutting down", slog.Duration("timeout", timeout))

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		return err
	}

	if a.providers != nil {
		if err := a.providers.Shutdown(ctx); err != nil {
			a.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}

	infrastructure.CloseLogFile()
	return nil
}
