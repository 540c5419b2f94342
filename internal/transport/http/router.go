package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"sitepulse/internal/config"
	"sitepulse/internal/infrastructure"
	"sitepulse/internal/middleware"
	"sitepulse/internal/pipeline"
)

// NewRouter wires the ingestion API: pipeline endpoints, health, and the
// Prometheus scrape handler.
func NewRouter(logger *slog.Logger, cfg config.ServerConfig, p *pipeline.Pipeline, providers *infrastructure.OTelProviders, meters *infrastructure.IngestMetrics) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.HTTPMetrics(meters))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	ingest := NewIngestHandler(logger, p)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ingest", ingest.Ingest)
		r.Get("/snapshot", ingest.Snapshot)
	})

	r.Get("/healthz", Health)

	if providers != nil && providers.PrometheusHTTP != nil {
		r.Method(http.MethodGet, "/metrics", providers.PrometheusHTTP)
	}

	return r
}
