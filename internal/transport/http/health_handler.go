package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"sitepulse/internal/infrastructure"
)

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Service:   infrastructure.ServiceName,
		Version:   infrastructure.ServiceVersion,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
