package http

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/render"

	"sitepulse/internal/errors"
	"sitepulse/internal/pipeline"
	"sitepulse/internal/schema"
	"sitepulse/pkg/contracts/domain"
)

// IngestRequest is the JSON body of an ingestion call: the raw row batches
// plus the reporting range. Dates are ISO calendar dates; period_type is an
// optional override.
type IngestRequest struct {
	Batches    map[string][]map[string]string `json:"batches"`
	StartDate  string                         `json:"start_date,omitempty"`
	EndDate    string                         `json:"end_date,omitempty"`
	PeriodType string                         `json:"period_type,omitempty"`
}

// Bind implements render.Binder.
func (req *IngestRequest) Bind(r *http.Request) error {
	return nil
}

// IngestHandler accepts raw row batches, runs the reconciliation pipeline,
// and keeps the latest result for snapshot reads.
type IngestHandler struct {
	logger   *slog.Logger
	pipeline *pipeline.Pipeline

	mu     sync.RWMutex
	latest *pipeline.Result
}

// NewIngestHandler creates an ingest handler.
func NewIngestHandler(logger *slog.Logger, p *pipeline.Pipeline) *IngestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestHandler{
		logger:   logger.With(slog.String("handler", "ingest")),
		pipeline: p,
	}
}

// Ingest handles POST /api/v1/ingest.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	req := &IngestRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, errors.InvalidRequestWithError(err))
		return
	}

	pipelineReq, err := h.toPipelineRequest(req)
	if err != nil {
		render.Render(w, r, errors.InvalidRequestWithError(err))
		return
	}

	result, runErr := h.pipeline.Run(r.Context(), pipelineReq)
	if runErr != nil {
		if appErr, ok := runErr.(*errors.AppError); ok && appErr.Type == errors.ErrTypeEmptyInput {
			// The validation payload still goes back so the caller sees
			// the per-dataset picture.
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, result)
			return
		}
		h.logger.ErrorContext(r.Context(), "pipeline run failed",
			slog.String("error", runErr.Error()))
		render.Render(w, r, errors.ErrInternalServer)
		return
	}

	h.mu.Lock()
	h.latest = result
	h.mu.Unlock()

	render.Status(r, http.StatusOK)
	render.JSON(w, r, result)
}

// Snapshot handles GET /api/v1/snapshot, returning the latest computed
// result.
func (h *IngestHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	latest := h.latest
	h.mu.RUnlock()

	if latest == nil {
		render.Render(w, r, errors.ErrSnapshotMissing)
		return
	}
	render.JSON(w, r, latest)
}

// toPipelineRequest converts the wire request into pipeline input.
func (h *IngestHandler) toPipelineRequest(req *IngestRequest) (pipeline.Request, error) {
	batches := make(domain.BatchSet, len(req.Batches))
	for name, rows := range req.Batches {
		batch := make(domain.RawBatch, 0, len(rows))
		for _, row := range rows {
			batch = append(batch, domain.RawRow(row))
		}
		batches[domain.DatasetType(name)] = batch
	}

	var pr pipeline.Request
	pr.Batches = batches

	if req.StartDate != "" {
		start, err := schema.ParseDate(req.StartDate)
		if err != nil {
			return pr, err
		}
		pr.Range.Start = start
	}
	if req.EndDate != "" {
		end, err := schema.ParseDate(req.EndDate)
		if err != nil {
			return pr, err
		}
		pr.Range.End = end
	}
	pr.PeriodOverride = domain.PeriodType(req.PeriodType)

	return pr, nil
}
