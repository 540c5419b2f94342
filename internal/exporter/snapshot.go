package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sitepulse/internal/errors"
	"sitepulse/pkg/contracts/domain"
)

// Writer persists computed snapshots for dashboard consumption.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a snapshot writer.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// envelope is the JSON wrapper around a snapshot.
type envelope struct {
	Snapshot    domain.MetricsSnapshot `json:"snapshot"`
	BatchID     string                 `json:"batch_id"`
	GeneratedAt string                 `json:"generated_at"`
	Format      string                 `json:"format"`
}

// WriteJSON writes the snapshot to path inside a metadata envelope.
func (w *Writer) WriteJSON(ctx context.Context, path, batchID string, snap domain.MetricsSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for JSON output", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("failed to create JSON snapshot file", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	env := envelope{
		Snapshot:    snap,
		BatchID:     batchID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Format:      "metrics_snapshot_v1",
	}
	if err := encoder.Encode(env); err != nil {
		return errors.NewStorageError("failed to encode snapshot to JSON", err)
	}

	w.logger.InfoContext(ctx, "wrote snapshot JSON",
		slog.String("path", path),
		slog.String("batch_id", batchID))

	return nil
}

// WriteTrendCSV writes the snapshot's trend points as a flat CSV for
// spreadsheet consumption.
func (w *Writer) WriteTrendCSV(ctx context.Context, path string, snap domain.MetricsSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for CSV output", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("failed to create trend CSV file", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"PeriodStart", "PeriodEnd", "PeriodType", "Sessions", "Conversions", "Revenue", "BounceRate"}
	if err := writer.Write(header); err != nil {
		return errors.NewStorageError("failed to write CSV header row", err)
	}

	for _, point := range snap.TrendPoints {
		row := []string{
			point.PeriodStart.Format("2006-01-02"),
			point.PeriodEnd.Format("2006-01-02"),
			string(snap.PeriodType),
			fmt.Sprintf("%d", point.Sessions),
			fmt.Sprintf("%d", point.Conversions),
			fmt.Sprintf("%.2f", point.Revenue),
			fmt.Sprintf("%.2f", point.BounceRate),
		}
		if err := writer.Write(row); err != nil {
			return errors.NewStorageError("failed to write CSV data row", err)
		}
	}

	w.logger.InfoContext(ctx, "wrote trend CSV",
		slog.String("path", path),
		slog.Int("points", len(snap.TrendPoints)))

	return nil
}
