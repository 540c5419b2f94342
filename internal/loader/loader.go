package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sitepulse/internal/errors"
	"sitepulse/pkg/contracts/domain"
)

// Loader reads delimited and spreadsheet marketing exports into the raw
// row-map batches the schema resolver consumes. Header names are lowercased
// and trimmed so alias matching is case-insensitive.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a file loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadFile reads one export file, dispatching on the extension.
func (l *Loader) LoadFile(ctx context.Context, path string) (domain.RawBatch, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return l.LoadCSV(ctx, path)
	case ".xlsx":
		return l.LoadXLSX(ctx, path)
	default:
		return nil, errors.NewParsingError(fmt.Sprintf("unsupported export format: %s", filepath.Ext(path)), nil)
	}
}

// LoadCSV reads a delimited export with a header row.
func (l *Loader) LoadCSV(ctx context.Context, path string) (domain.RawBatch, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open CSV export", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewParsingError("failed to read CSV export", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := normalizeHeader(rows[0])
	batch := rowsToBatch(header, rows[1:])

	l.logger.InfoContext(ctx, "loaded CSV export",
		slog.String("path", path),
		slog.Int("rows", len(batch)))

	return batch, nil
}

// normalizeHeader lowercases and trims header cells so they line up with the
// schema alias tables.
func normalizeHeader(cells []string) []string {
	header := make([]string, len(cells))
	for i, cell := range cells {
		header[i] = strings.ToLower(strings.TrimSpace(cell))
	}
	return header
}

// rowsToBatch zips data rows with the header, skipping rows with no content.
func rowsToBatch(header []string, rows [][]string) domain.RawBatch {
	batch := make(domain.RawBatch, 0, len(rows))
	for _, cells := range rows {
		row := make(domain.RawRow, len(header))
		hasData := false
		for i, name := range header {
			if name == "" || i >= len(cells) {
				continue
			}
			value := strings.TrimSpace(cells[i])
			row[name] = value
			if value != "" {
				hasData = true
			}
		}
		if hasData {
			batch = append(batch, row)
		}
	}
	return batch
}

// datasetPatterns maps filename substrings onto dataset types, checked in
// declaration order so "conversion" wins over the "session" inside
// "sessions_with_conversions".
var datasetPatterns = []struct {
	substr  string
	dataset domain.DatasetType
}{
	{"benchmark", domain.DatasetBenchmarks},
	{"conversion", domain.DatasetConversions},
	{"campaign", domain.DatasetCampaigns},
	{"event", domain.DatasetEvents},
	{"session", domain.DatasetSessions},
	{"traffic", domain.DatasetSessions},
}

// classifyFile maps an export filename onto its dataset type.
func classifyFile(path string) (domain.DatasetType, bool) {
	name := strings.ToLower(filepath.Base(path))
	for _, p := range datasetPatterns {
		if strings.Contains(name, p.substr) {
			return p.dataset, true
		}
	}
	return "", false
}

// LoadDirectory loads every recognizable export in a directory into one batch
// set. Files whose names match no dataset are skipped with a warning; a file
// that fails to load is skipped the same way so one bad export does not sink
// the run.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) (domain.BatchSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewStorageError("failed to read import directory", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	batches := make(domain.BatchSet)
	for _, name := range names {
		path := filepath.Join(dir, name)
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		dataset, ok := classifyFile(path)
		if !ok {
			l.logger.WarnContext(ctx, "export file matches no dataset",
				slog.String("path", path))
			continue
		}

		batch, err := l.LoadFile(ctx, path)
		if err != nil {
			l.logger.WarnContext(ctx, "failed to load export file",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}

		batches[dataset] = append(batches[dataset], batch...)
	}

	return batches, nil
}
