package loader

import (
	"context"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"sitepulse/internal/errors"
	"sitepulse/pkg/contracts/domain"
)

// Candidate sheet names marketing suites use for the data sheet, probed
// before falling back to header sniffing.
var candidateSheets = []string{"Data", "data", "Report", "Export", "Sheet1"}

// headerMarkers are column names whose presence identifies a header row in an
// arbitrary sheet.
var headerMarkers = []string{
	"date", "sessions", "users", "campaign", "utm_campaign",
	"event_name", "conversion_name", "metric", "channel_group",
}

// LoadXLSX reads the first data sheet of a spreadsheet export. The header row
// is located by sniffing for known column names, since many exports put
// titles or export metadata above the table.
func (l *Loader) LoadXLSX(ctx context.Context, path string) (domain.RawBatch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open spreadsheet export", err)
	}
	defer f.Close()

	rows, sheetName := findDataSheet(f)
	if rows == nil {
		return nil, errors.NewParsingError("no data sheet found in spreadsheet export", nil)
	}

	headerRow := findHeaderRow(rows)
	if headerRow < 0 {
		return nil, errors.NewParsingError("no header row found in spreadsheet export", nil)
	}

	header := normalizeHeader(rows[headerRow])
	batch := rowsToBatch(header, rows[headerRow+1:])

	l.logger.InfoContext(ctx, "loaded spreadsheet export",
		slog.String("path", path),
		slog.String("sheet", sheetName),
		slog.Int("rows", len(batch)))

	return batch, nil
}

// findDataSheet probes the candidate names first, then any sheet that has a
// recognizable header row.
func findDataSheet(f *excelize.File) ([][]string, string) {
	for _, name := range candidateSheets {
		if rows, err := f.GetRows(name); err == nil && len(rows) > 1 {
			return rows, name
		}
	}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) < 2 {
			continue
		}
		if findHeaderRow(rows) >= 0 {
			return rows, name
		}
	}
	return nil, ""
}

// findHeaderRow returns the index of the first row containing at least one
// known column name, or -1.
func findHeaderRow(rows [][]string) int {
	// Headers live near the top; anything deeper is data.
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		rowText := strings.ToLower(strings.Join(rows[i], " "))
		for _, marker := range headerMarkers {
			if strings.Contains(rowText, marker) {
				return i
			}
		}
	}
	return -1
}
