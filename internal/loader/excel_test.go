package loader

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, dir, name, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	l := NewLoader(nil)
	dir := t.TempDir()

	path := writeXLSX(t, dir, "sessions.xlsx", "Sheet1", [][]interface{}{
		{"Date", "Sessions", "Users"},
		{"2024-06-01", 100, 80},
		{"2024-06-02", 200, 120},
	})

	batch, err := l.LoadXLSX(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, "2024-06-01", batch[0]["date"])
	assert.Equal(t, "100", batch[0]["sessions"])
	assert.Equal(t, "120", batch[1]["users"])
}

func TestLoadXLSX_HeaderBelowTitleRows(t *testing.T) {
	l := NewLoader(nil)
	dir := t.TempDir()

	path := writeXLSX(t, dir, "events.xlsx", "Report", [][]interface{}{
		{"Event Export"},
		{"Generated 2024-06-30"},
		{},
		{"date", "event_name", "event_count"},
		{"2024-06-01", "signup", 12},
	})

	batch, err := l.LoadXLSX(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "signup", batch[0]["event_name"])
	assert.Equal(t, "12", batch[0]["event_count"])
}

func TestLoadXLSX_NoHeader(t *testing.T) {
	l := NewLoader(nil)
	dir := t.TempDir()

	path := writeXLSX(t, dir, "junk.xlsx", "Sheet1", [][]interface{}{
		{"alpha", "beta"},
		{"1", "2"},
	})

	_, err := l.LoadXLSX(context.Background(), path)
	assert.Error(t, err)
}

func TestLoadXLSX_MissingFile(t *testing.T) {
	l := NewLoader(nil)

	_, err := l.LoadXLSX(context.Background(), filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.Error(t, err)
}
