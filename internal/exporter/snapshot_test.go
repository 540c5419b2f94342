package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/pkg/contracts/domain"
)

func sampleSnapshot() domain.MetricsSnapshot {
	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	return domain.MetricsSnapshot{
		TotalSessions: 450,
		TotalRevenue:  400,
		PeriodType:    domain.PeriodDaily,
		GeneratedAt:   time.Now().UTC(),
		TrendPoints: []domain.TrendPoint{
			{
				Date:        day,
				PeriodStart: day,
				PeriodEnd:   day.AddDate(0, 0, 1).Add(-time.Millisecond),
				Sessions:    100,
				Conversions: 5,
				Revenue:     250,
				BounceRate:  40,
			},
			{
				Date:        day.AddDate(0, 0, 1),
				PeriodStart: day.AddDate(0, 0, 1),
				PeriodEnd:   day.AddDate(0, 0, 2).Add(-time.Millisecond),
				Sessions:    200,
				BounceRate:  60,
			},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	w := NewWriter(nil)
	path := filepath.Join(t.TempDir(), "out", "snapshot.json")

	err := w.WriteJSON(context.Background(), path, "batch-123", sampleSnapshot())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var env struct {
		Snapshot domain.MetricsSnapshot `json:"snapshot"`
		BatchID  string                 `json:"batch_id"`
		Format   string                 `json:"format"`
	}
	require.NoError(t, json.Unmarshal(data, &env))

	assert.Equal(t, "batch-123", env.BatchID)
	assert.Equal(t, "metrics_snapshot_v1", env.Format)
	assert.Equal(t, 450, env.Snapshot.TotalSessions)
	assert.Len(t, env.Snapshot.TrendPoints, 2)
}

func TestWriteTrendCSV(t *testing.T) {
	w := NewWriter(nil)
	path := filepath.Join(t.TempDir(), "out", "trends.csv")

	err := w.WriteTrendCSV(context.Background(), path, sampleSnapshot())
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"PeriodStart", "PeriodEnd", "PeriodType", "Sessions", "Conversions", "Revenue", "BounceRate"}, rows[0])
	assert.Equal(t, "2024-06-01", rows[1][0])
	assert.Equal(t, "100", rows[1][3])
	assert.Equal(t, "250.00", rows[1][5])
	assert.Equal(t, "0", rows[2][4])
}
