package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sitepulse/pkg/contracts/domain"
)

func trendPoints(sessions []int, revenue []float64) []domain.TrendPoint {
	points := make([]domain.TrendPoint, len(sessions))
	day := date(2024, time.June, 1)
	for i := range sessions {
		points[i] = domain.TrendPoint{
			Date:        day.AddDate(0, 0, i),
			PeriodStart: day.AddDate(0, 0, i),
			Sessions:    sessions[i],
		}
		if revenue != nil {
			points[i].Revenue = revenue[i]
		}
	}
	return points
}

func TestAnalyzeTrends_WindowOverWindow(t *testing.T) {
	points := trendPoints([]int{10, 10, 20, 20}, []float64{100, 100, 50, 50})

	summary := AnalyzeTrends(points, 2)

	assert.Equal(t, 2, summary.WindowSize)
	assert.InDelta(t, 100.0, summary.SessionsChange, 1e-9)
	assert.InDelta(t, -50.0, summary.RevenueChange, 1e-9)
	assert.InDelta(t, 0.0, summary.ConversionsChange, 1e-9)
}

func TestAnalyzeTrends_ZeroOlderMean(t *testing.T) {
	points := trendPoints([]int{0, 0, 5, 5}, nil)

	summary := AnalyzeTrends(points, 2)

	// Change from zero baseline is reported as 0, never Infinity.
	assert.InDelta(t, 0.0, summary.SessionsChange, 1e-9)
}

func TestAnalyzeTrends_TooFewPoints(t *testing.T) {
	assert.Equal(t, domain.TrendSummary{WindowSize: 30}, AnalyzeTrends(nil, 30))
	assert.Equal(t, domain.TrendSummary{WindowSize: 30}, AnalyzeTrends(trendPoints([]int{5}, nil), 30))
}

func TestAnalyzeTrends_ShortSeries(t *testing.T) {
	// Three points against a window of 2: older window has a single point.
	points := trendPoints([]int{10, 20, 30}, nil)

	summary := AnalyzeTrends(points, 2)

	// Recent mean 25 vs older mean 10.
	assert.InDelta(t, 150.0, summary.SessionsChange, 1e-9)
}

func TestAnalyzeTrends_DefaultWindow(t *testing.T) {
	summary := AnalyzeTrends(trendPoints([]int{10, 20}, nil), 0)
	assert.Equal(t, 30, summary.WindowSize)
}

func TestAnalyzeTrends_BounceRateDirection(t *testing.T) {
	day := date(2024, time.June, 1)
	points := []domain.TrendPoint{
		{Date: day, PeriodStart: day, BounceRate: 50},
		{Date: day.AddDate(0, 0, 1), PeriodStart: day.AddDate(0, 0, 1), BounceRate: 40},
	}

	summary := AnalyzeTrends(points, 1)
	assert.InDelta(t, -20.0, summary.BounceRateChange, 1e-9)
}
