package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/pkg/contracts/domain"
)

func TestCompareBenchmarks(t *testing.T) {
	c := NewCalculator(nil, DefaultConfig())
	snap := &domain.MetricsSnapshot{
		ConversionRate:    6.0,
		AvgBounceRate:     45.0,
		TotalSessions:     900,
		RevenuePerSession: 2.0,
	}

	tests := []struct {
		name            string
		record          domain.BenchmarkRecord
		wantActual      float64
		wantPercentage  float64
		wantPerformance domain.PerformanceLevel
	}{
		{
			name:            "above target",
			record:          domain.BenchmarkRecord{MetricName: "conversion_rate_percent", TargetValue: 5, Unit: "percent"},
			wantActual:      6.0,
			wantPercentage:  120,
			wantPerformance: domain.PerformanceAbove,
		},
		{
			name:            "exactly at target",
			record:          domain.BenchmarkRecord{MetricName: "bounce_rate_percent", TargetValue: 45, Unit: "percent"},
			wantActual:      45.0,
			wantPercentage:  100,
			wantPerformance: domain.PerformanceAbove,
		},
		{
			name:            "meeting band",
			record:          domain.BenchmarkRecord{MetricName: "total_sessions", TargetValue: 1000, Unit: "count"},
			wantActual:      900,
			wantPercentage:  90,
			wantPerformance: domain.PerformanceMeeting,
		},
		{
			name:            "below target",
			record:          domain.BenchmarkRecord{MetricName: "revenue_per_session", TargetValue: 4, Unit: "currency"},
			wantActual:      2.0,
			wantPercentage:  50,
			wantPerformance: domain.PerformanceBelow,
		},
		{
			name:            "unknown metric reports zero actual",
			record:          domain.BenchmarkRecord{MetricName: "net_promoter_score", TargetValue: 50, Unit: "score"},
			wantActual:      0,
			wantPercentage:  0,
			wantPerformance: domain.PerformanceBelow,
		},
		{
			name:            "name matching ignores case and padding",
			record:          domain.BenchmarkRecord{MetricName: "  Conversion_Rate_Percent ", TargetValue: 5, Unit: "percent"},
			wantActual:      6.0,
			wantPercentage:  120,
			wantPerformance: domain.PerformanceAbove,
		},
		{
			name:            "zero target guards division",
			record:          domain.BenchmarkRecord{MetricName: "conversion_rate_percent", TargetValue: 0, Unit: "percent"},
			wantActual:      6.0,
			wantPercentage:  0,
			wantPerformance: domain.PerformanceBelow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.compareBenchmarks([]domain.BenchmarkRecord{tt.record}, snap)
			require.Len(t, got, 1)
			assert.Equal(t, tt.record.MetricName, got[0].Metric)
			assert.InDelta(t, tt.wantActual, got[0].Actual, 1e-9)
			assert.InDelta(t, tt.wantPercentage, got[0].Percentage, 1e-9)
			assert.Equal(t, tt.wantPerformance, got[0].Performance)
			assert.Equal(t, tt.record.Unit, got[0].Unit)
		})
	}
}

func TestCompareBenchmarks_SortedByMetricName(t *testing.T) {
	c := NewCalculator(nil, DefaultConfig())
	snap := &domain.MetricsSnapshot{TotalSessions: 100}

	got := c.compareBenchmarks([]domain.BenchmarkRecord{
		{MetricName: "total_sessions", TargetValue: 100, Unit: "count"},
		{MetricName: "bounce_rate_percent", TargetValue: 50, Unit: "percent"},
	}, snap)

	require.Len(t, got, 2)
	assert.Equal(t, "bounce_rate_percent", got[0].Metric)
	assert.Equal(t, "total_sessions", got[1].Metric)
}

func TestClassifyPerformance(t *testing.T) {
	assert.Equal(t, domain.PerformanceAbove, classifyPerformance(130))
	assert.Equal(t, domain.PerformanceAbove, classifyPerformance(100))
	assert.Equal(t, domain.PerformanceMeeting, classifyPerformance(99.9))
	assert.Equal(t, domain.PerformanceMeeting, classifyPerformance(90))
	assert.Equal(t, domain.PerformanceBelow, classifyPerformance(89.9))
	assert.Equal(t, domain.PerformanceBelow, classifyPerformance(0))
}
