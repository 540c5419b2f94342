package metrics

import (
	"sort"
	"strings"

	"sitepulse/pkg/contracts/domain"
)

// Classification thresholds for benchmark comparisons, in percent of target.
const (
	performanceAboveThreshold   = 100
	performanceMeetingThreshold = 90
)

// metricActuals is the fixed dispatch table from benchmark metric names to
// the computed actual value. Unrecognized names fall through to an actual of
// 0, which classifies as "below"; callers see the benchmark row either way.
var metricActuals = map[string]func(*domain.MetricsSnapshot) float64{
	"conversion_rate_percent": func(s *domain.MetricsSnapshot) float64 { return s.ConversionRate },
	"bounce_rate_percent":     func(s *domain.MetricsSnapshot) float64 { return s.AvgBounceRate },
	"avg_session_duration_seconds": func(s *domain.MetricsSnapshot) float64 {
		return s.AvgSessionDuration
	},
	"revenue_per_session":        func(s *domain.MetricsSnapshot) float64 { return s.RevenuePerSession },
	"revenue_per_user":           func(s *domain.MetricsSnapshot) float64 { return s.RevenuePerUser },
	"avg_revenue_per_conversion": func(s *domain.MetricsSnapshot) float64 { return s.AvgRevenuePerConversion },
	"total_sessions":             func(s *domain.MetricsSnapshot) float64 { return float64(s.TotalSessions) },
	"total_users":                func(s *domain.MetricsSnapshot) float64 { return float64(s.TotalUsers) },
	"total_page_views":           func(s *domain.MetricsSnapshot) float64 { return float64(s.TotalPageViews) },
	"total_conversions":          func(s *domain.MetricsSnapshot) float64 { return float64(s.TotalConversions) },
	"total_revenue":              func(s *domain.MetricsSnapshot) float64 { return s.TotalRevenue },
}

// compareBenchmarks builds one comparison row per benchmark record, matched
// against the snapshot's computed values. Output is sorted by metric name for
// stable ordering.
func (c *Calculator) compareBenchmarks(benchmarks []domain.BenchmarkRecord, snap *domain.MetricsSnapshot) []domain.BenchmarkComparison {
	comparisons := make([]domain.BenchmarkComparison, 0, len(benchmarks))
	for _, b := range benchmarks {
		actual := 0.0
		if lookup, ok := metricActuals[strings.ToLower(strings.TrimSpace(b.MetricName))]; ok {
			actual = lookup(snap)
		}

		percentage := safeDiv(actual, b.TargetValue) * 100

		comparisons = append(comparisons, domain.BenchmarkComparison{
			Metric:      b.MetricName,
			Target:      b.TargetValue,
			Actual:      actual,
			Unit:        b.Unit,
			Percentage:  percentage,
			Performance: classifyPerformance(percentage),
		})
	}

	sort.Slice(comparisons, func(i, j int) bool {
		return comparisons[i].Metric < comparisons[j].Metric
	})

	return comparisons
}

// classifyPerformance maps a percent-of-target value onto the three
// performance levels.
func classifyPerformance(percentage float64) domain.PerformanceLevel {
	switch {
	case percentage >= performanceAboveThreshold:
		return domain.PerformanceAbove
	case percentage >= performanceMeetingThreshold:
		return domain.PerformanceMeeting
	default:
		return domain.PerformanceBelow
	}
}
