package metrics

import (
	"sitepulse/pkg/contracts/domain"
)

// AnalyzeTrends compares the most recent window of trend points against the
// window immediately preceding it and returns the percentage change per
// metric. A metric's change is 0 when the older window's mean is 0 or either
// window is empty; the comparison never produces Infinity.
func AnalyzeTrends(points []domain.TrendPoint, window int) domain.TrendSummary {
	if window <= 0 {
		window = 30
	}
	summary := domain.TrendSummary{WindowSize: window}

	if len(points) < 2 {
		return summary
	}

	recentStart := len(points) - window
	if recentStart < 0 {
		recentStart = 0
	}
	olderStart := recentStart - window
	if olderStart < 0 {
		olderStart = 0
	}

	recent := points[recentStart:]
	older := points[olderStart:recentStart]
	if len(recent) == 0 || len(older) == 0 {
		return summary
	}

	summary.SessionsChange = percentChange(meanOf(older, sessionsOf), meanOf(recent, sessionsOf))
	summary.ConversionsChange = percentChange(meanOf(older, conversionsOf), meanOf(recent, conversionsOf))
	summary.RevenueChange = percentChange(meanOf(older, revenueOf), meanOf(recent, revenueOf))
	summary.BounceRateChange = percentChange(meanOf(older, bounceOf), meanOf(recent, bounceOf))

	return summary
}

func sessionsOf(p domain.TrendPoint) float64    { return float64(p.Sessions) }
func conversionsOf(p domain.TrendPoint) float64 { return float64(p.Conversions) }
func revenueOf(p domain.TrendPoint) float64     { return p.Revenue }
func bounceOf(p domain.TrendPoint) float64      { return p.BounceRate }

func meanOf(points []domain.TrendPoint, value func(domain.TrendPoint) float64) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += value(p)
	}
	return sum / float64(len(points))
}

// percentChange returns the window-over-window delta in percent, guarding a
// zero older mean to 0 rather than Infinity.
func percentChange(older, recent float64) float64 {
	if older == 0 {
		return 0
	}
	return (recent - older) / older * 100
}
