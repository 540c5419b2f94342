package metrics

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"sitepulse/pkg/contracts/domain"
)

// Calculator turns aggregated periods into a reportable MetricsSnapshot.
// Every ratio guards its denominator: a zero denominator yields 0, never
// NaN or Infinity.
type Calculator struct {
	logger      *slog.Logger
	topEvents   int
	trendWindow int
}

// Config holds calculator options.
type Config struct {
	// TopEvents caps the top-events ranking length.
	TopEvents int
	// TrendWindow is the number of trend points per comparison window.
	TrendWindow int
}

// DefaultConfig returns the standard calculator configuration.
func DefaultConfig() Config {
	return Config{TopEvents: 10, TrendWindow: 30}
}

// NewCalculator creates a metrics calculator.
func NewCalculator(logger *slog.Logger, cfg Config) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopEvents <= 0 {
		cfg.TopEvents = 10
	}
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = 30
	}
	return &Calculator{
		logger:      logger,
		topEvents:   cfg.TopEvents,
		trendWindow: cfg.TrendWindow,
	}
}

// Inputs bundles everything the snapshot computation consumes.
type Inputs struct {
	Sessions    []domain.SessionPeriod
	Events      []domain.EventPeriod
	Conversions []domain.ConversionPeriod
	Campaigns   []domain.CampaignRecord
	Benchmarks  []domain.BenchmarkRecord
	PeriodType  domain.PeriodType
}

// Snapshot computes the full metrics snapshot from aggregated inputs.
func (c *Calculator) Snapshot(ctx context.Context, in Inputs) domain.MetricsSnapshot {
	snap := domain.MetricsSnapshot{
		PeriodType:  in.PeriodType,
		GeneratedAt: time.Now().UTC(),
	}

	c.fillTotals(&snap, in)
	c.fillAverages(&snap, in)
	c.fillRates(&snap)
	snap.TopEvents = c.rankEvents(in.Events)
	snap.ConversionTypes = c.rankConversionTypes(in.Conversions)
	snap.TrendPoints = c.buildTrendPoints(in.Sessions, in.Conversions)
	snap.CampaignPerformance = c.campaignPerformance(in.Campaigns, in.Sessions, in.Conversions)
	snap.BenchmarkComparisons = c.compareBenchmarks(in.Benchmarks, &snap)
	snap.Trends = AnalyzeTrends(snap.TrendPoints, c.trendWindow)

	c.logger.InfoContext(ctx, "metrics snapshot computed",
		slog.Int("session_periods", len(in.Sessions)),
		slog.Int("trend_points", len(snap.TrendPoints)),
		slog.Int("top_events", len(snap.TopEvents)),
		slog.Int("benchmarks", len(snap.BenchmarkComparisons)))

	return snap
}

// fillTotals sums the aggregated session and conversion inputs. Conversion
// totals come from the conversions dataset when present; a sessions-only
// ingest falls back to the session records' own conversion counts.
func (c *Calculator) fillTotals(snap *domain.MetricsSnapshot, in Inputs) {
	sessionConversions := 0
	for _, p := range in.Sessions {
		snap.TotalSessions += p.Sessions
		snap.TotalUsers += p.Users
		snap.TotalPageViews += p.PageViews
		sessionConversions += p.Conversions
	}

	for _, p := range in.Conversions {
		snap.TotalConversions += p.Conversions
		snap.TotalRevenue += p.Revenue
	}
	if len(in.Conversions) == 0 {
		snap.TotalConversions = sessionConversions
	}
}

// fillAverages computes simple means over the aggregated period list. These
// are deliberately not volume-weighted: downstream consumers expect the plain
// mean of period values.
func (c *Calculator) fillAverages(snap *domain.MetricsSnapshot, in Inputs) {
	if len(in.Sessions) == 0 {
		return
	}
	var durationSum, bounceSum float64
	for _, p := range in.Sessions {
		durationSum += p.AvgSessionDuration
		bounceSum += p.BounceRate
	}
	n := float64(len(in.Sessions))
	snap.AvgSessionDuration = durationSum / n
	snap.AvgBounceRate = bounceSum / n
}

// fillRates computes the derived ratios with division guards.
func (c *Calculator) fillRates(snap *domain.MetricsSnapshot) {
	snap.ConversionRate = safeDiv(float64(snap.TotalConversions), float64(snap.TotalSessions)) * 100
	snap.RevenuePerSession = safeDiv(snap.TotalRevenue, float64(snap.TotalSessions))
	snap.RevenuePerUser = safeDiv(snap.TotalRevenue, float64(snap.TotalUsers))
	snap.AvgRevenuePerConversion = safeDiv(snap.TotalRevenue, float64(snap.TotalConversions))
}

// rankEvents groups event periods by name and returns the top entries by
// total count, capped at the configured length.
func (c *Calculator) rankEvents(periods []domain.EventPeriod) []domain.EventRanking {
	byName := make(map[string]*domain.EventRanking)
	var order []string
	for _, p := range periods {
		r, ok := byName[p.EventName]
		if !ok {
			r = &domain.EventRanking{Name: p.EventName}
			byName[p.EventName] = r
			order = append(order, p.EventName)
		}
		r.Count += p.EventCount
		r.SessionsWithEvent += p.SessionsWithEvent
	}

	rankings := make([]domain.EventRanking, 0, len(order))
	for _, name := range order {
		rankings = append(rankings, *byName[name])
	}

	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].Count != rankings[j].Count {
			return rankings[i].Count > rankings[j].Count
		}
		return rankings[i].Name < rankings[j].Name
	})

	if len(rankings) > c.topEvents {
		rankings = rankings[:c.topEvents]
	}
	return rankings
}

// rankConversionTypes groups conversion periods by name, sorted descending by
// revenue. The list is not truncated.
func (c *Calculator) rankConversionTypes(periods []domain.ConversionPeriod) []domain.ConversionTypeSummary {
	byName := make(map[string]*domain.ConversionTypeSummary)
	var order []string
	for _, p := range periods {
		s, ok := byName[p.ConversionName]
		if !ok {
			s = &domain.ConversionTypeSummary{Name: p.ConversionName}
			byName[p.ConversionName] = s
			order = append(order, p.ConversionName)
		}
		s.Count += p.Conversions
		s.Revenue += p.Revenue
	}

	summaries := make([]domain.ConversionTypeSummary, 0, len(order))
	for _, name := range order {
		summaries = append(summaries, *byName[name])
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Revenue != summaries[j].Revenue {
			return summaries[i].Revenue > summaries[j].Revenue
		}
		return summaries[i].Name < summaries[j].Name
	})

	return summaries
}

// buildTrendPoints pairs each session period with same-period conversion
// totals. Matching prefers the identical period start/end pair and falls back
// to the raw date. Points come out sorted ascending by period start.
func (c *Calculator) buildTrendPoints(sessions []domain.SessionPeriod, conversions []domain.ConversionPeriod) []domain.TrendPoint {
	type periodTotals struct {
		conversions int
		revenue     float64
	}
	type periodKey struct {
		start time.Time
		end   time.Time
	}

	byPeriod := make(map[periodKey]*periodTotals)
	byDate := make(map[time.Time]*periodTotals)
	for _, p := range conversions {
		pk := periodKey{start: p.PeriodStart, end: p.PeriodEnd}
		t, ok := byPeriod[pk]
		if !ok {
			t = &periodTotals{}
			byPeriod[pk] = t
		}
		t.conversions += p.Conversions
		t.revenue += p.Revenue

		d, ok := byDate[p.Date]
		if !ok {
			d = &periodTotals{}
			byDate[p.Date] = d
		}
		d.conversions += p.Conversions
		d.revenue += p.Revenue
	}

	points := make([]domain.TrendPoint, 0, len(sessions))
	for _, sp := range sessions {
		point := domain.TrendPoint{
			Date:        sp.PeriodStart,
			PeriodStart: sp.PeriodStart,
			PeriodEnd:   sp.PeriodEnd,
			Sessions:    sp.Sessions,
			BounceRate:  sp.BounceRate,
		}

		if t, ok := byPeriod[periodKey{start: sp.PeriodStart, end: sp.PeriodEnd}]; ok {
			point.Conversions = t.conversions
			point.Revenue = t.revenue
		} else if t, ok := byDate[sp.Date]; ok {
			point.Conversions = t.conversions
			point.Revenue = t.revenue
		}

		points = append(points, point)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].PeriodStart.Before(points[j].PeriodStart)
	})

	return points
}

// safeDiv divides, substituting 0 for a zero denominator.
func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
