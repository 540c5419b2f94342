package domain

import (
	"time"
)

// PerformanceLevel classifies an actual value against its benchmark target.
type PerformanceLevel string

const (
	PerformanceAbove   PerformanceLevel = "above"
	PerformanceMeeting PerformanceLevel = "meeting"
	PerformanceBelow   PerformanceLevel = "below"
)

// EventRanking is one entry of the top-events table.
type EventRanking struct {
	Name              string `json:"name"`
	Count             int    `json:"count"`
	SessionsWithEvent int    `json:"sessions_with_event"`
}

// ConversionTypeSummary is the per-conversion-name rollup, sorted by revenue.
type ConversionTypeSummary struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

// BenchmarkComparison pairs a benchmark target with the computed actual value.
type BenchmarkComparison struct {
	Metric      string           `json:"metric"`
	Target      float64          `json:"target"`
	Actual      float64          `json:"actual"`
	Unit        string           `json:"unit"`
	Percentage  float64          `json:"percentage"`
	Performance PerformanceLevel `json:"performance"`
}

// TrendPoint is one aggregated session period paired with the matching
// conversion revenue, in snapshot display order.
type TrendPoint struct {
	Date        time.Time `json:"date"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Sessions    int       `json:"sessions"`
	Conversions int       `json:"conversions"`
	Revenue     float64   `json:"revenue"`
	BounceRate  float64   `json:"bounce_rate"`
}

// CampaignPerformance sums session and conversion activity inside one
// campaign's flight window.
type CampaignPerformance struct {
	CampaignName      string    `json:"campaign_name"`
	SourceLabel       string    `json:"source_label"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	Sessions          int       `json:"sessions"`
	Conversions       int       `json:"conversions"`
	Revenue           float64   `json:"revenue"`
	ConversionRate    float64   `json:"conversion_rate"`
	RevenuePerSession float64   `json:"revenue_per_session"`
}

// TrendSummary holds window-over-window percentage deltas for the headline
// metrics. WindowSize is the number of trend points in each window.
type TrendSummary struct {
	WindowSize        int     `json:"window_size"`
	SessionsChange    float64 `json:"sessions_change_percent"`
	ConversionsChange float64 `json:"conversions_change_percent"`
	RevenueChange     float64 `json:"revenue_change_percent"`
	BounceRateChange  float64 `json:"bounce_rate_change_percent"`
}

// MetricsSnapshot is the terminal artifact of a pipeline run. All numeric
// fields are finite; ratio computations substitute 0 when the denominator
// is 0.
type MetricsSnapshot struct {
	TotalSessions    int     `json:"total_sessions"`
	TotalUsers       int     `json:"total_users"`
	TotalPageViews   int     `json:"total_page_views"`
	TotalConversions int     `json:"total_conversions"`
	TotalRevenue     float64 `json:"total_revenue"`

	AvgSessionDuration float64 `json:"avg_session_duration"`
	AvgBounceRate      float64 `json:"avg_bounce_rate"`

	ConversionRate          float64 `json:"conversion_rate"`
	RevenuePerSession       float64 `json:"revenue_per_session"`
	RevenuePerUser          float64 `json:"revenue_per_user"`
	AvgRevenuePerConversion float64 `json:"avg_revenue_per_conversion"`

	TopEvents            []EventRanking          `json:"top_events"`
	ConversionTypes      []ConversionTypeSummary `json:"conversion_types"`
	CampaignPerformance  []CampaignPerformance   `json:"campaign_performance"`
	BenchmarkComparisons []BenchmarkComparison   `json:"benchmark_comparisons"`
	TrendPoints          []TrendPoint            `json:"trend_points"`
	Trends               TrendSummary            `json:"trends"`

	PeriodType  PeriodType `json:"period_type"`
	GeneratedAt time.Time  `json:"generated_at"`
}
