package schema

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/pkg/contracts/domain"
)

func newTestResolver(seed int64) *Resolver {
	return NewResolver(nil, Config{Seed: seed})
}

func fullSessionRow(date string) domain.RawRow {
	return domain.RawRow{
		"date":        date,
		"sessions":    "1,200",
		"users":       "950",
		"page_views":  "3400",
		"bounce_rate": "45.5%",
	}
}

func TestResolveSessions_FullVariant(t *testing.T) {
	r := newTestResolver(1)

	row := fullSessionRow("2024-06-01")
	row["avg_session_duration"] = "182.4"
	row["conversions"] = "24"

	records, stats := r.ResolveSessions(context.Background(), domain.RawBatch{row})
	require.Len(t, records, 1)

	assert.Equal(t, "sessions_full", stats.Variant)
	assert.Equal(t, 1, stats.RowsIn)
	assert.Equal(t, 1, stats.RecordsOut)
	assert.Zero(t, stats.RowsDropped)

	rec := records[0]
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, 1200, rec.Sessions)
	assert.Equal(t, 950, rec.Users)
	assert.Equal(t, 3400, rec.PageViews)
	assert.InDelta(t, 45.5, rec.BounceRate, 1e-9)
	assert.InDelta(t, 182.4, rec.AvgSessionDuration, 1e-9)
	assert.Equal(t, 24, rec.Conversions)
}

func TestResolveSessions_AliasedHeaders(t *testing.T) {
	r := newTestResolver(1)

	records, stats := r.ResolveSessions(context.Background(), domain.RawBatch{{
		"day":         "2024/06/01",
		"visits":      "100",
		"visitors":    "90",
		"pageviews":   "250",
		"bounce_rate": "50",
	}})
	require.Len(t, records, 1)
	assert.Equal(t, "sessions_full", stats.Variant)
	assert.Equal(t, 100, records[0].Sessions)
	assert.Equal(t, 90, records[0].Users)
}

func TestResolveSessions_DropsBadRows(t *testing.T) {
	r := newTestResolver(1)

	batch := domain.RawBatch{
		fullSessionRow("2024-06-01"),
		fullSessionRow("not a date"),
		func() domain.RawRow {
			row := fullSessionRow("2024-06-03")
			row["users"] = ""
			return row
		}(),
	}

	records, stats := r.ResolveSessions(context.Background(), batch)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, stats.RowsIn)
	assert.Equal(t, 1, stats.RecordsOut)
	assert.Equal(t, 2, stats.RowsDropped)
}

func TestResolveSessions_NoMatchingVariant(t *testing.T) {
	r := newTestResolver(1)

	records, stats := r.ResolveSessions(context.Background(), domain.RawBatch{
		{"foo": "1", "bar": "2"},
	})
	assert.Empty(t, records)
	assert.Empty(t, stats.Variant)
	assert.Equal(t, 1, stats.RowsDropped)
}

func TestResolveSessions_ChannelVariant(t *testing.T) {
	r := newTestResolver(42)

	batch := domain.RawBatch{
		{"date": "2024-06-01", "channel_group": "Organic Search", "sessions": "400", "users": "350"},
		{"date": "2024-06-01", "channel_group": "Direct", "sessions": "100", "users": "90"},
		{"date": "2024-06-02", "channel_group": "Email", "sessions": "50", "users": "45"},
	}

	records, stats := r.ResolveSessions(context.Background(), batch)
	require.Len(t, records, 2)
	assert.Equal(t, "sessions_channel", stats.Variant)
	assert.Equal(t, 2, stats.RecordsOut)

	// Channel rows sharing a date merge into one record per date.
	first := records[0]
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 500, first.Sessions)
	assert.Equal(t, 440, first.Users)

	// Synthesized dimensions land inside their legal ranges.
	assert.Greater(t, first.PageViews, 0)
	assert.Greater(t, first.AvgSessionDuration, 0.0)
	assert.GreaterOrEqual(t, first.BounceRate, 0.0)
	assert.LessOrEqual(t, first.BounceRate, 100.0)

	assert.True(t, records[0].Date.Before(records[1].Date))
}

func TestResolveSessions_ChannelSynthesisDeterministic(t *testing.T) {
	batch := domain.RawBatch{
		{"date": "2024-06-01", "channel_group": "social", "sessions": "200", "users": "180"},
		{"date": "2024-06-02", "channel_group": "referral", "sessions": "120", "users": "100"},
	}

	first, _ := newTestResolver(7).ResolveSessions(context.Background(), batch)
	second, _ := newTestResolver(7).ResolveSessions(context.Background(), batch)

	assert.Equal(t, first, second)
}

func TestResolveSessions_ChannelSynthesisConcurrent(t *testing.T) {
	r := newTestResolver(7)

	batch := domain.RawBatch{
		{"date": "2024-06-01", "channel_group": "Organic Search", "sessions": "400", "users": "350"},
		{"date": "2024-06-01", "channel_group": "social", "sessions": "200", "users": "180"},
		{"date": "2024-06-02", "channel_group": "Email", "sessions": "50", "users": "45"},
	}

	baseline, _ := r.ResolveSessions(context.Background(), batch)

	// Concurrent resolutions on one resolver each own their generator, so
	// every run yields the baseline records.
	const workers = 8
	results := make([][]domain.SessionRecord, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.ResolveSessions(context.Background(), batch)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		assert.Equal(t, baseline, results[i])
	}
}

func TestResolveCampaigns(t *testing.T) {
	r := newTestResolver(1)

	t.Run("utm variant wins when utm columns present", func(t *testing.T) {
		records, stats := r.ResolveCampaigns(context.Background(), domain.RawBatch{{
			"utm_campaign": "spring_launch",
			"utm_source":   "newsletter",
			"start_date":   "2024-03-01",
			"end_date":     "2024-03-31",
		}})
		require.Len(t, records, 1)
		assert.Equal(t, "campaigns_utm", stats.Variant)
		assert.Equal(t, "spring_launch", records[0].CampaignName)
		assert.Equal(t, "newsletter", records[0].SourceLabel)
	})

	t.Run("plain variant", func(t *testing.T) {
		records, stats := r.ResolveCampaigns(context.Background(), domain.RawBatch{{
			"campaign_name": "brand_awareness",
			"source":        "display",
			"start_date":    "2024-01-15",
			"end_date":      "2024-02-15",
		}})
		require.Len(t, records, 1)
		assert.Equal(t, "campaigns_plain", stats.Variant)
	})

	t.Run("missing end date drops the row", func(t *testing.T) {
		records, stats := r.ResolveCampaigns(context.Background(), domain.RawBatch{{
			"campaign_name": "incomplete",
			"source":        "display",
			"start_date":    "2024-01-15",
			"end_date":      "",
		}})
		assert.Empty(t, records)
		assert.Equal(t, 1, stats.RowsDropped)
	})
}

func TestResolveEvents(t *testing.T) {
	r := newTestResolver(1)

	records, stats := r.ResolveEvents(context.Background(), domain.RawBatch{
		{"date": "2024-06-01", "event_name": "signup", "event_count": "42", "sessions_with_event": "30"},
		{"date": "2024-06-01", "event_name": "download", "event_count": "17"},
		{"date": "2024-06-01", "event_name": "", "event_count": "5"},
	})
	require.Len(t, records, 2)
	assert.Equal(t, "events_standard", stats.Variant)
	assert.Equal(t, 1, stats.RowsDropped)

	assert.Equal(t, "signup", records[0].EventName)
	assert.Equal(t, 42, records[0].EventCount)
	assert.Equal(t, 30, records[0].SessionsWithEvent)
	// Optional column absent defaults to zero.
	assert.Zero(t, records[1].SessionsWithEvent)
}

func TestResolveConversions(t *testing.T) {
	r := newTestResolver(1)

	records, stats := r.ResolveConversions(context.Background(), domain.RawBatch{
		{"date": "2024-06-01", "conversion_name": "purchase", "conversions": "12", "revenue": "$1,500.50"},
		{"date": "2024-06-01", "goal_name": "lead", "completions": "8"},
	})
	require.Len(t, records, 2)
	assert.Equal(t, "conversions_standard", stats.Variant)

	assert.Equal(t, "purchase", records[0].ConversionName)
	assert.Equal(t, 12, records[0].Conversions)
	assert.InDelta(t, 1500.50, records[0].Revenue, 1e-9)

	assert.Equal(t, "lead", records[1].ConversionName)
	assert.Equal(t, 8, records[1].Conversions)
	assert.InDelta(t, 0.0, records[1].Revenue, 1e-9)
}

func TestResolveBenchmarks(t *testing.T) {
	r := newTestResolver(1)

	records, stats := r.ResolveBenchmarks(context.Background(), domain.RawBatch{
		{"metric": "conversion_rate_percent", "target": "3.5", "unit": "percent"},
		{"metric_name": "total_sessions", "target_value": "10,000", "unit": "count"},
		{"metric": "broken", "target": "abc", "unit": "count"},
	})
	require.Len(t, records, 2)
	assert.Equal(t, "benchmarks_standard", stats.Variant)
	assert.Equal(t, 1, stats.RowsDropped)

	assert.Equal(t, "conversion_rate_percent", records[0].MetricName)
	assert.InDelta(t, 3.5, records[0].TargetValue, 1e-9)
	assert.InDelta(t, 10000.0, records[1].TargetValue, 1e-9)
}

func TestResolve_AllDatasets(t *testing.T) {
	r := newTestResolver(1)

	batches := domain.BatchSet{
		domain.DatasetSessions: {fullSessionRow("2024-06-01")},
		domain.DatasetEvents: {
			{"date": "2024-06-01", "event_name": "signup", "event_count": "3"},
		},
	}

	rs, stats := r.Resolve(context.Background(), batches)
	assert.Len(t, rs.Sessions, 1)
	assert.Len(t, rs.Events, 1)
	assert.Empty(t, rs.Campaigns)

	// Stats come back in dataset declaration order, including empty datasets.
	require.Len(t, stats, len(domain.AllDatasetTypes))
	for i, dt := range domain.AllDatasetTypes {
		assert.Equal(t, dt, stats[i].Dataset)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "2024-06-01", want: want},
		{input: "20240601", want: want},
		{input: "2024/06/01", want: want},
		{input: "06/01/2024", want: want},
		{input: "2024-06-01T15:30:00Z", want: want},
		{input: "  2024-06-01  ", want: want},
		{input: "June 1st", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "1234", want: 1234},
		{input: "1,234", want: 1234},
		{input: "1234.0", want: 1234},
		{input: "1234.6", want: 1235},
		{input: "0", want: 0},
		{input: "n/a", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseCount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "45.5", want: 45.5},
		{input: "45.5%", want: 45.5},
		{input: "$1,500.50", want: 1500.50},
		{input: "0", want: 0},
		{input: "--", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDecimal(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
