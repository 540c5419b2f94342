package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validSession() domain.SessionRecord {
	return domain.SessionRecord{
		Date:               date(2024, time.June, 1),
		Sessions:           100,
		Users:              80,
		PageViews:          300,
		AvgSessionDuration: 120,
		BounceRate:         45,
		Conversions:        3,
	}
}

func fieldsOf(issues []domain.ValidationIssue) []string {
	fields := make([]string, 0, len(issues))
	for _, issue := range issues {
		fields = append(fields, issue.Field)
	}
	return fields
}

func TestValidateSessions(t *testing.T) {
	rv := NewRecordValidator(nil)

	t.Run("clean record passes", func(t *testing.T) {
		result := rv.ValidateSessions([]domain.SessionRecord{validSession()})
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
		assert.Empty(t, result.Warnings)
	})

	t.Run("empty batch is valid", func(t *testing.T) {
		result := rv.ValidateSessions(nil)
		assert.True(t, result.IsValid)
	})

	t.Run("zero date is an error", func(t *testing.T) {
		rec := validSession()
		rec.Date = time.Time{}
		result := rv.ValidateSessions([]domain.SessionRecord{rec})
		assert.False(t, result.IsValid)
		assert.Contains(t, fieldsOf(result.Errors), "sessions[0].date")
	})

	t.Run("bounce rate above 100 is an error", func(t *testing.T) {
		rec := validSession()
		rec.BounceRate = 150
		result := rv.ValidateSessions([]domain.SessionRecord{rec})
		assert.False(t, result.IsValid)
		assert.Contains(t, fieldsOf(result.Errors), "sessions[0].bounce_rate")
	})

	t.Run("negative sessions is an error", func(t *testing.T) {
		rec := validSession()
		rec.Sessions = -1
		result := rv.ValidateSessions([]domain.SessionRecord{rec})
		assert.False(t, result.IsValid)
		assert.Contains(t, fieldsOf(result.Errors), "sessions[0].sessions")
	})

	t.Run("users exceeding sessions is a warning", func(t *testing.T) {
		rec := validSession()
		rec.Users = 150
		result := rv.ValidateSessions([]domain.SessionRecord{rec})
		assert.True(t, result.IsValid)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "sessions[0].users", result.Warnings[0].Field)
	})

	t.Run("high but legal bounce rate is a warning", func(t *testing.T) {
		rec := validSession()
		rec.BounceRate = 85
		result := rv.ValidateSessions([]domain.SessionRecord{rec})
		assert.True(t, result.IsValid)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "sessions[0].bounce_rate", result.Warnings[0].Field)
	})

	t.Run("issues index the offending record", func(t *testing.T) {
		bad := validSession()
		bad.BounceRate = 120
		result := rv.ValidateSessions([]domain.SessionRecord{validSession(), bad})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "sessions[1].bounce_rate", result.Errors[0].Field)
	})
}

func TestValidateEvents(t *testing.T) {
	rv := NewRecordValidator(nil)

	t.Run("missing event name is an error", func(t *testing.T) {
		result := rv.ValidateEvents([]domain.EventRecord{
			{Date: date(2024, time.June, 1), EventCount: 5},
		})
		assert.False(t, result.IsValid)
		assert.Contains(t, fieldsOf(result.Errors), "events[0].event_name")
	})

	t.Run("count below session count is a warning", func(t *testing.T) {
		result := rv.ValidateEvents([]domain.EventRecord{
			{Date: date(2024, time.June, 1), EventName: "signup", EventCount: 3, SessionsWithEvent: 10},
		})
		assert.True(t, result.IsValid)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "events[0].event_count", result.Warnings[0].Field)
	})
}

func TestValidateConversions(t *testing.T) {
	rv := NewRecordValidator(nil)

	t.Run("negative revenue is an error", func(t *testing.T) {
		result := rv.ValidateConversions([]domain.ConversionRecord{
			{Date: date(2024, time.June, 1), ConversionName: "purchase", Conversions: 1, Revenue: -5},
		})
		assert.False(t, result.IsValid)
		assert.Contains(t, fieldsOf(result.Errors), "conversions[0].revenue")
	})

	t.Run("conversions without revenue is a warning", func(t *testing.T) {
		result := rv.ValidateConversions([]domain.ConversionRecord{
			{Date: date(2024, time.June, 1), ConversionName: "purchase", Conversions: 4},
		})
		assert.True(t, result.IsValid)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "conversions[0].revenue", result.Warnings[0].Field)
	})
}

func TestValidateCampaigns(t *testing.T) {
	rv := NewRecordValidator(nil)

	t.Run("flight window in order passes", func(t *testing.T) {
		result := rv.ValidateCampaigns([]domain.CampaignRecord{{
			CampaignName: "spring",
			SourceLabel:  "email",
			StartDate:    date(2024, time.March, 1),
			EndDate:      date(2024, time.March, 31),
		}})
		assert.True(t, result.IsValid)
	})

	t.Run("end before start is an error", func(t *testing.T) {
		result := rv.ValidateCampaigns([]domain.CampaignRecord{{
			CampaignName: "backwards",
			SourceLabel:  "email",
			StartDate:    date(2024, time.March, 31),
			EndDate:      date(2024, time.March, 1),
		}})
		assert.False(t, result.IsValid)
		assert.Contains(t, fieldsOf(result.Errors), "campaigns[0].end_date")
	})

	t.Run("single day flight is legal", func(t *testing.T) {
		result := rv.ValidateCampaigns([]domain.CampaignRecord{{
			CampaignName: "flash_sale",
			SourceLabel:  "social",
			StartDate:    date(2024, time.March, 1),
			EndDate:      date(2024, time.March, 1),
		}})
		assert.True(t, result.IsValid)
	})
}

func TestValidateBenchmarks(t *testing.T) {
	rv := NewRecordValidator(nil)

	result := rv.ValidateBenchmarks([]domain.BenchmarkRecord{
		{MetricName: "conversion_rate_percent", TargetValue: 3.5, Unit: "percent"},
		{MetricName: "", TargetValue: 10, Unit: "count"},
	})
	assert.False(t, result.IsValid)
	assert.Contains(t, fieldsOf(result.Errors), "benchmarks[1].metric_name")
}

func TestValidateAll(t *testing.T) {
	rv := NewRecordValidator(nil)

	t.Run("fully empty set fails overall", func(t *testing.T) {
		validation := rv.ValidateAll(context.Background(), domain.RecordSet{})
		assert.False(t, validation.Overall.IsValid)
		require.Len(t, validation.Overall.Errors, 1)
		assert.Equal(t, "datasets", validation.Overall.Errors[0].Field)
	})

	t.Run("one populated dataset is enough", func(t *testing.T) {
		validation := rv.ValidateAll(context.Background(), domain.RecordSet{
			Benchmarks: []domain.BenchmarkRecord{
				{MetricName: "total_sessions", TargetValue: 1000, Unit: "count"},
			},
		})
		assert.True(t, validation.Overall.IsValid)
		assert.Len(t, validation.Datasets, len(domain.AllDatasetTypes))
	})

	t.Run("per dataset errors leave overall verdict intact", func(t *testing.T) {
		rec := validSession()
		rec.BounceRate = 120
		validation := rv.ValidateAll(context.Background(), domain.RecordSet{
			Sessions: []domain.SessionRecord{rec},
		})
		assert.True(t, validation.Overall.IsValid)
		assert.False(t, validation.Datasets[domain.DatasetSessions].IsValid)
	})
}
