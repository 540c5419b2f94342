package aggregation

import (
	"time"

	"sitepulse/pkg/contracts/domain"
)

// Granularity selection boundaries, in inclusive day spans.
const (
	maxDailySpan   = 90
	maxWeeklySpan  = 365
	maxMonthlySpan = 730
)

// SelectPeriodType picks the bucket granularity from the inclusive day span
// of the date range. It is a pure function of the range; record volume never
// influences it.
func SelectPeriodType(r domain.DateRange) domain.PeriodType {
	days := r.Days()
	switch {
	case days <= maxDailySpan:
		return domain.PeriodDaily
	case days <= maxWeeklySpan:
		return domain.PeriodWeekly
	case days <= maxMonthlySpan:
		return domain.PeriodMonthly
	default:
		return domain.PeriodQuarterly
	}
}

// ResolvePeriodType applies an explicit override when one is given, else
// selects by span.
func ResolvePeriodType(r domain.DateRange, override domain.PeriodType) domain.PeriodType {
	if override.Valid() {
		return override
	}
	return SelectPeriodType(r)
}

// BucketFor computes the calendar-aligned bucket containing t for the given
// period type. The start is the bucket key; the end is the last representable
// instant of the bucket.
func BucketFor(t time.Time, pt domain.PeriodType) (start, end time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	switch pt {
	case domain.PeriodDaily:
		start = day
		end = start.AddDate(0, 0, 1).Add(-time.Millisecond)
	case domain.PeriodWeekly:
		// Weeks start on Sunday.
		start = day.AddDate(0, 0, -int(day.Weekday()))
		end = start.AddDate(0, 0, 7).Add(-time.Millisecond)
	case domain.PeriodMonthly:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0).Add(-time.Millisecond)
	case domain.PeriodQuarterly:
		quarterMonth := time.Month((int(day.Month())-1)/3*3 + 1)
		start = time.Date(day.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 3, 0).Add(-time.Millisecond)
	default:
		start = day
		end = start.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return start, end
}

// QuarterIndex returns the zero-based quarter of the year containing t.
func QuarterIndex(t time.Time) int {
	return (int(t.Month()) - 1) / 3
}
