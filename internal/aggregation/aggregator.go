package aggregation

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"sitepulse/pkg/contracts/domain"
)

// Aggregator buckets date-stamped canonical records into calendar-aligned
// periods. Summable fields are summed across folded records; rate-like fields
// (avg session duration, bounce rate) accumulate a running sum and count and
// are divided at emission time, so they come out as true means rather than
// sums.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates a period aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// bucketKey is the composite grouping key: the bucket start plus an optional
// secondary dimension (event or conversion name). Explicit struct keys keep
// grouping free of string-concatenation collisions.
type bucketKey struct {
	start time.Time
	name  string
}

// AggregateSessions folds session records into periods of the resolved
// granularity and returns them in chronological order.
func (a *Aggregator) AggregateSessions(ctx context.Context, records []domain.SessionRecord, r domain.DateRange, override domain.PeriodType) []domain.SessionPeriod {
	pt := ResolvePeriodType(r, override)

	type accum struct {
		period      domain.SessionPeriod
		durationSum float64
		bounceSum   float64
	}

	buckets := make(map[bucketKey]*accum)
	for _, rec := range records {
		start, end := BucketFor(rec.Date, pt)
		key := bucketKey{start: start}

		acc, ok := buckets[key]
		if !ok {
			acc = &accum{period: domain.SessionPeriod{
				Date:        start,
				PeriodStart: start,
				PeriodEnd:   end,
				PeriodType:  pt,
			}}
			buckets[key] = acc
		}

		acc.period.Sessions += rec.Sessions
		acc.period.Users += rec.Users
		acc.period.PageViews += rec.PageViews
		acc.period.Conversions += rec.Conversions
		acc.durationSum += rec.AvgSessionDuration
		acc.bounceSum += rec.BounceRate
		acc.period.RecordCount++
	}

	periods := make([]domain.SessionPeriod, 0, len(buckets))
	for _, acc := range buckets {
		if acc.period.RecordCount > 0 {
			acc.period.AvgSessionDuration = acc.durationSum / float64(acc.period.RecordCount)
			acc.period.BounceRate = acc.bounceSum / float64(acc.period.RecordCount)
		}
		periods = append(periods, acc.period)
	}

	sort.Slice(periods, func(i, j int) bool {
		return periods[i].PeriodStart.Before(periods[j].PeriodStart)
	})

	a.logger.DebugContext(ctx, "aggregated session records",
		slog.Int("records", len(records)),
		slog.Int("periods", len(periods)),
		slog.String("period_type", string(pt)))

	return periods
}

// AggregateEvents folds event records into periods keyed additionally by
// event name, so per-name totals stay separable.
func (a *Aggregator) AggregateEvents(ctx context.Context, records []domain.EventRecord, r domain.DateRange, override domain.PeriodType) []domain.EventPeriod {
	pt := ResolvePeriodType(r, override)

	buckets := make(map[bucketKey]*domain.EventPeriod)
	for _, rec := range records {
		start, end := BucketFor(rec.Date, pt)
		key := bucketKey{start: start, name: rec.EventName}

		p, ok := buckets[key]
		if !ok {
			p = &domain.EventPeriod{
				Date:        start,
				PeriodStart: start,
				PeriodEnd:   end,
				PeriodType:  pt,
				EventName:   rec.EventName,
			}
			buckets[key] = p
		}

		p.SessionsWithEvent += rec.SessionsWithEvent
		p.EventCount += rec.EventCount
		p.RecordCount++
	}

	periods := make([]domain.EventPeriod, 0, len(buckets))
	for _, p := range buckets {
		periods = append(periods, *p)
	}

	sort.Slice(periods, func(i, j int) bool {
		if !periods[i].PeriodStart.Equal(periods[j].PeriodStart) {
			return periods[i].PeriodStart.Before(periods[j].PeriodStart)
		}
		return periods[i].EventName < periods[j].EventName
	})

	a.logger.DebugContext(ctx, "aggregated event records",
		slog.Int("records", len(records)),
		slog.Int("periods", len(periods)),
		slog.String("period_type", string(pt)))

	return periods
}

// AggregateConversions folds conversion records into periods keyed
// additionally by conversion name.
func (a *Aggregator) AggregateConversions(ctx context.Context, records []domain.ConversionRecord, r domain.DateRange, override domain.PeriodType) []domain.ConversionPeriod {
	pt := ResolvePeriodType(r, override)

	buckets := make(map[bucketKey]*domain.ConversionPeriod)
	for _, rec := range records {
		start, end := BucketFor(rec.Date, pt)
		key := bucketKey{start: start, name: rec.ConversionName}

		p, ok := buckets[key]
		if !ok {
			p = &domain.ConversionPeriod{
				Date:           start,
				PeriodStart:    start,
				PeriodEnd:      end,
				PeriodType:     pt,
				ConversionName: rec.ConversionName,
			}
			buckets[key] = p
		}

		p.Conversions += rec.Conversions
		p.Revenue += rec.Revenue
		p.RecordCount++
	}

	periods := make([]domain.ConversionPeriod, 0, len(buckets))
	for _, p := range buckets {
		periods = append(periods, *p)
	}

	sort.Slice(periods, func(i, j int) bool {
		if !periods[i].PeriodStart.Equal(periods[j].PeriodStart) {
			return periods[i].PeriodStart.Before(periods[j].PeriodStart)
		}
		return periods[i].ConversionName < periods[j].ConversionName
	})

	a.logger.DebugContext(ctx, "aggregated conversion records",
		slog.Int("records", len(records)),
		slog.Int("periods", len(periods)),
		slog.String("period_type", string(pt)))

	return periods
}
