package schema

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"sitepulse/internal/errors"
	"sitepulse/pkg/contracts/domain"
)

// Config holds resolver options.
type Config struct {
	// Seed seeds the channel-profile estimator. 0 selects a time-derived
	// seed; tests pin it for reproducible synthesis.
	Seed int64
}

// Resolver detects which schema variant each raw batch uses and maps its rows
// into canonical records. Rows that cannot be mapped are dropped and counted,
// never forwarded to validation.
type Resolver struct {
	logger *slog.Logger
	seed   int64
}

// NewResolver creates a schema resolver.
func NewResolver(logger *slog.Logger, cfg Config) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Resolver{
		logger: logger,
		seed:   seed,
	}
}

// Resolve maps every dataset batch in the set into canonical records and
// reports per-dataset resolution stats in dataset declaration order.
func (r *Resolver) Resolve(ctx context.Context, batches domain.BatchSet) (domain.RecordSet, []domain.ResolutionStats) {
	var rs domain.RecordSet
	stats := make([]domain.ResolutionStats, 0, len(domain.AllDatasetTypes))

	for _, dt := range domain.AllDatasetTypes {
		batch := batches[dt]
		var st domain.ResolutionStats
		switch dt {
		case domain.DatasetSessions:
			rs.Sessions, st = r.ResolveSessions(ctx, batch)
		case domain.DatasetCampaigns:
			rs.Campaigns, st = r.ResolveCampaigns(ctx, batch)
		case domain.DatasetEvents:
			rs.Events, st = r.ResolveEvents(ctx, batch)
		case domain.DatasetConversions:
			rs.Conversions, st = r.ResolveConversions(ctx, batch)
		case domain.DatasetBenchmarks:
			rs.Benchmarks, st = r.ResolveBenchmarks(ctx, batch)
		}
		stats = append(stats, st)
	}

	return rs, stats
}

// ResolveSessions maps a raw sessions batch into canonical session records.
// The channel-group variant synthesizes the missing dimensions and merges
// channel rows per date.
func (r *Resolver) ResolveSessions(ctx context.Context, batch domain.RawBatch) ([]domain.SessionRecord, domain.ResolutionStats) {
	stats := domain.ResolutionStats{Dataset: domain.DatasetSessions, RowsIn: len(batch)}
	if len(batch) == 0 {
		return nil, stats
	}

	variant := selectVariant(sessionVariants, batch)
	if variant == nil {
		stats.RowsDropped = len(batch)
		r.logUnresolved(ctx, domain.DatasetSessions, batch)
		return nil, stats
	}
	stats.Variant = variant.Name

	if variant.Name == "sessions_channel" {
		records := r.resolveChannelSessions(ctx, variant, batch, &stats)
		stats.RecordsOut = len(records)
		return records, stats
	}

	records := make([]domain.SessionRecord, 0, len(batch))
	for i, row := range batch {
		rec, err := mapSessionRow(variant, row)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetSessions, i, err)
			continue
		}
		records = append(records, rec)
	}
	stats.RecordsOut = len(records)
	return records, stats
}

// resolveChannelSessions extracts channel rows, synthesizes the dimensions the
// schema lacks, and merges per calendar date.
func (r *Resolver) resolveChannelSessions(ctx context.Context, variant *Variant, batch domain.RawBatch, stats *domain.ResolutionStats) []domain.SessionRecord {
	rows := make([]channelRow, 0, len(batch))
	for i, raw := range batch {
		date, err := requiredDate(variant, "date", raw)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetSessions, i, err)
			continue
		}
		channel, err := requiredString(variant, "channelGroup", raw)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetSessions, i, err)
			continue
		}
		sessions, err := requiredInt(variant, "sessions", raw)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetSessions, i, err)
			continue
		}
		users, err := requiredInt(variant, "users", raw)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetSessions, i, err)
			continue
		}
		rows = append(rows, channelRow{date: date, channel: channel, sessions: sessions, users: users})
	}
	// Each resolution owns its generator: concurrent ingests must not share
	// rng state, and a pinned seed keeps synthesis reproducible per batch.
	return mergeChannelRows(rows, rand.New(rand.NewSource(r.seed)))
}

// ResolveCampaigns maps a raw campaigns batch into canonical campaign records.
func (r *Resolver) ResolveCampaigns(ctx context.Context, batch domain.RawBatch) ([]domain.CampaignRecord, domain.ResolutionStats) {
	stats := domain.ResolutionStats{Dataset: domain.DatasetCampaigns, RowsIn: len(batch)}
	if len(batch) == 0 {
		return nil, stats
	}

	variant := selectVariant(campaignVariants, batch)
	if variant == nil {
		stats.RowsDropped = len(batch)
		r.logUnresolved(ctx, domain.DatasetCampaigns, batch)
		return nil, stats
	}
	stats.Variant = variant.Name

	records := make([]domain.CampaignRecord, 0, len(batch))
	for i, row := range batch {
		name, err := requiredString(variant, "campaignName", row)
		if err == nil {
			var source string
			source, err = requiredString(variant, "sourceLabel", row)
			if err == nil {
				var start, end time.Time
				start, err = requiredDate(variant, "startDate", row)
				if err == nil {
					end, err = requiredDate(variant, "endDate", row)
					if err == nil {
						records = append(records, domain.CampaignRecord{
							CampaignName: name,
							SourceLabel:  source,
							StartDate:    start,
							EndDate:      end,
						})
						continue
					}
				}
			}
		}
		stats.RowsDropped++
		r.logDropped(ctx, domain.DatasetCampaigns, i, err)
	}
	stats.RecordsOut = len(records)
	return records, stats
}

// ResolveEvents maps a raw events batch into canonical event records.
func (r *Resolver) ResolveEvents(ctx context.Context, batch domain.RawBatch) ([]domain.EventRecord, domain.ResolutionStats) {
	stats := domain.ResolutionStats{Dataset: domain.DatasetEvents, RowsIn: len(batch)}
	if len(batch) == 0 {
		return nil, stats
	}

	variant := selectVariant(eventVariants, batch)
	if variant == nil {
		stats.RowsDropped = len(batch)
		r.logUnresolved(ctx, domain.DatasetEvents, batch)
		return nil, stats
	}
	stats.Variant = variant.Name

	records := make([]domain.EventRecord, 0, len(batch))
	for i, row := range batch {
		date, err := requiredDate(variant, "date", row)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetEvents, i, err)
			continue
		}
		name, err := requiredString(variant, "eventName", row)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetEvents, i, err)
			continue
		}
		count, err := requiredInt(variant, "eventCount", row)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetEvents, i, err)
			continue
		}
		records = append(records, domain.EventRecord{
			Date:              date,
			EventName:         name,
			EventCount:        count,
			SessionsWithEvent: optionalInt(variant, "sessionsWithEvent", row),
		})
	}
	stats.RecordsOut = len(records)
	return records, stats
}

// ResolveConversions maps a raw conversions batch into canonical conversion
// records.
func (r *Resolver) ResolveConversions(ctx context.Context, batch domain.RawBatch) ([]domain.ConversionRecord, domain.ResolutionStats) {
	stats := domain.ResolutionStats{Dataset: domain.DatasetConversions, RowsIn: len(batch)}
	if len(batch) == 0 {
		return nil, stats
	}

	variant := selectVariant(conversionVariants, batch)
	if variant == nil {
		stats.RowsDropped = len(batch)
		r.logUnresolved(ctx, domain.DatasetConversions, batch)
		return nil, stats
	}
	stats.Variant = variant.Name

	records := make([]domain.ConversionRecord, 0, len(batch))
	for i, row := range batch {
		date, err := requiredDate(variant, "date", row)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetConversions, i, err)
			continue
		}
		name, err := requiredString(variant, "conversionName", row)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetConversions, i, err)
			continue
		}
		count, err := requiredInt(variant, "conversions", row)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetConversions, i, err)
			continue
		}
		records = append(records, domain.ConversionRecord{
			Date:           date,
			ConversionName: name,
			Conversions:    count,
			Revenue:        optionalFloat(variant, "revenue", row),
		})
	}
	stats.RecordsOut = len(records)
	return records, stats
}

// ResolveBenchmarks maps a raw benchmarks batch into canonical benchmark
// records.
func (r *Resolver) ResolveBenchmarks(ctx context.Context, batch domain.RawBatch) ([]domain.BenchmarkRecord, domain.ResolutionStats) {
	stats := domain.ResolutionStats{Dataset: domain.DatasetBenchmarks, RowsIn: len(batch)}
	if len(batch) == 0 {
		return nil, stats
	}

	variant := selectVariant(benchmarkVariants, batch)
	if variant == nil {
		stats.RowsDropped = len(batch)
		r.logUnresolved(ctx, domain.DatasetBenchmarks, batch)
		return nil, stats
	}
	stats.Variant = variant.Name

	records := make([]domain.BenchmarkRecord, 0, len(batch))
	for i, row := range batch {
		metric, err := requiredString(variant, "metricName", row)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetBenchmarks, i, err)
			continue
		}
		target, err := requiredFloat(variant, "targetValue", row)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetBenchmarks, i, err)
			continue
		}
		unit, err := requiredString(variant, "unit", row)
		if err != nil {
			stats.RowsDropped++
			r.logDropped(ctx, domain.DatasetBenchmarks, i, err)
			continue
		}
		records = append(records, domain.BenchmarkRecord{
			MetricName:  metric,
			TargetValue: target,
			Unit:        unit,
		})
	}
	stats.RecordsOut = len(records)
	return records, stats
}

// mapSessionRow maps a full-schema session row into a canonical record.
func mapSessionRow(variant *Variant, row domain.RawRow) (domain.SessionRecord, error) {
	date, err := requiredDate(variant, "date", row)
	if err != nil {
		return domain.SessionRecord{}, err
	}
	sessions, err := requiredInt(variant, "sessions", row)
	if err != nil {
		return domain.SessionRecord{}, err
	}
	users, err := requiredInt(variant, "users", row)
	if err != nil {
		return domain.SessionRecord{}, err
	}
	pageViews, err := requiredInt(variant, "pageViews", row)
	if err != nil {
		return domain.SessionRecord{}, err
	}
	bounce, err := requiredFloat(variant, "bounceRate", row)
	if err != nil {
		return domain.SessionRecord{}, err
	}

	return domain.SessionRecord{
		Date:               date,
		Sessions:           sessions,
		Users:              users,
		PageViews:          pageViews,
		BounceRate:         bounce,
		AvgSessionDuration: optionalFloat(variant, "avgSessionDuration", row),
		Conversions:        optionalInt(variant, "conversions", row),
	}, nil
}

func (r *Resolver) logDropped(ctx context.Context, dt domain.DatasetType, rowIndex int, err error) {
	r.logger.WarnContext(ctx, "dropped raw row",
		slog.String("dataset", string(dt)),
		slog.Int("row", rowIndex),
		slog.String("error", err.Error()))
}

func (r *Resolver) logUnresolved(ctx context.Context, dt domain.DatasetType, batch domain.RawBatch) {
	r.logger.WarnContext(ctx, "no schema variant matches batch",
		slog.String("dataset", string(dt)),
		slog.Int("rows", len(batch)))
}

// Field extraction helpers. Required fields produce a structural parse error
// when missing or unparseable; optional fields default to zero.

func findField(variant *Variant, name string) (Field, bool) {
	for _, f := range variant.Required {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range variant.Optional {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func requiredString(variant *Variant, name string, row domain.RawRow) (string, error) {
	f, ok := findField(variant, name)
	if !ok {
		return "", errors.NewParsingError(fmt.Sprintf("variant %s has no field %s", variant.Name, name), nil)
	}
	v, present := f.lookup(row)
	if !present || v == "" {
		return "", errors.NewParsingError(fmt.Sprintf("missing required field %s", name), nil)
	}
	return v, nil
}

func requiredDate(variant *Variant, name string, row domain.RawRow) (time.Time, error) {
	v, err := requiredString(variant, name, row)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseDate(v)
	if err != nil {
		return time.Time{}, errors.NewParsingError(fmt.Sprintf("unparseable date in field %s", name), err)
	}
	return t, nil
}

func requiredInt(variant *Variant, name string, row domain.RawRow) (int, error) {
	v, err := requiredString(variant, name, row)
	if err != nil {
		return 0, err
	}
	n, err := parseCount(v)
	if err != nil {
		return 0, errors.NewParsingError(fmt.Sprintf("unparseable number in field %s", name), err)
	}
	return n, nil
}

func requiredFloat(variant *Variant, name string, row domain.RawRow) (float64, error) {
	v, err := requiredString(variant, name, row)
	if err != nil {
		return 0, err
	}
	f, err := parseDecimal(v)
	if err != nil {
		return 0, errors.NewParsingError(fmt.Sprintf("unparseable number in field %s", name), err)
	}
	return f, nil
}

func optionalInt(variant *Variant, name string, row domain.RawRow) int {
	f, ok := findField(variant, name)
	if !ok {
		return 0
	}
	v, present := f.lookup(row)
	if !present || v == "" {
		return 0
	}
	n, err := parseCount(v)
	if err != nil {
		return 0
	}
	return n
}

func optionalFloat(variant *Variant, name string, row domain.RawRow) float64 {
	f, ok := findField(variant, name)
	if !ok {
		return 0
	}
	v, present := f.lookup(row)
	if !present || v == "" {
		return 0
	}
	d, err := parseDecimal(v)
	if err != nil {
		return 0
	}
	return d
}

// dateLayouts are the calendar date formats marketing exports use, tried in
// order.
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

// ParseDate parses a calendar date string and normalizes it to UTC midnight.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", v)
}

// parseCount parses a non-negative integer count, tolerating thousands
// separators and decimal exports of whole numbers ("1,234", "1234.0").
func parseCount(v string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if n, err := strconv.Atoi(cleaned); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	return int(f + 0.5), nil
}

// parseDecimal parses a float, tolerating thousands separators, currency
// prefixes and percent suffixes.
func parseDecimal(v string) (float64, error) {
	cleaned := strings.TrimSpace(v)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
}
