package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"sitepulse/internal/aggregation"
	"sitepulse/internal/errors"
	"sitepulse/internal/infrastructure"
	"sitepulse/internal/metrics"
	"sitepulse/internal/schema"
	"sitepulse/internal/validation"
	"sitepulse/pkg/contracts/domain"
)

// Request is one ingestion run: the raw batches plus the reporting date range
// and an optional explicit period-type override.
type Request struct {
	Batches        domain.BatchSet
	Range          domain.DateRange
	PeriodOverride domain.PeriodType
}

// Result is everything a run produces. Validation and resolution stats are
// returned even when the run fails on empty input, so callers can surface
// what happened.
type Result struct {
	BatchID    string                   `json:"batch_id"`
	Snapshot   domain.MetricsSnapshot   `json:"snapshot"`
	Validation domain.IngestValidation  `json:"validation"`
	Resolution []domain.ResolutionStats `json:"resolution"`

	SessionPeriods    []domain.SessionPeriod    `json:"session_periods"`
	EventPeriods      []domain.EventPeriod      `json:"event_periods"`
	ConversionPeriods []domain.ConversionPeriod `json:"conversion_periods"`
}

// Pipeline runs the full reconciliation sequence: resolve, validate,
// aggregate, compute metrics. Dataset types are resolved concurrently and
// joined before validation and aggregation, since metrics depend on all of
// them. Each stage is a pure transform; nothing is mutated after a stage
// emits it.
type Pipeline struct {
	logger     *slog.Logger
	resolver   *schema.Resolver
	validator  *validation.RecordValidator
	aggregator *aggregation.Aggregator
	calculator *metrics.Calculator
	meters     *infrastructure.IngestMetrics
	tracer     trace.Tracer
}

// Options configures a pipeline.
type Options struct {
	Resolver Config
	Metrics  metrics.Config
	Meters   *infrastructure.IngestMetrics
	Tracer   trace.Tracer
}

// Config aliases the resolver options so callers only import this package.
type Config = schema.Config

// New creates a pipeline with its stage components.
func New(logger *slog.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		resolver:   schema.NewResolver(logger, opts.Resolver),
		validator:  validation.NewRecordValidator(logger),
		aggregator: aggregation.NewAggregator(logger),
		calculator: metrics.NewCalculator(logger, opts.Metrics),
		meters:     opts.Meters,
		tracer:     opts.Tracer,
	}
}

// Run executes one ingestion. The only fatal condition is a fully empty
// input; parse and validation problems are returned inside the result.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	batchID := uuid.New().String()
	started := time.Now()

	var span trace.Span
	if p.tracer != nil {
		ctx, span = p.tracer.Start(ctx, "pipeline.run",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attribute.String("batch.id", batchID)))
		defer span.End()
	}

	if p.meters != nil {
		p.meters.ActiveIngests.Add(ctx, 1)
		defer p.meters.ActiveIngests.Add(ctx, -1)
		p.meters.BatchesTotal.Add(ctx, 1)
	}

	p.logger.InfoContext(ctx, "pipeline run starting",
		slog.String("batch_id", batchID),
		slog.Int("datasets", len(req.Batches)))

	records, stats := p.resolveStage(ctx, req.Batches)
	ingestValidation := p.validateStage(ctx, records)

	result := &Result{
		BatchID:    batchID,
		Validation: ingestValidation,
		Resolution: stats,
	}

	if records.IsEmpty() {
		err := errors.NewEmptyInputError().WithContext("batch_id", batchID)
		p.logger.WarnContext(ctx, "pipeline run rejected: no data",
			slog.String("batch_id", batchID))
		if span != nil {
			span.SetStatus(codes.Error, err.Message)
		}
		return result, err
	}

	dateRange := req.Range
	if dateRange.Start.IsZero() || dateRange.End.IsZero() {
		dateRange = InferRange(records)
	}

	p.aggregateStage(ctx, result, records, dateRange, req.PeriodOverride)

	snapStart := time.Now()
	result.Snapshot = p.calculator.Snapshot(ctx, metrics.Inputs{
		Sessions:    result.SessionPeriods,
		Events:      result.EventPeriods,
		Conversions: result.ConversionPeriods,
		Campaigns:   records.Campaigns,
		Benchmarks:  records.Benchmarks,
		PeriodType:  aggregation.ResolvePeriodType(dateRange, req.PeriodOverride),
	})
	p.recordStage(ctx, "metrics", snapStart)

	p.logger.InfoContext(ctx, "pipeline run complete",
		slog.String("batch_id", batchID),
		slog.Duration("elapsed", time.Since(started)),
		slog.String("period_type", string(result.Snapshot.PeriodType)),
		slog.Int("trend_points", len(result.Snapshot.TrendPoints)))

	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
	return result, nil
}

// resolveStage maps all raw batches concurrently, one goroutine per dataset
// type. Each goroutine owns its slice of the record set, so no locking is
// needed.
func (p *Pipeline) resolveStage(ctx context.Context, batches domain.BatchSet) (domain.RecordSet, []domain.ResolutionStats) {
	start := time.Now()
	defer p.recordStage(ctx, "resolve", start)

	var rs domain.RecordSet
	statsByType := make(map[domain.DatasetType]domain.ResolutionStats, len(domain.AllDatasetTypes))
	statsCh := make(chan domain.ResolutionStats, len(domain.AllDatasetTypes))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var st domain.ResolutionStats
		rs.Sessions, st = p.resolver.ResolveSessions(gctx, batches[domain.DatasetSessions])
		statsCh <- st
		return nil
	})
	g.Go(func() error {
		var st domain.ResolutionStats
		rs.Campaigns, st = p.resolver.ResolveCampaigns(gctx, batches[domain.DatasetCampaigns])
		statsCh <- st
		return nil
	})
	g.Go(func() error {
		var st domain.ResolutionStats
		rs.Events, st = p.resolver.ResolveEvents(gctx, batches[domain.DatasetEvents])
		statsCh <- st
		return nil
	})
	g.Go(func() error {
		var st domain.ResolutionStats
		rs.Conversions, st = p.resolver.ResolveConversions(gctx, batches[domain.DatasetConversions])
		statsCh <- st
		return nil
	})
	g.Go(func() error {
		var st domain.ResolutionStats
		rs.Benchmarks, st = p.resolver.ResolveBenchmarks(gctx, batches[domain.DatasetBenchmarks])
		statsCh <- st
		return nil
	})
	_ = g.Wait()
	close(statsCh)

	for st := range statsCh {
		statsByType[st.Dataset] = st
	}

	stats := make([]domain.ResolutionStats, 0, len(domain.AllDatasetTypes))
	for _, dt := range domain.AllDatasetTypes {
		st := statsByType[dt]
		st.Dataset = dt
		stats = append(stats, st)
		if p.meters != nil {
			p.meters.RowsParsed.Add(ctx, int64(st.RecordsOut),
				metric.WithAttributes(attribute.String("dataset", string(dt))))
			p.meters.RowsDropped.Add(ctx, int64(st.RowsDropped),
				metric.WithAttributes(attribute.String("dataset", string(dt))))
		}
	}
	return rs, stats
}

// validateStage runs the record validator over the joined record set. The
// validator owns the per-type checks and the top-level verdict; the stage
// only adds timing and meter reporting.
func (p *Pipeline) validateStage(ctx context.Context, rs domain.RecordSet) domain.IngestValidation {
	start := time.Now()
	defer p.recordStage(ctx, "validate", start)

	iv := p.validator.ValidateAll(ctx, rs)

	if p.meters != nil {
		errorCount := 0
		for _, res := range iv.Datasets {
			errorCount += len(res.Errors)
		}
		if errorCount > 0 {
			p.meters.ValidationErrors.Add(ctx, int64(errorCount))
		}
	}
	return iv
}

// aggregateStage buckets the three time-series datasets.
func (p *Pipeline) aggregateStage(ctx context.Context, result *Result, rs domain.RecordSet, r domain.DateRange, override domain.PeriodType) {
	start := time.Now()
	defer p.recordStage(ctx, "aggregate", start)

	result.SessionPeriods = p.aggregator.AggregateSessions(ctx, rs.Sessions, r, override)
	result.EventPeriods = p.aggregator.AggregateEvents(ctx, rs.Events, r, override)
	result.ConversionPeriods = p.aggregator.AggregateConversions(ctx, rs.Conversions, r, override)
}

// recordStage reports a stage duration to the meter set if one is wired.
func (p *Pipeline) recordStage(ctx context.Context, stage string, start time.Time) {
	if p.meters == nil {
		return
	}
	p.meters.StageDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
}

// InferRange derives the reporting range from the earliest and latest record
// dates when the caller did not supply one.
func InferRange(rs domain.RecordSet) domain.DateRange {
	var r domain.DateRange

	observe := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if r.Start.IsZero() || t.Before(r.Start) {
			r.Start = t
		}
		if r.End.IsZero() || t.After(r.End) {
			r.End = t
		}
	}

	for _, rec := range rs.Sessions {
		observe(rec.Date)
	}
	for _, rec := range rs.Events {
		observe(rec.Date)
	}
	for _, rec := range rs.Conversions {
		observe(rec.Date)
	}
	return r
}
