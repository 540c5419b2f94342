// Command ingest loads exported analytics files from a directory, runs the
// reconciliation pipeline, and writes the computed snapshot to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"sitepulse/internal/config"
	apperrors "sitepulse/internal/errors"
	"sitepulse/internal/exporter"
	"sitepulse/internal/infrastructure"
	"sitepulse/internal/loader"
	"sitepulse/internal/metrics"
	"sitepulse/internal/pipeline"
	"sitepulse/internal/schema"
	"sitepulse/pkg/contracts/domain"
)

func main() {
	var (
		importDir = flag.String("in", "", "directory of exported CSV/XLSX files (default: configured import dir)")
		outputDir = flag.String("out", "", "directory for snapshot output (default: configured output dir)")
		startDate = flag.String("start", "", "reporting range start (YYYY-MM-DD, default: inferred from data)")
		endDate   = flag.String("end", "", "reporting range end (YYYY-MM-DD, default: inferred from data)")
		period    = flag.String("period", "", "force period granularity: daily, weekly, monthly, or quarterly")
		seed      = flag.Int64("seed", 0, "seed for channel traffic estimation (0 = time-derived)")
	)
	flag.Parse()

	if err := run(*importDir, *outputDir, *startDate, *endDate, *period, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "ingest failed: %v\n", err)
		os.Exit(1)
	}
}

func run(importDir, outputDir, startDate, endDate, period string, seed int64) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	if importDir == "" {
		importDir = cfg.Paths.ImportDir
	}
	if outputDir == "" {
		outputDir = cfg.Paths.OutputDir
	}
	if seed == 0 {
		seed = cfg.Ingest.ChannelSeed
	}

	req := pipeline.Request{}
	if startDate != "" {
		start, err := schema.ParseDate(startDate)
		if err != nil {
			return fmt.Errorf("invalid -start: %w", err)
		}
		req.Range.Start = start
	}
	if endDate != "" {
		end, err := schema.ParseDate(endDate)
		if err != nil {
			return fmt.Errorf("invalid -end: %w", err)
		}
		req.Range.End = end
	}
	if period != "" {
		pt := domain.PeriodType(period)
		if !pt.Valid() {
			return fmt.Errorf("invalid -period %q: expected daily, weekly, monthly, or quarterly", period)
		}
		req.PeriodOverride = pt
	}

	ctx := infrastructure.EnsureTraceID(context.Background())

	batches, err := loader.NewLoader(logger).LoadDirectory(ctx, importDir)
	if err != nil {
		return err
	}
	req.Batches = batches

	p := pipeline.New(logger, pipeline.Options{
		Resolver: pipeline.Config{Seed: seed},
		Metrics: metrics.Config{
			TopEvents:   cfg.Ingest.TopEvents,
			TrendWindow: cfg.Ingest.TrendWindow,
		},
	})

	result, err := p.Run(ctx, req)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeEmptyInput) {
			printValidation(result)
		}
		return err
	}

	writer := exporter.NewWriter(logger)
	snapshotPath := filepath.Join(outputDir, "snapshot.json")
	trendPath := filepath.Join(outputDir, "trends.csv")

	if err := writer.WriteJSON(ctx, snapshotPath, result.BatchID, result.Snapshot); err != nil {
		return err
	}
	if err := writer.WriteTrendCSV(ctx, trendPath, result.Snapshot); err != nil {
		return err
	}

	printSummary(result, snapshotPath, trendPath)
	logger.InfoContext(ctx, "ingest complete",
		slog.String("batch_id", result.BatchID),
		slog.String("output", outputDir))
	return nil
}

// printSummary writes a human-readable run summary to stdout.
func printSummary(result *pipeline.Result, snapshotPath, trendPath string) {
	snap := result.Snapshot
	fmt.Printf("Batch %s (%s granularity)\n", result.BatchID, snap.PeriodType)
	fmt.Println()

	for _, st := range result.Resolution {
		if st.RowsIn == 0 {
			continue
		}
		fmt.Printf("  %-12s %4d rows in, %4d records out (%d dropped, variant %s)\n",
			st.Dataset, st.RowsIn, st.RecordsOut, st.RowsDropped, st.Variant)
	}
	fmt.Println()

	fmt.Printf("  Sessions    %d (%d users, %.2f%% conversion rate)\n",
		snap.TotalSessions, snap.TotalUsers, snap.ConversionRate)
	fmt.Printf("  Revenue     %.2f across %d conversions\n",
		snap.TotalRevenue, snap.TotalConversions)
	fmt.Printf("  Trend       %d points, sessions %+.1f%%, revenue %+.1f%%\n",
		len(snap.TrendPoints), snap.Trends.SessionsChange, snap.Trends.RevenueChange)

	warnings := 0
	errorsCount := 0
	for _, res := range result.Validation.Datasets {
		warnings += len(res.Warnings)
		errorsCount += len(res.Errors)
	}
	if errorsCount > 0 || warnings > 0 {
		fmt.Printf("  Validation  %d errors, %d warnings\n", errorsCount, warnings)
	}

	fmt.Println()
	fmt.Printf("  Wrote %s\n", snapshotPath)
	fmt.Printf("  Wrote %s\n", trendPath)
}

// printValidation surfaces the per-dataset validation picture when a run is
// rejected for having no data.
func printValidation(result *pipeline.Result) {
	if result == nil {
		return
	}
	for _, issue := range result.Validation.Overall.Errors {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", issue.Field, issue.Message)
	}
	for _, dt := range domain.AllDatasetTypes {
		res, ok := result.Validation.Datasets[dt]
		if !ok {
			continue
		}
		for _, issue := range res.Errors {
			fmt.Fprintf(os.Stderr, "  %s: %s: %s\n", dt, issue.Field, issue.Message)
		}
	}
}
