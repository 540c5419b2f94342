package domain

import (
	"time"
)

// DatasetType identifies one of the logical datasets an ingestion batch can carry.
type DatasetType string

const (
	DatasetSessions    DatasetType = "sessions"
	DatasetCampaigns   DatasetType = "campaigns"
	DatasetEvents      DatasetType = "events"
	DatasetConversions DatasetType = "conversions"
	DatasetBenchmarks  DatasetType = "benchmarks"
)

// AllDatasetTypes lists every dataset type in declaration order. The order is
// load-bearing: per-type results are reported in this order.
var AllDatasetTypes = []DatasetType{
	DatasetSessions,
	DatasetCampaigns,
	DatasetEvents,
	DatasetConversions,
	DatasetBenchmarks,
}

// RawRow is one parsed row of a tabular export, keyed by header name.
type RawRow map[string]string

// RawBatch is the ordered row set of a single export file or API response.
type RawBatch []RawRow

// BatchSet maps dataset types to their raw row batches. Absent or empty
// entries mean the dataset was not supplied, which is not an error on its own.
type BatchSet map[DatasetType]RawBatch

// SessionRecord is one day of site-wide session metrics.
type SessionRecord struct {
	Date               time.Time `json:"date"`
	Sessions           int       `json:"sessions" validate:"min=0"`
	Users              int       `json:"users" validate:"min=0"`
	PageViews          int       `json:"page_views" validate:"min=0"`
	AvgSessionDuration float64   `json:"avg_session_duration" validate:"min=0"`
	BounceRate         float64   `json:"bounce_rate" validate:"min=0,max=100"`
	Conversions        int       `json:"conversions" validate:"min=0"`
}

// EventRecord is one day of counts for a named tracked event.
type EventRecord struct {
	Date              time.Time `json:"date"`
	EventName         string    `json:"event_name" validate:"required"`
	SessionsWithEvent int       `json:"sessions_with_event" validate:"min=0"`
	EventCount        int       `json:"event_count" validate:"min=0"`
}

// ConversionRecord is one day of conversions for a named conversion type.
type ConversionRecord struct {
	Date           time.Time `json:"date"`
	ConversionName string    `json:"conversion_name" validate:"required"`
	Conversions    int       `json:"conversions" validate:"min=0"`
	Revenue        float64   `json:"revenue" validate:"min=0"`
}

// CampaignRecord describes a marketing campaign and its flight window.
type CampaignRecord struct {
	CampaignName string    `json:"campaign_name" validate:"required"`
	SourceLabel  string    `json:"source_label" validate:"required"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}

// BenchmarkRecord is an external target value for a named metric.
type BenchmarkRecord struct {
	MetricName  string  `json:"metric_name" validate:"required"`
	TargetValue float64 `json:"target_value" validate:"min=0"`
	Unit        string  `json:"unit" validate:"required"`
}

// RecordSet holds the canonical records resolved from one BatchSet.
type RecordSet struct {
	Sessions    []SessionRecord    `json:"sessions"`
	Campaigns   []CampaignRecord   `json:"campaigns"`
	Events      []EventRecord      `json:"events"`
	Conversions []ConversionRecord `json:"conversions"`
	Benchmarks  []BenchmarkRecord  `json:"benchmarks"`
}

// IsEmpty reports whether every dataset in the set is empty.
func (rs RecordSet) IsEmpty() bool {
	return len(rs.Sessions) == 0 &&
		len(rs.Campaigns) == 0 &&
		len(rs.Events) == 0 &&
		len(rs.Conversions) == 0 &&
		len(rs.Benchmarks) == 0
}

// Len returns the number of canonical records for the given dataset type.
func (rs RecordSet) Len(dt DatasetType) int {
	switch dt {
	case DatasetSessions:
		return len(rs.Sessions)
	case DatasetCampaigns:
		return len(rs.Campaigns)
	case DatasetEvents:
		return len(rs.Events)
	case DatasetConversions:
		return len(rs.Conversions)
	case DatasetBenchmarks:
		return len(rs.Benchmarks)
	default:
		return 0
	}
}
