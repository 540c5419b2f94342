package domain

import (
	"time"
)

// PeriodType defines the calendar granularity of an aggregated bucket.
type PeriodType string

const (
	PeriodDaily     PeriodType = "daily"
	PeriodWeekly    PeriodType = "weekly"
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
)

// Valid reports whether the period type is one of the known granularities.
func (p PeriodType) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly:
		return true
	}
	return false
}

// SessionPeriod is the calendar-aligned aggregate of one or more session
// records. Sessions, Users, PageViews and Conversions are sums over the folded
// records; AvgSessionDuration and BounceRate are arithmetic means.
// RecordCount is the number of records folded in, kept so that means stay
// recomputable downstream.
type SessionPeriod struct {
	Date               time.Time  `json:"date"`
	PeriodStart        time.Time  `json:"period_start"`
	PeriodEnd          time.Time  `json:"period_end"`
	PeriodType         PeriodType `json:"period_type"`
	Sessions           int        `json:"sessions"`
	Users              int        `json:"users"`
	PageViews          int        `json:"page_views"`
	Conversions        int        `json:"conversions"`
	AvgSessionDuration float64    `json:"avg_session_duration"`
	BounceRate         float64    `json:"bounce_rate"`
	RecordCount        int        `json:"record_count"`
}

// EventPeriod aggregates event records sharing a bucket and event name.
type EventPeriod struct {
	Date              time.Time  `json:"date"`
	PeriodStart       time.Time  `json:"period_start"`
	PeriodEnd         time.Time  `json:"period_end"`
	PeriodType        PeriodType `json:"period_type"`
	EventName         string     `json:"event_name"`
	SessionsWithEvent int        `json:"sessions_with_event"`
	EventCount        int        `json:"event_count"`
	RecordCount       int        `json:"record_count"`
}

// ConversionPeriod aggregates conversion records sharing a bucket and
// conversion name.
type ConversionPeriod struct {
	Date           time.Time  `json:"date"`
	PeriodStart    time.Time  `json:"period_start"`
	PeriodEnd      time.Time  `json:"period_end"`
	PeriodType     PeriodType `json:"period_type"`
	ConversionName string     `json:"conversion_name"`
	Conversions    int        `json:"conversions"`
	Revenue        float64    `json:"revenue"`
	RecordCount    int        `json:"record_count"`
}

// DateRange is an inclusive calendar date interval.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the inclusive day span of the range. A range covering a single
// calendar date spans one day.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether t falls inside the range, boundaries included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
