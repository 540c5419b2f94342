package schema

import (
	"strings"

	"sitepulse/pkg/contracts/domain"
)

// Field is one logical record field with the ordered list of header names it
// accepts. The first alias present in a batch header wins.
type Field struct {
	Name    string
	Aliases []string
}

// lookup returns the value for the field in the row and whether any alias was
// present as a column.
func (f Field) lookup(row domain.RawRow) (string, bool) {
	for _, alias := range f.Aliases {
		if v, ok := row[alias]; ok {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// Variant describes one known tabular schema for a dataset. Matching is
// structural: all Required fields must be resolvable through their aliases,
// and the Distinguishing fields score the variant against competitors.
// Variants are declared in priority order; on a specificity tie the earlier
// declaration wins.
type Variant struct {
	Name           string
	Required       []Field
	Optional       []Field
	Distinguishing []string
}

// matches reports whether every required field of the variant can be found in
// the column set.
func (v Variant) matches(columns map[string]struct{}) bool {
	for _, f := range v.Required {
		if !fieldPresent(f, columns) {
			return false
		}
	}
	return true
}

// specificity counts how many distinguishing columns are present.
func (v Variant) specificity(columns map[string]struct{}) int {
	n := 0
	for _, name := range v.Distinguishing {
		if _, ok := columns[name]; ok {
			n++
		}
	}
	return n
}

func fieldPresent(f Field, columns map[string]struct{}) bool {
	for _, alias := range f.Aliases {
		if _, ok := columns[alias]; ok {
			return true
		}
	}
	return false
}

// columnSet collects the union of column names observed across the batch.
// Exports occasionally omit trailing empty cells per row, so the union of all
// rows is the reliable view of the header.
func columnSet(batch domain.RawBatch) map[string]struct{} {
	columns := make(map[string]struct{})
	for _, row := range batch {
		for name := range row {
			columns[name] = struct{}{}
		}
	}
	return columns
}

// selectVariant picks the matching variant with the highest specificity,
// resolving ties by declaration order. Returns nil when nothing matches.
func selectVariant(variants []Variant, batch domain.RawBatch) *Variant {
	columns := columnSet(batch)

	var best *Variant
	bestScore := -1
	for i := range variants {
		v := &variants[i]
		if !v.matches(columns) {
			continue
		}
		if score := v.specificity(columns); score > bestScore {
			best = v
			bestScore = score
		}
	}
	return best
}

// Schema variants per dataset, in priority order.

var sessionVariants = []Variant{
	{
		Name: "sessions_full",
		Required: []Field{
			fieldDate,
			{Name: "sessions", Aliases: []string{"sessions", "total_sessions", "visits"}},
			{Name: "users", Aliases: []string{"users", "total_users", "visitors"}},
			{Name: "pageViews", Aliases: []string{"page_views", "pageviews", "page_views_total", "screen_page_views"}},
			{Name: "bounceRate", Aliases: []string{"bounce_rate", "bounce_rate_percent"}},
		},
		Optional: []Field{
			{Name: "avgSessionDuration", Aliases: []string{"avg_session_duration", "average_session_duration", "session_duration"}},
			{Name: "conversions", Aliases: []string{"conversions", "goal_completions"}},
		},
		Distinguishing: []string{"bounce_rate", "bounce_rate_percent", "page_views", "pageviews"},
	},
	{
		Name: "sessions_channel",
		Required: []Field{
			fieldDate,
			{Name: "channelGroup", Aliases: []string{"channel_group", "default_channel_group", "channel"}},
			{Name: "sessions", Aliases: []string{"sessions", "total_sessions", "visits"}},
			{Name: "users", Aliases: []string{"users", "total_users", "visitors"}},
		},
		Distinguishing: []string{"channel_group", "default_channel_group", "channel"},
	},
}

var campaignVariants = []Variant{
	{
		Name: "campaigns_utm",
		Required: []Field{
			{Name: "campaignName", Aliases: []string{"utm_campaign"}},
			{Name: "sourceLabel", Aliases: []string{"utm_source"}},
			fieldStartDate,
			fieldEndDate,
		},
		Distinguishing: []string{"utm_campaign", "utm_source"},
	},
	{
		Name: "campaigns_plain",
		Required: []Field{
			{Name: "campaignName", Aliases: []string{"campaign_name", "campaign", "name"}},
			{Name: "sourceLabel", Aliases: []string{"source_label", "source", "platform"}},
			fieldStartDate,
			fieldEndDate,
		},
		Distinguishing: []string{"campaign_name", "campaign", "source_label", "source"},
	},
}

var eventVariants = []Variant{
	{
		Name: "events_standard",
		Required: []Field{
			fieldDate,
			{Name: "eventName", Aliases: []string{"event_name", "event", "name"}},
			{Name: "eventCount", Aliases: []string{"event_count", "count", "total_events"}},
		},
		Optional: []Field{
			{Name: "sessionsWithEvent", Aliases: []string{"sessions_with_event", "unique_sessions", "event_sessions"}},
		},
		Distinguishing: []string{"event_name", "event_count"},
	},
}

var conversionVariants = []Variant{
	{
		Name: "conversions_standard",
		Required: []Field{
			fieldDate,
			{Name: "conversionName", Aliases: []string{"conversion_name", "goal_name", "conversion"}},
			{Name: "conversions", Aliases: []string{"conversions", "count", "completions"}},
		},
		Optional: []Field{
			{Name: "revenue", Aliases: []string{"revenue", "conversion_value", "value"}},
		},
		Distinguishing: []string{"conversion_name", "goal_name"},
	},
}

var benchmarkVariants = []Variant{
	{
		Name: "benchmarks_standard",
		Required: []Field{
			{Name: "metricName", Aliases: []string{"metric", "metric_name"}},
			{Name: "targetValue", Aliases: []string{"target_value", "target", "goal"}},
			{Name: "unit", Aliases: []string{"unit"}},
		},
		Distinguishing: []string{"metric", "metric_name", "target_value"},
	},
}

// Shared field declarations.
var (
	fieldDate      = Field{Name: "date", Aliases: []string{"date", "day", "report_date"}}
	fieldStartDate = Field{Name: "startDate", Aliases: []string{"start_date", "from", "date_from"}}
	fieldEndDate   = Field{Name: "endDate", Aliases: []string{"end_date", "to", "date_to"}}
)
