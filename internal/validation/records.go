package validation

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"sitepulse/pkg/contracts/domain"
)

// RecordValidator checks canonical records for structural and semantic
// validity. Validation never mutates records and never aborts a batch: hard
// errors and soft warnings are collected and returned as data so the caller
// can decide policy.
type RecordValidator struct {
	logger   *slog.Logger
	validate *validator.Validate
}

// NewRecordValidator creates a record validator.
func NewRecordValidator(logger *slog.Logger) *RecordValidator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	// Report struct fields under their JSON names so issue field paths match
	// the wire representation.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})

	return &RecordValidator{logger: logger, validate: v}
}

// ValidateAll validates every dataset of the record set and builds the
// top-level result. Any single dataset may be empty; only a fully empty set
// invalidates the ingestion as a whole.
func (rv *RecordValidator) ValidateAll(ctx context.Context, rs domain.RecordSet) domain.IngestValidation {
	results := map[domain.DatasetType]*domain.ValidationResult{
		domain.DatasetSessions:    rv.ValidateSessions(rs.Sessions),
		domain.DatasetCampaigns:   rv.ValidateCampaigns(rs.Campaigns),
		domain.DatasetEvents:      rv.ValidateEvents(rs.Events),
		domain.DatasetConversions: rv.ValidateConversions(rs.Conversions),
		domain.DatasetBenchmarks:  rv.ValidateBenchmarks(rs.Benchmarks),
	}

	overall := domain.ValidationResult{IsValid: true}
	if rs.IsEmpty() {
		overall.AddError("datasets", "no data supplied: all datasets are empty", nil)
	}

	errorCount := 0
	warningCount := 0
	for _, res := range results {
		errorCount += len(res.Errors)
		warningCount += len(res.Warnings)
	}
	rv.logger.InfoContext(ctx, "validation complete",
		slog.Bool("overall_valid", overall.IsValid),
		slog.Int("errors", errorCount),
		slog.Int("warnings", warningCount))

	return domain.IngestValidation{Overall: overall, Datasets: results}
}

// ValidateSessions checks session records. An empty batch is valid.
func (rv *RecordValidator) ValidateSessions(records []domain.SessionRecord) *domain.ValidationResult {
	result := &domain.ValidationResult{IsValid: true}
	for i, rec := range records {
		prefix := fmt.Sprintf("sessions[%d]", i)

		if rec.Date.IsZero() {
			result.AddError(prefix+".date", "date is missing or unparseable", nil)
		}
		rv.applyStructRules(result, prefix, rec)

		if rec.Users > rec.Sessions {
			result.AddWarning(prefix+".users", "users exceed sessions", rec.Users)
		}
		if rec.BounceRate > 80 && rec.BounceRate <= 100 {
			result.AddWarning(prefix+".bounce_rate", "bounce rate above 80 percent", rec.BounceRate)
		}
	}
	return result
}

// ValidateEvents checks event records. An empty batch is valid.
func (rv *RecordValidator) ValidateEvents(records []domain.EventRecord) *domain.ValidationResult {
	result := &domain.ValidationResult{IsValid: true}
	for i, rec := range records {
		prefix := fmt.Sprintf("events[%d]", i)

		if rec.Date.IsZero() {
			result.AddError(prefix+".date", "date is missing or unparseable", nil)
		}
		rv.applyStructRules(result, prefix, rec)

		if rec.EventCount < rec.SessionsWithEvent {
			result.AddWarning(prefix+".event_count", "event count below sessions with event", rec.EventCount)
		}
	}
	return result
}

// ValidateConversions checks conversion records. An empty batch is valid.
func (rv *RecordValidator) ValidateConversions(records []domain.ConversionRecord) *domain.ValidationResult {
	result := &domain.ValidationResult{IsValid: true}
	for i, rec := range records {
		prefix := fmt.Sprintf("conversions[%d]", i)

		if rec.Date.IsZero() {
			result.AddError(prefix+".date", "date is missing or unparseable", nil)
		}
		rv.applyStructRules(result, prefix, rec)

		if rec.Conversions > 0 && rec.Revenue == 0 {
			result.AddWarning(prefix+".revenue", "conversions exist but revenue is zero", rec.Revenue)
		}
	}
	return result
}

// ValidateCampaigns checks campaign records. An empty batch is valid.
func (rv *RecordValidator) ValidateCampaigns(records []domain.CampaignRecord) *domain.ValidationResult {
	result := &domain.ValidationResult{IsValid: true}
	for i, rec := range records {
		prefix := fmt.Sprintf("campaigns[%d]", i)

		rv.applyStructRules(result, prefix, rec)

		if rec.StartDate.IsZero() {
			result.AddError(prefix+".start_date", "start date is missing or unparseable", nil)
		}
		if rec.EndDate.IsZero() {
			result.AddError(prefix+".end_date", "end date is missing or unparseable", nil)
		}
		if !rec.StartDate.IsZero() && !rec.EndDate.IsZero() && rec.EndDate.Before(rec.StartDate) {
			result.AddError(prefix+".end_date", "end date precedes start date", rec.EndDate.Format("2006-01-02"))
		}
	}
	return result
}

// ValidateBenchmarks checks benchmark records. An empty batch is valid.
func (rv *RecordValidator) ValidateBenchmarks(records []domain.BenchmarkRecord) *domain.ValidationResult {
	result := &domain.ValidationResult{IsValid: true}
	for i, rec := range records {
		prefix := fmt.Sprintf("benchmarks[%d]", i)
		rv.applyStructRules(result, prefix, rec)
	}
	return result
}

// applyStructRules runs the tag-declared range and requiredness rules and
// folds any findings into the result as hard errors.
func (rv *RecordValidator) applyStructRules(result *domain.ValidationResult, prefix string, rec interface{}) {
	err := rv.validate.Struct(rec)
	if err == nil {
		return
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		result.AddError(prefix, err.Error(), nil)
		return
	}

	for _, fe := range validationErrs {
		result.AddError(prefix+"."+fe.Field(), ruleMessage(fe), fe.Value())
	}
}

// ruleMessage renders a tag violation as a human-readable message.
func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}
