package domain

// ValidationIssue is one validation finding, hard or soft, tied to the field
// that produced it.
type ValidationIssue struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationResult is the outcome of validating one dataset batch. Warnings
// never affect IsValid.
type ValidationResult struct {
	IsValid  bool              `json:"is_valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// AddError appends a hard error and marks the result invalid.
func (r *ValidationResult) AddError(field, message string, value interface{}) {
	r.IsValid = false
	r.Errors = append(r.Errors, ValidationIssue{Field: field, Message: message, Value: value})
}

// AddWarning appends a soft warning.
func (r *ValidationResult) AddWarning(field, message string, value interface{}) {
	r.Warnings = append(r.Warnings, ValidationIssue{Field: field, Message: message, Value: value})
}

// IngestValidation bundles the per-dataset results with the one top-level
// result. The top level only goes invalid when every dataset is empty;
// per-dataset errors are left for the caller to weigh.
type IngestValidation struct {
	Overall  ValidationResult                  `json:"overall"`
	Datasets map[DatasetType]*ValidationResult `json:"datasets"`
}

// ResolutionStats records what the schema resolver did with one raw batch.
type ResolutionStats struct {
	Dataset     DatasetType `json:"dataset"`
	Variant     string      `json:"variant"`
	RowsIn      int         `json:"rows_in"`
	RecordsOut  int         `json:"records_out"`
	RowsDropped int         `json:"rows_dropped"`
}
