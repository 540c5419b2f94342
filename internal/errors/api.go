package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// NewAPI creates a new APIError with the given parameters
func NewAPI(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewAPIWithDetails creates a new APIError with additional details
func NewAPIWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	ErrInvalidRequest    = NewAPI(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrEmptyIngest       = NewAPI(http.StatusUnprocessableEntity, "EMPTY_INGEST", "All datasets in the ingestion are empty")
	ErrSnapshotMissing   = NewAPI(http.StatusNotFound, "SNAPSHOT_NOT_FOUND", "No snapshot has been computed yet")
	ErrInternalServer    = NewAPI(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrRateLimitExceeded = NewAPI(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewAPIWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// FromAppError maps an AppError onto the API error vocabulary.
func FromAppError(err *AppError) *APIError {
	switch err.Type {
	case ErrTypeEmptyInput:
		return NewAPIWithDetails(http.StatusUnprocessableEntity, "EMPTY_INGEST", err.Message, err.Context)
	case ErrTypeParsing, ErrTypeValidation:
		return NewAPIWithDetails(http.StatusBadRequest, "INVALID_REQUEST", err.Message, err.Context)
	case ErrTypeNotFound:
		return NewAPIWithDetails(http.StatusNotFound, "NOT_FOUND", err.Message, err.Context)
	default:
		return NewAPIWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", err.Message, err.Context)
	}
}
