// internal/common/errors/errors.go
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ============================================================================
// ERROR CODES
// ============================================================================

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeUpstreamFetchFailed ErrorCode = "UPSTREAM_FETCH_FAILED"
	ErrCodeMethodNotAllowed    ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeHandlerDisabled     ErrorCode = "HANDLER_DISABLED"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// Caller-facing messages. Upstream detail never reaches the caller.
const (
	MessageQueryTooShort       = "Query parameter must be at least 3 characters long"
	MessageUpstreamFetchFailed = "Failed to fetch leads from amoCRM"
	MessageMethodNotAllowed    = "Method not allowed"
	MessageHandlerDisabled     = "Endpoint disabled"
	MessageInternal            = "Internal server error"
)

// StandardError is the standard error structure used across the service
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ============================================================================
// ERROR CONSTRUCTORS
// ============================================================================

// NewValidationError creates a caller input error.
func NewValidationError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamFetchError collapses any CRM failure into the single generic
// upstream error. The cause is kept for logging and errors.Is.
func NewUpstreamFetchError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeUpstreamFetchFailed,
		Message:   MessageUpstreamFetchFailed,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewMethodNotAllowedError(method string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMethodNotAllowed,
		Message:   MessageMethodNotAllowed,
		Details:   fmt.Sprintf("method: %s", method),
		Timestamp: time.Now().UTC(),
	}
}

func NewHandlerDisabledError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHandlerDisabled,
		Message:   MessageHandlerDisabled,
		Details:   fmt.Sprintf("handler: %s", name),
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   MessageInternal,
		Details:   details,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ============================================================================
// HTTP MAPPING
// ============================================================================

// HTTPStatusMapping maps error codes to response status codes.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeValidationFailed:    http.StatusBadRequest,
	ErrCodeMethodNotAllowed:    http.StatusMethodNotAllowed,
	ErrCodeHandlerDisabled:     http.StatusServiceUnavailable,
	ErrCodeUpstreamFetchFailed: http.StatusInternalServerError,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// GetHTTPStatus returns the response status for a code, 500 when unknown.
func GetHTTPStatus(code ErrorCode) int {
	if status, ok := HTTPStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ExposesDetails reports whether Details may be shown to the caller.
// Only caller mistakes do; everything else stays in the logs.
func ExposesDetails(code ErrorCode) bool {
	return code == ErrCodeValidationFailed
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "UPSTREAM"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "VALIDATION"), strings.Contains(codeStr, "METHOD"):
		return "CLIENT"
	default:
		return "OTHER"
	}
}
