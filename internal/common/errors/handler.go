// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"
)

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	StatusCode int       `json:"statusCode"`
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ErrorHandler renders errors as HTTP responses with standardized logging
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleHTTPError normalizes err, logs it and writes the error response.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, r *http.Request, requestID string, err error) {
	stdErr := Normalize(err)
	status := GetHTTPStatus(stdErr.Code)

	h.logError(r, requestID, status, stdErr)

	resp := ErrorResponse{
		StatusCode: status,
		Code:       stdErr.Code,
		Message:    stdErr.Message,
		RequestID:  requestID,
		Timestamp:  stdErr.Timestamp,
	}
	if ExposesDetails(stdErr.Code) {
		resp.Details = stdErr.Details
	}

	WriteJSON(w, status, resp)
}

// Normalize ensures we always have a StandardError
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// WriteJSON writes v as a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *ErrorHandler) logError(r *http.Request, requestID string, status int, stdErr *StandardError) {
	if h.logger == nil {
		return
	}

	fields := map[string]interface{}{
		"requestId":     requestID,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if r != nil {
		fields["method"] = r.Method
		fields["path"] = r.URL.Path
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields)
		return
	}
	h.logger.Warn("Request rejected", fields)
}
