package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Error codes shared across the request pipeline.
const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeDatabaseError     = "DATABASE_ERROR"
	CodeInternalError     = "INTERNAL_SERVER_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeBadRequest        = "BAD_REQUEST"
)

type contextKey string

const correlationKey contextKey = "correlation_id"

// WithCorrelationID stores the request's correlation ID in the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationID returns the correlation ID for the request, or "unknown" if
// the correlation middleware has not run.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey).(string); ok && id != "" {
		return id
	}
	return "unknown"
}

// FieldError describes a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code          string       `json:"code"`
	Message       string       `json:"message"`
	CorrelationID string       `json:"correlation_id"`
	Timestamp     string       `json:"timestamp"`
	Path          string       `json:"path"`
	Method        string       `json:"method"`
	Details       []FieldError `json:"details,omitempty"`
}

// ErrorEnvelope is the uniform shape of every error response. The correlation
// ID inside the body always matches the X-Correlation-ID response header.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// WriteError writes the standard JSON error envelope with the given status.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	writeEnvelope(w, r, statusCode, errorCode, message, nil)
}

// WriteValidationError writes a 422 envelope with field-level details.
func WriteValidationError(w http.ResponseWriter, r *http.Request, details []FieldError) {
	writeEnvelope(w, r, http.StatusUnprocessableEntity, CodeValidationError,
		"The provided data is not valid", details)
}

// WriteUnauthorized writes a 401 envelope and the WWW-Authenticate challenge.
func WriteUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeEnvelope(w, r, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

// WriteNotFound writes a 404 envelope.
func WriteNotFound(w http.ResponseWriter, r *http.Request, message string) {
	writeEnvelope(w, r, http.StatusNotFound, CodeNotFound, message, nil)
}

// WriteBadRequest writes a 400 envelope.
func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeEnvelope(w, r, http.StatusBadRequest, CodeBadRequest, message, nil)
}

// WriteDatabaseError writes the generic 500 envelope for store failures.
// No internal detail crosses the boundary.
func WriteDatabaseError(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, r, http.StatusInternalServerError, CodeDatabaseError,
		"Internal server error - database problem", nil)
}

// WriteInternalError writes the generic 500 envelope for unclassified failures.
func WriteInternalError(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, r, http.StatusInternalServerError, CodeInternalError,
		"Internal server error", nil)
}

// WriteRateLimited writes the 429 envelope with the advisory Retry-After.
func WriteRateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	writeEnvelope(w, r, http.StatusTooManyRequests, CodeRateLimitExceeded,
		"Too many requests. Try again later.", nil)
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string, details []FieldError) {
	correlationID := CorrelationID(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Correlation-ID", correlationID)
	w.WriteHeader(statusCode)

	envelope := ErrorEnvelope{
		Error: ErrorBody{
			Code:          errorCode,
			Message:       message,
			CorrelationID: correlationID,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			Path:          r.URL.Path,
			Method:        r.Method,
			Details:       details,
		},
	}

	// Encoding errors are not recoverable at this point
	_ = json.NewEncoder(w).Encode(envelope)
}
