package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestWriteError_EnvelopeShape(t *testing.T) {
	req := httptest.NewRequest("POST", "/cards/5", nil)
	req = req.WithContext(WithCorrelationID(req.Context(), "corr-123"))
	w := httptest.NewRecorder()

	WriteError(w, req, 404, CodeNotFound, "card not found")

	if w.Code != 404 {
		t.Errorf("status: got %d, want 404", w.Code)
	}
	if got := w.Header().Get("X-Correlation-ID"); got != "corr-123" {
		t.Errorf("X-Correlation-ID header: got %q, want %q", got, "corr-123")
	}

	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid envelope JSON: %v", err)
	}
	if envelope.Error.Code != CodeNotFound {
		t.Errorf("code: got %q", envelope.Error.Code)
	}
	if envelope.Error.CorrelationID != "corr-123" {
		t.Errorf("body correlation_id: got %q, want header value", envelope.Error.CorrelationID)
	}
	if envelope.Error.Path != "/cards/5" || envelope.Error.Method != "POST" {
		t.Errorf("path/method: got %q %q", envelope.Error.Path, envelope.Error.Method)
	}
	if envelope.Error.Timestamp == "" {
		t.Error("timestamp must be set")
	}
	if envelope.Error.Details != nil {
		t.Error("details must be omitted when empty")
	}
}

func TestWriteValidationError_Details(t *testing.T) {
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req = req.WithContext(WithCorrelationID(req.Context(), "corr-val"))
	w := httptest.NewRecorder()

	WriteValidationError(w, req, []FieldError{
		{Field: "body.username", Message: "this field is required", Type: "required"},
	})

	if w.Code != 422 {
		t.Errorf("status: got %d, want 422", w.Code)
	}

	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid envelope JSON: %v", err)
	}
	if envelope.Error.Code != CodeValidationError {
		t.Errorf("code: got %q", envelope.Error.Code)
	}
	if len(envelope.Error.Details) != 1 || envelope.Error.Details[0].Field != "body.username" {
		t.Errorf("details: got %+v", envelope.Error.Details)
	}
}

func TestWriteUnauthorized_Challenge(t *testing.T) {
	req := httptest.NewRequest("GET", "/auth/me", nil)
	w := httptest.NewRecorder()

	WriteUnauthorized(w, req, "invalid or expired token")

	if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate: got %q, want Bearer", got)
	}
	if w.Code != 401 {
		t.Errorf("status: got %d, want 401", w.Code)
	}
}

func TestWriteRateLimited_RetryAfter(t *testing.T) {
	req := httptest.NewRequest("GET", "/accounts/me", nil)
	w := httptest.NewRecorder()

	WriteRateLimited(w, req)

	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After: got %q, want 60", got)
	}
	if w.Code != 429 {
		t.Errorf("status: got %d, want 429", w.Code)
	}
}

func TestCorrelationID_Fallback(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "unknown" {
		t.Errorf("missing correlation ID should read as unknown, got %q", got)
	}
}
