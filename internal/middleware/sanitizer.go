package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/carddemo/carddemo-api/internal/crypto"
	pkghttp "github.com/carddemo/carddemo-api/pkg/http"
)

// maxSanitizedBody bounds how much request body the sanitizer will buffer.
const maxSanitizedBody = 1 << 20 // 1 MiB

// InputSanitizer strips script and SQL injection patterns from query
// parameters and JSON request bodies before handlers see them. Bodies that
// are not valid JSON pass through untouched; downstream decoding reports
// the error with full request context.
func InputSanitizer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sanitizeQuery(r)

			if hasJSONBody(r) {
				if err := sanitizeJSONBody(r); err != nil {
					logger.Warn("request body is not valid JSON, skipping sanitization",
						"correlation_id", pkghttp.CorrelationID(r.Context()),
						"path", r.URL.Path,
						"error", err.Error(),
					)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasJSONBody(r *http.Request) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return false
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

func sanitizeQuery(r *http.Request) {
	query := r.URL.Query()
	clean := make(url.Values, len(query))
	changed := false
	for key, values := range query {
		cleanKey := crypto.SanitizeInput(key)
		if cleanKey != key {
			changed = true
		}
		for i, v := range values {
			if cv := crypto.SanitizeInput(v); cv != v {
				values[i] = cv
				changed = true
			}
		}
		clean[cleanKey] = values
	}
	if changed {
		r.URL.RawQuery = clean.Encode()
	}
}

// sanitizeJSONBody decodes the body, scrubs every string value, and replaces
// the body with the re-encoded document. On decode failure the original
// bytes are restored.
func sanitizeJSONBody(r *http.Request) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSanitizedBody))
	if err != nil {
		return err
	}
	r.Body.Close()

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return err
	}

	clean, err := json.Marshal(sanitizeValue(doc))
	if err != nil {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return err
	}

	r.Body = io.NopCloser(bytes.NewReader(clean))
	r.ContentLength = int64(len(clean))
	return nil
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return crypto.SanitizeInput(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, nested := range val {
			out[crypto.SanitizeInput(k)] = sanitizeValue(nested)
		}
		return out
	case []any:
		for i, nested := range val {
			val[i] = sanitizeValue(nested)
		}
		return val
	default:
		return v
	}
}
