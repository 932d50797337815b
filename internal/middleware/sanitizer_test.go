package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSanitizerCleansJSONBody(t *testing.T) {
	var got map[string]any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode sanitized body: %v", err)
		}
	})

	body := `{
		"username": "admin'; DROP TABLE users; --",
		"comment": "<script>alert('xss')</script>",
		"nested": {"note": "javascript:alert(1)"},
		"tags": ["ok", "eval(payload)"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/accounts/me", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	InputSanitizer(discardLogger())(next).ServeHTTP(httptest.NewRecorder(), req)

	username := got["username"].(string)
	if strings.Contains(username, "DROP TABLE") || strings.Contains(username, "--") {
		t.Errorf("username not sanitized: %q", username)
	}
	comment := got["comment"].(string)
	if strings.Contains(strings.ToLower(comment), "<script") {
		t.Errorf("comment not sanitized: %q", comment)
	}
	nested := got["nested"].(map[string]any)["note"].(string)
	if strings.Contains(strings.ToLower(nested), "javascript:") {
		t.Errorf("nested value not sanitized: %q", nested)
	}
	tags := got["tags"].([]any)
	if tags[0].(string) != "ok" {
		t.Errorf("clean value changed: %q", tags[0])
	}
	if strings.Contains(tags[1].(string), "eval(") {
		t.Errorf("array element not sanitized: %q", tags[1])
	}
}

func TestSanitizerCleansJSONObjectKeys(t *testing.T) {
	var got map[string]any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode sanitized body: %v", err)
		}
	})

	body := `{"<script>key": "value", "safe": "ok"}`
	req := httptest.NewRequest(http.MethodPost, "/accounts/me", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	InputSanitizer(discardLogger())(next).ServeHTTP(httptest.NewRecorder(), req)

	for k := range got {
		if strings.Contains(strings.ToLower(k), "<script") {
			t.Errorf("object key not sanitized: %q", k)
		}
	}
	if got["safe"] != "ok" {
		t.Errorf("clean pair changed: %v", got["safe"])
	}
}

func TestSanitizerPreservesNonStringValues(t *testing.T) {
	var got map[string]any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode sanitized body: %v", err)
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts/me", strings.NewReader(`{"amount": 42.5, "active": true, "ref": null}`))
	req.Header.Set("Content-Type", "application/json")

	InputSanitizer(discardLogger())(next).ServeHTTP(httptest.NewRecorder(), req)

	if got["amount"].(float64) != 42.5 {
		t.Errorf("amount = %v, want 42.5", got["amount"])
	}
	if got["active"].(bool) != true {
		t.Errorf("active = %v, want true", got["active"])
	}
	if got["ref"] != nil {
		t.Errorf("ref = %v, want nil", got["ref"])
	}
}

func TestSanitizerPassesMalformedJSONThrough(t *testing.T) {
	const raw = `{"broken": `
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		got = string(b)
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts/me", strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	InputSanitizer(discardLogger())(next).ServeHTTP(httptest.NewRecorder(), req)

	if got != raw {
		t.Errorf("body = %q, want original %q", got, raw)
	}
}

func TestSanitizerCleansQueryParams(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("q")
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions?q=1+OR+1%3D1&limit=10", nil)
	InputSanitizer(discardLogger())(next).ServeHTTP(httptest.NewRecorder(), req)

	if strings.Contains(got, "OR 1=1") {
		t.Errorf("query param not sanitized: %q", got)
	}
}

func TestSanitizerSkipsNonJSONBodies(t *testing.T) {
	const raw = "<script>not json</script>"
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts/me", strings.NewReader(raw))
	req.Header.Set("Content-Type", "text/plain")

	InputSanitizer(discardLogger())(next).ServeHTTP(httptest.NewRecorder(), req)

	if got != raw {
		t.Errorf("non-JSON body modified: %q", got)
	}
}
