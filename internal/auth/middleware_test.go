package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carddemo/carddemo-api/internal/models"
)

func protectedHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r)
		if claims == nil {
			t.Error("handler reached without claims in context")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareValidToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute)
	token, err := tm.Issue(testUser(), 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Middleware(tm)(protectedHandler(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestMiddlewareRejects(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute)

	expired, err := tm.Issue(testUser(), -time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	inactiveUser := testUser()
	inactiveUser.IsActive = false
	inactive, err := tm.Issue(inactiveUser, 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"bearer without token", "Bearer"},
		{"garbage token", "Bearer not-a-real-token"},
		{"expired token", "Bearer " + expired},
		{"inactive user", "Bearer " + inactive},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})
			Middleware(tm)(next).ServeHTTP(rec, req)

			if called {
				t.Error("next handler was called for rejected request")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("WWW-Authenticate = %q, want %q", got, "Bearer")
			}

			var body struct {
				Error struct {
					Code          string `json:"code"`
					CorrelationID string `json:"correlation_id"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if body.Error.Code != "UNAUTHORIZED" {
				t.Errorf("error code = %q, want UNAUTHORIZED", body.Error.Code)
			}
		})
	}
}

func TestGetClaimsWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if claims := GetClaims(req); claims != nil {
		t.Errorf("GetClaims() = %+v, want nil", claims)
	}
}

func TestMiddlewarePreservesClaims(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute)
	token, err := tm.Issue(testUser(), 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var got *models.TokenClaims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetClaims(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	Middleware(tm)(next).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("claims not found in context")
	}
	if got.Username != "alice" || got.Subject != "42" {
		t.Errorf("claims = %+v, want alice/42", got)
	}
}
