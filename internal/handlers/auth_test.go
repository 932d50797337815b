package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/carddemo/carddemo-api/internal/models"
	"github.com/carddemo/carddemo-api/internal/services"
)

type fakeAuthService struct {
	loginResp *services.LoginResponse
	loginErr  error
	user      *services.UserResponse
	userErr   error
}

func (s *fakeAuthService) Login(ctx context.Context, username, password, clientIP string) (*services.LoginResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.loginResp, nil
}

func (s *fakeAuthService) Logout(ctx context.Context, claims *models.TokenClaims, clientIP string) {}

func (s *fakeAuthService) ResolveUser(ctx context.Context, claims *models.TokenClaims) (*services.UserResponse, error) {
	if s.userErr != nil {
		return nil, s.userErr
	}
	return s.user, nil
}

func TestLoginSuccess(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{
		loginResp: &services.LoginResponse{
			AccessToken: "token",
			TokenType:   "bearer",
			ExpiresIn:   1800,
			User:        &services.UserResponse{ID: 1, Username: "alice"},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice","password":"pw"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp services.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.TokenType != "bearer" || resp.AccessToken != "token" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestLoginValidationErrorEnvelope(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"","password":""}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", body.Error.Code)
	}
	if len(body.Error.Details) != 2 {
		t.Fatalf("details count = %d, want 2", len(body.Error.Details))
	}
	if body.Error.Details[0].Field != "body.username" {
		t.Errorf("field = %q, want body.username", body.Error.Details[0].Field)
	}
	if body.Error.Details[1].Field != "body.password" {
		t.Errorf("field = %q, want body.password", body.Error.Details[1].Field)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{loginErr: models.ErrUnauthorized})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginMalformedBody(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMeWithoutClaims(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
