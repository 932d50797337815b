package handlers

import (
	"context"
	"net/http"

	"github.com/carddemo/carddemo-api/internal/auth"
	"github.com/carddemo/carddemo-api/internal/models"
	"github.com/carddemo/carddemo-api/internal/services"
	pkghttp "github.com/carddemo/carddemo-api/pkg/http"
)

// AuthServiceInterface defines the auth business logic the handler needs
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password, clientIP string) (*services.LoginResponse, error)
	Logout(ctx context.Context, claims *models.TokenClaims, clientIP string)
	ResolveUser(ctx context.Context, claims *models.TokenClaims) (*services.UserResponse, error)
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
	Password string `json:"password" validate:"required,min=1"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if details := ValidateRequest(req); details != nil {
		pkghttp.WriteValidationError(w, r, details)
		return
	}

	resp, err := h.service.Login(r.Context(), req.Username, req.Password, pkghttp.ClientIP(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, r, "Invalid or expired token")
		return
	}

	h.service.Logout(r.Context(), claims, pkghttp.ClientIP(r))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, r, "Invalid or expired token")
		return
	}

	user, err := h.service.ResolveUser(r.Context(), claims)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
