package handlers

import (
	"context"
	"net/http"

	"github.com/carddemo/carddemo-api/internal/services"
	pkghttp "github.com/carddemo/carddemo-api/pkg/http"
)

// AccountServiceInterface defines the account business logic the handler needs
type AccountServiceInterface interface {
	GetOrCreate(ctx context.Context, userID int64) (*services.AccountResponse, error)
	Update(ctx context.Context, userID int64, update services.AccountUpdate) (*services.AccountResponse, error)
}

// AccountHandler handles account profile HTTP requests
type AccountHandler struct {
	service AccountServiceInterface
}

func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// UpdateAccountRequest represents the request body for updating the
// caller's account profile
type UpdateAccountRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"required,min=1,max=50"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
	Address   string `json:"address" validate:"omitempty,max=100"`
	City      string `json:"city" validate:"omitempty,max=50"`
	State     string `json:"state" validate:"omitempty,len=2"`
	ZipCode   string `json:"zip_code" validate:"omitempty,min=5,max=10"`
}

// GetMe handles GET /accounts/me, creating the profile on first access
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	acct, err := h.service.GetOrCreate(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// UpdateMe handles PUT /accounts/me
func (h *AccountHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if details := ValidateRequest(req); details != nil {
		pkghttp.WriteValidationError(w, r, details)
		return
	}

	acct, err := h.service.Update(r.Context(), userID, services.AccountUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}
