package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carddemo/carddemo-api/internal/models"
	"github.com/carddemo/carddemo-api/internal/services"
	pkghttp "github.com/carddemo/carddemo-api/pkg/http"
)

// CardServiceInterface defines the card business logic the handler needs
type CardServiceInterface interface {
	List(ctx context.Context, accountID int64, limit, offset int) (*services.CardListResponse, error)
	Get(ctx context.Context, accountID, cardID int64) (*services.CardResponse, error)
	Create(ctx context.Context, card *models.Card) (*services.CardResponse, error)
}

// CardHandler handles card HTTP requests. Every operation is scoped to the
// caller's own account.
type CardHandler struct {
	service  CardServiceInterface
	accounts AccountServiceInterface
}

func NewCardHandler(service CardServiceInterface, accounts AccountServiceInterface) *CardHandler {
	return &CardHandler{service: service, accounts: accounts}
}

// CreateCardRequest represents the request body for adding a card
type CreateCardRequest struct {
	CardNumber  string  `json:"card_number" validate:"required,min=13,max=23"`
	CardType    string  `json:"card_type" validate:"required,oneof=VISA MASTERCARD AMEX DISCOVER"`
	ExpiryMonth int     `json:"expiry_month" validate:"required,gte=1,lte=12"`
	ExpiryYear  int     `json:"expiry_year" validate:"required,gte=2024"`
	CreditLimit float64 `json:"credit_limit" validate:"required,gt=0"`
}

// List handles GET /cards
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.resolveAccount(w, r)
	if !ok {
		return
	}

	limit := clampLimit(queryInt(r, "limit", 20))
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	resp, err := h.service.List(r.Context(), acct.ID, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /cards/{id}
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.resolveAccount(w, r)
	if !ok {
		return
	}

	cardID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		pkghttp.WriteBadRequest(w, r, "Invalid card ID")
		return
	}

	card, err := h.service.Get(r.Context(), acct.ID, cardID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Create handles POST /cards
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.resolveAccount(w, r)
	if !ok {
		return
	}

	var req CreateCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if details := ValidateRequest(req); details != nil {
		pkghttp.WriteValidationError(w, r, details)
		return
	}

	card, err := h.service.Create(r.Context(), &models.Card{
		AccountID:   acct.ID,
		CardNumber:  req.CardNumber,
		CardType:    req.CardType,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
		CreditLimit: req.CreditLimit,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (h *CardHandler) resolveAccount(w http.ResponseWriter, r *http.Request) (*services.AccountResponse, bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return nil, false
	}
	acct, err := h.accounts.GetOrCreate(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return acct, true
}
