package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carddemo/carddemo-api/internal/models"
	"github.com/carddemo/carddemo-api/internal/services"
	pkghttp "github.com/carddemo/carddemo-api/pkg/http"
)

// TransactionServiceInterface defines the transaction business logic the
// handler needs
type TransactionServiceInterface interface {
	List(ctx context.Context, accountID int64, filters models.TransactionFilters) (*services.TransactionListResponse, error)
	Get(ctx context.Context, accountID, txnID int64) (*services.TransactionResponse, error)
	Create(ctx context.Context, accountID int64, txn *models.Transaction) (*services.TransactionResponse, error)
}

// TransactionHandler handles transaction HTTP requests
type TransactionHandler struct {
	service  TransactionServiceInterface
	accounts AccountServiceInterface
}

func NewTransactionHandler(service TransactionServiceInterface, accounts AccountServiceInterface) *TransactionHandler {
	return &TransactionHandler{service: service, accounts: accounts}
}

// CreateTransactionRequest represents the request body for recording a
// transaction
type CreateTransactionRequest struct {
	CardID          int64   `json:"card_id" validate:"required,gt=0"`
	MerchantName    string  `json:"merchant_name" validate:"required,min=1,max=100"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	TransactionType string  `json:"transaction_type" validate:"required,oneof=PURCHASE PAYMENT REFUND"`
	Description     string  `json:"description" validate:"omitempty,max=200"`
}

// List handles GET /transactions with optional filters
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.resolveAccount(w, r)
	if !ok {
		return
	}

	filters, ok := parseTransactionFilters(w, r)
	if !ok {
		return
	}

	resp, err := h.service.List(r.Context(), acct.ID, filters)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /transactions/{id}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.resolveAccount(w, r)
	if !ok {
		return
	}

	txnID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		pkghttp.WriteBadRequest(w, r, "Invalid transaction ID")
		return
	}

	txn, err := h.service.Get(r.Context(), acct.ID, txnID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// Create handles POST /transactions
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.resolveAccount(w, r)
	if !ok {
		return
	}

	var req CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if details := ValidateRequest(req); details != nil {
		pkghttp.WriteValidationError(w, r, details)
		return
	}

	txn, err := h.service.Create(r.Context(), acct.ID, &models.Transaction{
		CardID:          req.CardID,
		MerchantName:    req.MerchantName,
		Amount:          req.Amount,
		TransactionType: req.TransactionType,
		Description:     req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// parseTransactionFilters reads the listing filters from the query string.
// Malformed dates and amounts are rejected rather than silently ignored.
func parseTransactionFilters(w http.ResponseWriter, r *http.Request) (models.TransactionFilters, bool) {
	q := r.URL.Query()
	filters := models.TransactionFilters{
		Limit:  clampLimit(queryInt(r, "limit", 20)),
		Offset: queryInt(r, "offset", 0),
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	if raw := q.Get("card_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			pkghttp.WriteBadRequest(w, r, "Invalid card_id filter")
			return filters, false
		}
		filters.CardID = id
	}

	if raw := q.Get("transaction_type"); raw != "" {
		switch raw {
		case models.TransactionTypePurchase, models.TransactionTypePayment, models.TransactionTypeRefund:
			filters.TransactionType = raw
		default:
			pkghttp.WriteBadRequest(w, r, "Invalid transaction_type filter")
			return filters, false
		}
	}

	for name, dst := range map[string]**time.Time{"start_date": &filters.StartDate, "end_date": &filters.EndDate} {
		if raw := q.Get(name); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				pkghttp.WriteBadRequest(w, r, "Invalid "+name+" filter")
				return filters, false
			}
			*dst = &parsed
		}
	}

	for name, dst := range map[string]**float64{"min_amount": &filters.MinAmount, "max_amount": &filters.MaxAmount} {
		if raw := q.Get(name); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				pkghttp.WriteBadRequest(w, r, "Invalid "+name+" filter")
				return filters, false
			}
			*dst = &parsed
		}
	}

	return filters, true
}

func (h *TransactionHandler) resolveAccount(w http.ResponseWriter, r *http.Request) (*services.AccountResponse, bool) {
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
