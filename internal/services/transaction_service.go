package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carddemo/carddemo-api/internal/database"
	"github.com/carddemo/carddemo-api/internal/models"
)

// TransactionRepository defines the transaction store operations the
// service needs
type TransactionRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	List(ctx context.Context, cardIDs []int64, filters models.TransactionFilters) ([]*models.Transaction, error)
	Count(ctx context.Context, cardIDs []int64, filters models.TransactionFilters) (int, error)
	CreateTx(ctx context.Context, tx pgx.Tx, txn *models.Transaction) (*models.Transaction, error)
}

// CardCreditUpdater adjusts card credit inside a database transaction
type CardCreditUpdater interface {
	UpdateAvailableCredit(ctx context.Context, tx pgx.Tx, id int64, available float64) error
}

// TransactionResponse represents a transaction in HTTP responses
type TransactionResponse struct {
	ID              int64   `json:"id"`
	CardID          int64   `json:"card_id"`
	TransactionDate string  `json:"transaction_date"`
	MerchantName    string  `json:"merchant_name"`
	Amount          float64 `json:"amount"`
	TransactionType string  `json:"transaction_type"`
	Status          string  `json:"status"`
	Description     string  `json:"description"`
}

// TransactionListResponse is a paginated transaction listing
type TransactionListResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int                    `json:"total"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

// ErrInsufficientCredit is returned when a purchase would exceed the
// card's available credit.
var ErrInsufficientCredit = errors.New("insufficient available credit")

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error
}

// TransactionService lists and records card transactions. Every operation
// is scoped to the calling user's own cards.
type TransactionService struct {
	repo    TransactionRepository
	cards   CardRepository
	credits CardCreditUpdater
	db      TxRunner
	retryer *database.Retryer
	logger  *slog.Logger
}

func NewTransactionService(repo TransactionRepository, cards CardRepository, credits CardCreditUpdater, db TxRunner, retryer *database.Retryer, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		repo:    repo,
		cards:   cards,
		credits: credits,
		db:      db,
		retryer: retryer,
		logger:  logger,
	}
}

// maxOwnedCards bounds the card lookup used for scoping queries.
const maxOwnedCards = 100

// List returns the account's transactions narrowed by the given filters.
// A card_id filter pointing at another account's card yields an empty
// result, not an error.
func (s *TransactionService) List(ctx context.Context, accountID int64, filters models.TransactionFilters) (*TransactionListResponse, error) {
	cardIDs, err := s.ownedCardIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if filters.CardID != 0 && !containsID(cardIDs, filters.CardID) {
		return &TransactionListResponse{
			Transactions: []*TransactionResponse{},
			Limit:        filters.Limit,
			Offset:       filters.Offset,
		}, nil
	}

	var txns []*models.Transaction
	err = s.retryer.Execute(ctx, "list_transactions", func(ctx context.Context) error {
		var err error
		txns, err = s.repo.List(ctx, cardIDs, filters)
		return err
	})
	if err != nil {
		s.logger.Error("failed to list transactions", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	var total int
	err = s.retryer.Execute(ctx, "count_transactions", func(ctx context.Context) error {
		var err error
		total, err = s.repo.Count(ctx, cardIDs, filters)
		return err
	})
	if err != nil {
		s.logger.Error("failed to count transactions", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	responses := make([]*TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, toTransactionResponse(txn))
	}
	return &TransactionListResponse{
		Transactions: responses,
		Total:        total,
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	}, nil
}

// Get returns one transaction if it belongs to one of the account's cards.
func (s *TransactionService) Get(ctx context.Context, accountID, txnID int64) (*TransactionResponse, error) {
	var txn *models.Transaction
	err := s.retryer.Execute(ctx, "get_transaction", func(ctx context.Context) error {
		var err error
		txn, err = s.repo.GetByID(ctx, txnID)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load transaction", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	card, err := s.cards.GetByID(ctx, txn.CardID)
	if err != nil || card.AccountID != accountID {
		return nil, models.ErrNotFound
	}
	return toTransactionResponse(txn), nil
}

// Create records a transaction and adjusts the card's available credit in
// one database transaction. Purchases decrease credit, payments and refunds
// restore it up to the credit limit.
func (s *TransactionService) Create(ctx context.Context, accountID int64, txn *models.Transaction) (*TransactionResponse, error) {
	var card *models.Card
	err := s.retryer.Execute(ctx, "get_card", func(ctx context.Context) error {
		var err error
		card, err = s.cards.GetByID(ctx, txn.CardID)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load card", slog.Any("error", err))
		return nil, models.ErrDatabase
	}
	if card.AccountID != accountID {
		return nil, models.ErrNotFound
	}
	if card.Status != models.CardStatusActive {
		return nil, models.ErrBadRequest
	}

	available := card.AvailableCredit
	switch txn.TransactionType {
	case models.TransactionTypePurchase:
		if txn.Amount > available {
			return nil, ErrInsufficientCredit
		}
		available -= txn.Amount
	case models.TransactionTypePayment, models.TransactionTypeRefund:
		available += txn.Amount
		if available > card.CreditLimit {
			available = card.CreditLimit
		}
	default:
		return nil, models.ErrBadRequest
	}

	txn.Status = models.TransactionStatusCompleted

	var created *models.Transaction
	err = s.retryer.Execute(ctx, "create_transaction", func(ctx context.Context) error {
		return s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
			var err error
			created, err = s.repo.CreateTx(ctx, tx, txn)
			if err != nil {
				return err
			}
			return s.credits.UpdateAvailableCredit(ctx, tx, card.ID, available)
		})
	})
	if err != nil {
		s.logger.Error("failed to create transaction", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	return toTransactionResponse(created), nil
}

func (s *TransactionService) ownedCardIDs(ctx context.Context, accountID int64) ([]int64, error) {
	var cards []*models.Card
	err := s.retryer.Execute(ctx, "list_cards", func(ctx context.Context) error {
		var err error
		cards, err = s.cards.ListByAccount(ctx, accountID, maxOwnedCards, 0)
		return err
	})
	if err != nil {
		s.logger.Error("failed to list cards for scoping", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	ids := make([]int64, 0, len(cards))
	for _, card := range cards {
		ids = append(ids, card.ID)
	}
	return ids, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func toTransactionResponse(txn *models.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:              txn.ID,
		CardID:          txn.CardID,
		TransactionDate: txn.TransactionDate.UTC().Format(time.RFC3339),
		MerchantName:    txn.MerchantName,
		Amount:          txn.Amount,
		TransactionType: txn.TransactionType,
		Status:          txn.Status,
		Description:     txn.Description,
	}
}
