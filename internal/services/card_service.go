package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/carddemo/carddemo-api/internal/crypto"
	"github.com/carddemo/carddemo-api/internal/database"
	"github.com/carddemo/carddemo-api/internal/models"
)

// CardRepository defines the card store operations the service needs
type CardRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Card, error)
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.Card, error)
	CountByAccount(ctx context.Context, accountID int64) (int, error)
	Create(ctx context.Context, card *models.Card) (*models.Card, error)
	UpdateCardNumber(ctx context.Context, id int64, cardNumber string) error
}

// CardResponse represents a card in HTTP responses. CardNumber is always
// masked; the full number never appears in a response.
type CardResponse struct {
	ID              int64   `json:"id"`
	AccountID       int64   `json:"account_id"`
	CardNumber      string  `json:"card_number"`
	CardType        string  `json:"card_type"`
	ExpiryMonth     int     `json:"expiry_month"`
	ExpiryYear      int     `json:"expiry_year"`
	Status          string  `json:"status"`
	CreditLimit     float64 `json:"credit_limit"`
	AvailableCredit float64 `json:"available_credit"`
	CreatedAt       string  `json:"created_at"`
}

// CardListResponse is a paginated card listing
type CardListResponse struct {
	Cards  []*CardResponse `json:"cards"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// CardService manages credit cards. Card numbers are encrypted before they
// reach the store and masked before they leave the service.
type CardService struct {
	repo       CardRepository
	encryption *crypto.Service
	retryer    *database.Retryer
	logger     *slog.Logger
}

func NewCardService(repo CardRepository, encryption *crypto.Service, retryer *database.Retryer, logger *slog.Logger) *CardService {
	return &CardService{
		repo:       repo,
		encryption: encryption,
		retryer:    retryer,
		logger:     logger,
	}
}

// List returns the account's cards with masked numbers.
func (s *CardService) List(ctx context.Context, accountID int64, limit, offset int) (*CardListResponse, error) {
	var cards []*models.Card
	err := s.retryer.Execute(ctx, "list_cards", func(ctx context.Context) error {
		var err error
		cards, err = s.repo.ListByAccount(ctx, accountID, limit, offset)
		return err
	})
	if err != nil {
		s.logger.Error("failed to list cards", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	var total int
	err = s.retryer.Execute(ctx, "count_cards", func(ctx context.Context) error {
		var err error
		total, err = s.repo.CountByAccount(ctx, accountID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to count cards", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	responses := make([]*CardResponse, 0, len(cards))
	for _, card := range cards {
		s.migrateLegacyCardNumber(ctx, card)
		responses = append(responses, s.toCardResponse(card))
	}

	return &CardListResponse{
		Cards:  responses,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// Get returns one card, verifying it belongs to the given account.
func (s *CardService) Get(ctx context.Context, accountID, cardID int64) (*CardResponse, error) {
	card, err := s.getOwnedCard(ctx, accountID, cardID)
	if err != nil {
		return nil, err
	}
	s.migrateLegacyCardNumber(ctx, card)
	return s.toCardResponse(card), nil
}

// Create stores a new card with the number encrypted at rest.
func (s *CardService) Create(ctx context.Context, card *models.Card) (*CardResponse, error) {
	encrypted, err := s.encryption.EncryptCardNumber(card.CardNumber)
	if err != nil {
		s.logger.Error("failed to encrypt card number", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	card.CardNumber = encrypted
	if card.Status == "" {
		card.Status = models.CardStatusActive
	}
	if card.AvailableCredit == 0 {
		card.AvailableCredit = card.CreditLimit
	}

	var created *models.Card
	err = s.retryer.Execute(ctx, "create_card", func(ctx context.Context) error {
		var err error
		created, err = s.repo.Create(ctx, card)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrBadRequest) {
			return nil, err
		}
		s.logger.Error("failed to create card", slog.Any("error", err))
		return nil, models.ErrDatabase
	}
	return s.toCardResponse(created), nil
}

// getOwnedCard loads a card and hides its existence from other accounts.
func (s *CardService) getOwnedCard(ctx context.Context, accountID, cardID int64) (*models.Card, error) {
	var card *models.Card
	err := s.retryer.Execute(ctx, "get_card", func(ctx context.Context) error {
		var err error
		card, err = s.repo.GetByID(ctx, cardID)
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
	return card, nil
}

// migrateLegacyCardNumber rewrites a plaintext card number in encrypted
// form the first time it is read. Failures only log; the read still works.
func (s *CardService) migrateLegacyCardNumber(ctx context.Context, card *models.Card) {
	if crypto.LooksEncrypted(card.CardNumber) {
		return
	}

	encrypted, err := s.encryption.EncryptCardNumber(card.CardNumber)
	if err != nil {
		s.logger.Warn("failed to encrypt legacy card number", slog.Int64("card_id", card.ID))
		return
	}
	if err := s.repo.UpdateCardNumber(ctx, card.ID, encrypted); err != nil {
		s.logger.Warn("failed to migrate legacy card number",
			slog.Int64("card_id", card.ID), slog.Any("error", err))
		return
	}
	s.logger.Info("migrated legacy card number to encrypted storage", slog.Int64("card_id", card.ID))
	card.CardNumber = encrypted
}

func (s *CardService) toCardResponse(card *models.Card) *CardResponse {
	return &CardResponse{
		ID:              card.ID,
		AccountID:       card.AccountID,
		CardNumber:      s.encryption.MaskCardNumber(card.CardNumber),
		CardType:        card.CardType,
		ExpiryMonth:     card.ExpiryMonth,
		ExpiryYear:      card.ExpiryYear,
		Status:          card.Status,
		CreditLimit:     card.CreditLimit,
		AvailableCredit: card.AvailableCredit,
		CreatedAt:       card.CreatedAt.UTC().Format(time.RFC3339),
	}
}
