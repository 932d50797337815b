package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/carddemo/carddemo-api/internal/database"
	"github.com/carddemo/carddemo-api/internal/models"
)

// AccountRepository defines the account store operations the service needs
type AccountRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Account, error)
	Create(ctx context.Context, acct *models.Account) (*models.Account, error)
	Update(ctx context.Context, id int64, acct *models.Account) (*models.Account, error)
}

// AccountResponse represents an account in HTTP responses
type AccountResponse struct {
	ID            int64  `json:"id"`
	AccountNumber string `json:"account_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	CreatedAt     string `json:"created_at"`
}

// AccountUpdate carries the fields a user may change on their own account
type AccountUpdate struct {
	FirstName string
	LastName  string
	Phone     string
	Address   string
	City      string
	State     string
	ZipCode   string
}

// AccountService manages customer account profiles
type AccountService struct {
	repo    AccountRepository
	retryer *database.Retryer
	logger  *slog.Logger
}

func NewAccountService(repo AccountRepository, retryer *database.Retryer, logger *slog.Logger) *AccountService {
	return &AccountService{repo: repo, retryer: retryer, logger: logger}
}

// GetOrCreate returns the user's account, creating an empty profile with a
// fresh account number on first access.
func (s *AccountService) GetOrCreate(ctx context.Context, userID int64) (*AccountResponse, error) {
	var acct *models.Account
	err := s.retryer.Execute(ctx, "get_account_by_user", func(ctx context.Context) error {
		var err error
		acct, err = s.repo.GetByUserID(ctx, userID)
		return err
	})
	if err == nil {
		return toAccountResponse(acct), nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to load account", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	number, err := generateAccountNumber()
	if err != nil {
		s.logger.Error("failed to generate account number", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	err = s.retryer.Execute(ctx, "create_account", func(ctx context.Context) error {
		var err error
		acct, err = s.repo.Create(ctx, &models.Account{
			UserID:        userID,
			AccountNumber: number,
		})
		return err
	})
	if err != nil {
		// concurrent first access can race on the unique user_id constraint
		if errors.Is(err, models.ErrConflict) {
			if acct, lookupErr := s.repo.GetByUserID(ctx, userID); lookupErr == nil {
				return toAccountResponse(acct), nil
			}
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	s.logger.Info("account created", slog.Int64("user_id", userID))
	return toAccountResponse(acct), nil
}

// Update modifies the user's own account profile.
func (s *AccountService) Update(ctx context.Context, userID int64, update AccountUpdate) (*AccountResponse, error) {
	var acct *models.Account
	err := s.retryer.Execute(ctx, "get_account_by_user", func(ctx context.Context) error {
		var err error
		acct, err = s.repo.GetByUserID(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load account", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	acct.FirstName = update.FirstName
	acct.LastName = update.LastName
	acct.Phone = update.Phone
	acct.Address = update.Address
	acct.City = update.City
	acct.State = update.State
	acct.ZipCode = update.ZipCode

	var updated *models.Account
	err = s.retryer.Execute(ctx, "update_account", func(ctx context.Context) error {
		var err error
		updated, err = s.repo.Update(ctx, acct.ID, acct)
		return err
	})
	if err != nil {
		s.logger.Error("failed to update account", slog.Any("error", err))
		return nil, models.ErrDatabase
	}
	return toAccountResponse(updated), nil
}

// generateAccountNumber produces an 11-digit account number with a fixed
// prefix, matching the legacy numbering scheme.
func generateAccountNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("400%08d", n.Int64()), nil
}

func toAccountResponse(acct *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:            acct.ID,
		AccountNumber: acct.AccountNumber,
		FirstName:     acct.FirstName,
		LastName:      acct.LastName,
		Phone:         acct.Phone,
		Address:       acct.Address,
		City:          acct.City,
		State:         acct.State,
		ZipCode:       acct.ZipCode,
		CreatedAt:     acct.CreatedAt.UTC().Format(time.RFC3339),
	}
}
