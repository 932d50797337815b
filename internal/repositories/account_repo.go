package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carddemo/carddemo-api/internal/database"
	"github.com/carddemo/carddemo-api/internal/models"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{pool: db.Pool}
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var acct models.Account
	err := scanner.Scan(
		&acct.ID, &acct.UserID, &acct.AccountNumber,
		&acct.FirstName, &acct.LastName, &acct.Phone,
		&acct.Address, &acct.City, &acct.State, &acct.ZipCode,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &acct, nil
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	query := `
		SELECT id, user_id, account_number, first_name, last_name, phone, address, city, state, zip_code, created_at, updated_at
		FROM accounts WHERE user_id = $1
	`
	return scanAccountRow(r.pool.QueryRow(ctx, query, userID))
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		SELECT id, user_id, account_number, first_name, last_name, phone, address, city, state, zip_code, created_at, updated_at
		FROM accounts WHERE id = $1
	`
	return scanAccountRow(r.pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) Create(ctx context.Context, acct *models.Account) (*models.Account, error) {
	acct.CreatedAt = time.Now()

	query := `
		INSERT INTO accounts (user_id, account_number, first_name, last_name, phone, address, city, state, zip_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, user_id, account_number, first_name, last_name, phone, address, city, state, zip_code, created_at, updated_at
	`

	created, err := scanAccountRow(r.pool.QueryRow(ctx, query,
		acct.UserID, acct.AccountNumber, acct.FirstName, acct.LastName,
		acct.Phone, acct.Address, acct.City, acct.State, acct.ZipCode, acct.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return created, nil
}

func (r *AccountRepository) Update(ctx context.Context, id int64, acct *models.Account) (*models.Account, error) {
	now := time.Now()
	acct.UpdatedAt = &now

	query := `
		UPDATE accounts
		SET first_name = $1, last_name = $2, phone = $3, address = $4, city = $5, state = $6, zip_code = $7, updated_at = $8
		WHERE id = $9
		RETURNING id, user_id, account_number, first_name, last_name, phone, address, city, state, zip_code, created_at, updated_at
	`

	return scanAccountRow(r.pool.QueryRow(ctx, query,
		acct.FirstName, acct.LastName, acct.Phone, acct.Address,
		acct.City, acct.State, acct.ZipCode, acct.UpdatedAt, id,
	))
}
