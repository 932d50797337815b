package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carddemo/carddemo-api/internal/database"
	"github.com/carddemo/carddemo-api/internal/models"
)

type CardRepository struct {
	pool *pgxpool.Pool
}

func NewCardRepository(db *database.DB) *CardRepository {
	return &CardRepository{pool: db.Pool}
}

const cardColumns = `id, account_id, card_number, card_type, expiry_month, expiry_year, status, credit_limit, available_credit, created_at, updated_at`

func scanCardRow(scanner rowScanner) (*models.Card, error) {
	var card models.Card
	err := scanner.Scan(
		&card.ID, &card.AccountID, &card.CardNumber, &card.CardType,
		&card.ExpiryMonth, &card.ExpiryYear, &card.Status,
		&card.CreditLimit, &card.AvailableCredit,
		&card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &card, nil
}

func scanCardRows(rows pgx.Rows) ([]*models.Card, error) {
	defer rows.Close()

	cards := make([]*models.Card, 0)
	for rows.Next() {
		card, err := scanCardRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return cards, nil
}

func (r *CardRepository) GetByID(ctx context.Context, id int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	return scanCardRow(r.pool.QueryRow(ctx, query, id))
}

// ListByAccount returns the account's cards ordered by creation time.
func (r *CardRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	return scanCardRows(rows)
}

func (r *CardRepository) CountByAccount(ctx context.Context, accountID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

func (r *CardRepository) Create(ctx context.Context, card *models.Card) (*models.Card, error) {
	card.CreatedAt = time.Now()

	query := `
		INSERT INTO cards (account_id, card_number, card_type, expiry_month, expiry_year, status, credit_limit, available_credit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + cardColumns

	created, err := scanCardRow(r.pool.QueryRow(ctx, query,
		card.AccountID, card.CardNumber, card.CardType,
		card.ExpiryMonth, card.ExpiryYear, card.Status,
		card.CreditLimit, card.AvailableCredit, card.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	return created, nil
}

// UpdateCardNumber rewrites the stored card number, used when migrating
// legacy plaintext rows to encrypted form.
func (r *CardRepository) UpdateCardNumber(ctx context.Context, id int64, cardNumber string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE cards SET card_number = $1, updated_at = $2 WHERE id = $3`,
		cardNumber, time.Now(), id,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateAvailableCredit adjusts the card's remaining credit. Intended to run
// inside the same transaction that records the movement.
func (r *CardRepository) UpdateAvailableCredit(ctx context.Context, tx pgx.Tx, id int64, available float64) error {
	result, err := tx.Exec(ctx,
		`UPDATE cards SET available_credit = $1, updated_at = $2 WHERE id = $3`,
		available, time.Now(), id,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
