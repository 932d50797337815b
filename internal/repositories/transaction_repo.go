package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carddemo/carddemo-api/internal/database"
	"github.com/carddemo/carddemo-api/internal/models"
)

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{pool: db.Pool}
}

const transactionColumns = `id, card_id, transaction_date, merchant_name, amount, transaction_type, status, description, created_at`

func scanTransactionRow(scanner rowScanner) (*models.Transaction, error) {
	var txn models.Transaction
	err := scanner.Scan(
		&txn.ID, &txn.CardID, &txn.TransactionDate, &txn.MerchantName,
		&txn.Amount, &txn.TransactionType, &txn.Status, &txn.Description,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &txn, nil
}

func scanTransactionRows(rows pgx.Rows) ([]*models.Transaction, error) {
	defer rows.Close()

	txns := make([]*models.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransactionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return txns, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransactionRow(r.pool.QueryRow(ctx, query, id))
}

// List returns transactions for any of the given card IDs, newest first,
// narrowed by the optional filters.
func (r *TransactionRepository) List(ctx context.Context, cardIDs []int64, filters models.TransactionFilters) ([]*models.Transaction, error) {
	where, args := buildTransactionFilter(cardIDs, filters)

	query := `SELECT ` + transactionColumns + ` FROM transactions ` + where +
		` ORDER BY transaction_date DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	return scanTransactionRows(rows)
}

// Count reports how many transactions match the same filters List applies.
func (r *TransactionRepository) Count(ctx context.Context, cardIDs []int64, filters models.TransactionFilters) (int, error) {
	where, args := buildTransactionFilter(cardIDs, filters)

	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions `+where, args...).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// CreateTx inserts a transaction inside an existing database transaction so
// the caller can update card credit atomically.
func (r *TransactionRepository) CreateTx(ctx context.Context, tx pgx.Tx, txn *models.Transaction) (*models.Transaction, error) {
	txn.CreatedAt = time.Now()
	if txn.TransactionDate.IsZero() {
		txn.TransactionDate = txn.CreatedAt
	}

	query := `
		INSERT INTO transactions (card_id, transaction_date, merchant_name, amount, transaction_type, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + transactionColumns

	created, err := scanTransactionRow(tx.QueryRow(ctx, query,
		txn.CardID, txn.TransactionDate, txn.MerchantName, txn.Amount,
		txn.TransactionType, txn.Status, txn.Description, txn.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return created, nil
}

// buildTransactionFilter assembles the WHERE clause shared by List and Count.
// cardIDs scopes results to the caller's own cards; an empty slice matches
// nothing rather than everything.
func buildTransactionFilter(cardIDs []int64, filters models.TransactionFilters) (string, []interface{}) {
	clauses := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)

	if filters.CardID != 0 {
		args = append(args, filters.CardID)
		clauses = append(clauses, `card_id = $`+strconv.Itoa(len(args)))
	} else {
		args = append(args, cardIDs)
		clauses = append(clauses, `card_id = ANY($`+strconv.Itoa(len(args))+`)`)
	}

	if filters.TransactionType != "" {
		args = append(args, filters.TransactionType)
		clauses = append(clauses, `transaction_type = $`+strconv.Itoa(len(args)))
	}
	if filters.StartDate != nil {
		args = append(args, *filters.StartDate)
		clauses = append(clauses, `transaction_date >= $`+strconv.Itoa(len(args)))
	}
	if filters.EndDate != nil {
		args = append(args, *filters.EndDate)
		clauses = append(clauses, `transaction_date <= $`+strconv.Itoa(len(args)))
	}
	if filters.MinAmount != nil {
		args = append(args, *filters.MinAmount)
		clauses = append(clauses, `amount >= $`+strconv.Itoa(len(args)))
	}
	if filters.MaxAmount != nil {
		args = append(args, *filters.MaxAmount)
		clauses = append(clauses, `amount <= $`+strconv.Itoa(len(args)))
	}

	return `WHERE ` + strings.Join(clauses, ` AND `), args
}
