package integration

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/carddemo/carddemo-api/internal/database"
	"github.com/carddemo/carddemo-api/internal/models"
	"github.com/carddemo/carddemo-api/pkg/auth"
)

// TestDB manages the PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, and
// returns the ready-to-use TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("carddemo"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dbWrapper := database.NewFromPool(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         dbWrapper,
	}, nil
}

// runMigrations executes all goose migrations against the container
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	goose.SetLogger(log.New(io.Discard, "", 0))

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"transactions",
		"cards",
		"accounts",
		"users",
	}
	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

// SeedUser inserts a test user with a hashed password
func SeedUser(ctx context.Context, pool *pgxpool.Pool, username, password string) (*models.User, error) {
	hashed, err := auth.HashPassword(password, auth.DefaultBcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, hashed_password, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, username, email, hashed_password, is_active, created_at, updated_at
	`

	var user models.User
	err = pool.QueryRow(ctx, query, username, username+"@example.com", hashed).Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &user, nil
}

// SeedAccount inserts an account for a user
func SeedAccount(ctx context.Context, pool *pgxpool.Pool, userID int64, accountNumber string) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO accounts (user_id, account_number, first_name, last_name)
		VALUES ($1, $2, 'Test', 'User')
		RETURNING id
	`, userID, accountNumber).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert account: %w", err)
	}
	return id, nil
}

// SeedCard inserts a card; cardNumber goes in exactly as given, so tests can
// seed plaintext rows to exercise the legacy migration path.
func SeedCard(ctx context.Context, pool *pgxpool.Pool, accountID int64, cardNumber string) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO cards (account_id, card_number, card_type, expiry_month, expiry_year, status, credit_limit, available_credit)
		VALUES ($1, $2, 'VISA', 12, 2030, 'ACTIVE', 5000, 5000)
		RETURNING id
	`, accountID, cardNumber).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert card: %w", err)
	}
	return id, nil
}

// SeedTransaction inserts a completed transaction
func SeedTransaction(ctx context.Context, pool *pgxpool.Pool, cardID int64, amount float64, txnType string) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO transactions (card_id, merchant_name, amount, transaction_type, status)
		VALUES ($1, 'Test Merchant', $2, $3, 'COMPLETED')
		RETURNING id
	`, cardID, amount, txnType).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return id, nil
}
