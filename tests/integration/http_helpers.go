package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/carddemo/carddemo-api/internal/auth"
	"github.com/carddemo/carddemo-api/internal/config"
	"github.com/carddemo/carddemo-api/internal/crypto"
	"github.com/carddemo/carddemo-api/internal/database"
	"github.com/carddemo/carddemo-api/internal/handlers"
	middlewareCustom "github.com/carddemo/carddemo-api/internal/middleware"
	"github.com/carddemo/carddemo-api/internal/repositories"
	"github.com/carddemo/carddemo-api/internal/routes"
	"github.com/carddemo/carddemo-api/internal/services"
	pkglogger "github.com/carddemo/carddemo-api/pkg/logger"
)

const testEncryptionKey = "integration-test-encryption-key"

// TestServer wraps httptest.Server with the full handler stack wired against
// a real database
type TestServer struct {
	Server     *httptest.Server
	DB         *database.DB
	Encryption *crypto.Service
	Config     *config.Config

	// ClientIP is sent as X-Forwarded-For on every request, giving each test
	// its own rate limit budget. The limiter trusts the header the same way
	// production does behind a proxy.
	ClientIP string
}

// NewTestServer builds the complete HTTP stack against the given database.
// The middleware chain matches production so integration tests exercise
// correlation IDs, sanitization, and rate limiting for real.
func NewTestServer(db *database.DB) (*TestServer, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret-32-characters-long-for-testing",
			Algorithm:         "HS256",
			AccessTokenExpiry: 15 * time.Minute,
			BcryptCost:        4,
		},
		RateLimit: config.RateLimitConfig{
			CallsPerMinute:  1000,
			CallsPerHour:    10000,
			BurstLimit:      1000,
			CleanupInterval: time.Minute,
		},
		Server: config.ServerConfig{
			Env:        "test",
			AppName:    "CardDemo API",
			AppVersion: "1.0.0",
		},
		Encryption: config.EncryptionConfig{Key: testEncryptionKey},
	}

	encryption, err := crypto.New(cfg.Encryption.Key, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryption service: %w", err)
	}

	retryer := database.NewRetryer(3, 10*time.Millisecond, logger)

	userRepo := repositories.NewUserRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	cardRepo := repositories.NewCardRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	authService := services.NewAuthService(userRepo, retryer, tokenManager, cfg.Auth.AccessTokenExpiry, logger, auditLogger)
	accountService := services.NewAccountService(accountRepo, retryer, logger)
	cardService := services.NewCardService(cardRepo, encryption, retryer, logger)
	transactionService := services.NewTransactionService(transactionRepo, cardRepo, cardRepo, db, retryer, logger)
	healthService := services.NewHealthService(db, cfg.Server.AppName, cfg.Server.AppVersion, logger)

	authHandler := handlers.NewAuthHandler(authService)
	accountHandler := handlers.NewAccountHandler(accountService)
	cardHandler := handlers.NewCardHandler(cardService, accountService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, accountService)
	healthHandler := handlers.NewHealthHandler(healthService, cfg.Server.AppName, cfg.Server.AppVersion)

	rateLimiter := middlewareCustom.NewRateLimiter(cfg.RateLimit, logger)

	router := chi.NewRouter()
	router.Use(middlewareCustom.CorrelationID)
	router.Use(middlewareCustom.SecurityHeaders(cfg.Server.Env))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middlewareCustom.InputSanitizer(logger))
	router.Use(rateLimiter.Middleware())
	router.Use(middlewareCustom.Recoverer(logger))
	router.Use(chimiddleware.Timeout(30 * time.Second))

	routes.RegisterRoutes(router, authHandler, accountHandler, cardHandler, transactionHandler, healthHandler, tokenManager)

	return &TestServer{
		Server:     httptest.NewServer(router),
		DB:         db,
		Encryption: encryption,
		Config:     cfg,
	}, nil
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// DoJSON sends a JSON request and decodes the response body into out
// (when out is non-nil). The returned response body is already consumed.
func (ts *TestServer) DoJSON(method, path, token string, body, out interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if ts.ClientIP != "" {
		req.Header.Set("X-Forwarded-For", ts.ClientIP)
	}

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("failed to decode response %q: %w", raw, err)
		}
	}
	return resp, nil
}

// Login authenticates the given user and returns a bearer token
func (ts *TestServer) Login(username, password string) (string, error) {
	var resp services.LoginResponse
	httpResp, err := ts.DoJSON(http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return "", err
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", httpResp.StatusCode)
	}
	return resp.AccessToken, nil
}

// ErrorEnvelope mirrors the API error response shape for assertions
type ErrorEnvelope struct {
	Error struct {
		Code          string `json:"code"`
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id"`
		Timestamp     string `json:"timestamp"`
		Path          string `json:"path"`
		Method        string `json:"method"`
	} `json:"error"`
}
