package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/carddemo/carddemo-api/internal/auth"
	"github.com/carddemo/carddemo-api/internal/background"
	"github.com/carddemo/carddemo-api/internal/config"
	"github.com/carddemo/carddemo-api/internal/crypto"
	"github.com/carddemo/carddemo-api/internal/database"
	"github.com/carddemo/carddemo-api/internal/handlers"
	middlewareCustom "github.com/carddemo/carddemo-api/internal/middleware"
	"github.com/carddemo/carddemo-api/internal/models"
	"github.com/carddemo/carddemo-api/internal/repositories"
	"github.com/carddemo/carddemo-api/internal/routes"
	"github.com/carddemo/carddemo-api/internal/services"
	pkgauth "github.com/carddemo/carddemo-api/pkg/auth"
	pkglogger "github.com/carddemo/carddemo-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// All log output passes through the redacting handler so secrets and
	// card numbers never reach the log stream.
	logger := slog.New(pkglogger.NewRedactingHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Server.LogLevel)}),
	))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	retryer := database.NewRetryer(cfg.Database.MaxRetries, cfg.Database.RetryBaseDelay, logger)

	// Field encryption for card numbers
	encryption, err := crypto.New(cfg.Encryption.Key, logger)
	if err != nil {
		logger.Error("failed to initialize encryption", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	cardRepo := repositories.NewCardRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)

	// Initialize token manager and audit logging
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, retryer, tokenManager, cfg.Auth.AccessTokenExpiry, logger, auditLogger)
	accountService := services.NewAccountService(accountRepo, retryer, logger)
	cardService := services.NewCardService(cardRepo, encryption, retryer, logger)
	transactionService := services.NewTransactionService(transactionRepo, cardRepo, cardRepo, db, retryer, logger)
	healthService := services.NewHealthService(db, cfg.Server.AppName, cfg.Server.AppVersion, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	accountHandler := handlers.NewAccountHandler(accountService)
	cardHandler := handlers.NewCardHandler(cardService, accountService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, accountService)
	healthHandler := handlers.NewHealthHandler(healthService, cfg.Server.AppName, cfg.Server.AppVersion)

	// Seed an initial user if configured
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureSeedUser(seedCtx, userRepo, cfg.Auth.BcryptCost, logger); err != nil {
		logger.Error("failed to ensure seed user", slog.Any("error", err))
	}
	seedCancel()

	// Per-IP rate limiting with background cleanup
	rateLimiter := middlewareCustom.NewRateLimiter(cfg.RateLimit, logger)
	cleanupManager := background.NewCleanupManager(rateLimiter, logger, rateLimiter.CleanupInterval())
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	// Setup router
	router := chi.NewRouter()
	router.Use(middlewareCustom.CorrelationID)
	router.Use(middlewareCustom.SecurityHeaders(cfg.Server.Env))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.Env)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middlewareCustom.InputSanitizer(logger))
	router.Use(rateLimiter.Middleware())
	router.Use(middlewareCustom.Recoverer(logger))
	router.Use(chimiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, accountHandler, cardHandler, transactionHandler, healthHandler, tokenManager)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")
	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureSeedUser creates the first login if SEED_USERNAME and SEED_PASSWORD
// are set, so a fresh deployment is usable without manual inserts.
func ensureSeedUser(ctx context.Context, userRepo *repositories.UserRepository, bcryptCost int, logger *slog.Logger) error {
	username := os.Getenv("SEED_USERNAME")
	password := os.Getenv("SEED_PASSWORD")
	if username == "" || password == "" {
		logger.Info("no SEED_USERNAME or SEED_PASSWORD set, skipping seed user creation")
		return nil
	}

	_, err := userRepo.GetByUsername(ctx, username)
	if err == nil {
		logger.Info("seed user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check seed user: %w", err)
	}

	hashed, err := pkgauth.HashPassword(password, bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	_, err = userRepo.Create(ctx, &models.User{
		Username:       username,
		Email:          os.Getenv("SEED_EMAIL"),
		HashedPassword: hashed,
		IsActive:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to create seed user: %w", err)
	}

	logger.Info("seed user created")
	return nil
}
