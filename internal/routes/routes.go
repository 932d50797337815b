package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/carddemo/carddemo-api/internal/auth"
	"github.com/carddemo/carddemo-api/internal/handlers"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	cardHandler *handlers.CardHandler,
	transactionHandler *handlers.TransactionHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *auth.TokenManager,
) {
	// Public routes - no authentication required
	router.Get("/", healthHandler.Root)
	router.Get("/health", healthHandler.Basic)
	router.Get("/health/detailed", healthHandler.Detailed)
	router.Get("/health/component/{name}", healthHandler.Component)
	router.Post("/auth/login", authHandler.Login)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/me", authHandler.Me)

		r.Get("/accounts/me", accountHandler.GetMe)
		r.Put("/accounts/me", accountHandler.UpdateMe)

		r.Get("/cards", cardHandler.List)
		r.Post("/cards", cardHandler.Create)
		r.Get("/cards/{id}", cardHandler.Get)

		r.Get("/transactions", transactionHandler.List)
		r.Post("/transactions", transactionHandler.Create)
		r.Get("/transactions/{id}", transactionHandler.Get)
	})
}
