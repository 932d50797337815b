package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/carddemo/carddemo-api/internal/auth"
	"github.com/carddemo/carddemo-api/internal/database"
	"github.com/carddemo/carddemo-api/internal/models"
	pkgauth "github.com/carddemo/carddemo-api/pkg/auth"
	pkglogger "github.com/carddemo/carddemo-api/pkg/logger"
)

// UserRepository defines the user store operations the auth service needs
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// UserResponse represents a user in HTTP responses. The password hash never
// leaves the service layer.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// LoginResponse is returned from a successful authentication
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int           `json:"expires_in"`
	User        *UserResponse `json:"user"`
}

// AuthService handles authentication business logic
type AuthService struct {
	repo        UserRepository
	retryer     *database.Retryer
	tm          *auth.TokenManager
	tokenExpiry time.Duration
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAuthService(repo UserRepository, retryer *database.Retryer, tm *auth.TokenManager, tokenExpiry time.Duration, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		retryer:     retryer,
		tm:          tm,
		tokenExpiry: tokenExpiry,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Login authenticates a user by username and password and issues a token.
// Unknown usernames, wrong passwords, and inactive accounts all map to the
// same ErrUnauthorized so responses cannot be used to enumerate users.
func (s *AuthService) Login(ctx context.Context, username, password, clientIP string) (*LoginResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.auditFailure(username, clientIP, "missing_credentials")
		return nil, models.ErrUnauthorized
	}

	var user *models.User
	err := s.retryer.Execute(ctx, "get_user_by_username", func(ctx context.Context) error {
		var err error
		user, err = s.repo.GetByUsername(ctx, username)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditFailure(username, clientIP, "invalid_credentials")
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to look up user", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	if !pkgauth.ComparePassword(user.HashedPassword, password) {
		s.auditFailure(username, clientIP, "invalid_credentials")
		return nil, models.ErrUnauthorized
	}

	if !user.IsActive {
		s.auditFailure(username, clientIP, "account_inactive")
		return nil, models.ErrUnauthorized
	}

	token, err := s.tm.Issue(user, s.tokenExpiry)
	if err != nil {
		s.logger.Error("failed to issue token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    strconv.FormatInt(user.ID, 10),
		Username:  user.Username,
		IPAddress: clientIP,
		Success:   true,
	})

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokenExpiry.Seconds()),
		User:        toUserResponse(user),
	}, nil
}

// Logout records the logout event. Tokens are stateless so nothing is
// revoked server-side; clients discard the token.
func (s *AuthService) Logout(ctx context.Context, claims *models.TokenClaims, clientIP string) {
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "logout",
		UserID:    claims.Subject,
		Username:  claims.Username,
		IPAddress: clientIP,
		Success:   true,
	})
}

// ResolveUser loads the current user record for validated token claims.
func (s *AuthService) ResolveUser(ctx context.Context, claims *models.TokenClaims) (*UserResponse, error) {
	userID, err := s.tm.UserID(claims)
	if err != nil {
		return nil, models.ErrUnauthorized
	}

	var user *models.User
	err = s.retryer.Execute(ctx, "get_user_by_id", func(ctx context.Context) error {
		var err error
		user, err = s.repo.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load user", slog.Any("error", err))
		return nil, models.ErrDatabase
	}

	if !user.IsActive {
		return nil, models.ErrUnauthorized
	}
	return toUserResponse(user), nil
}

func (s *AuthService) auditFailure(username, clientIP, reason string) {
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		Username:      username,
		IPAddress:     clientIP,
		FailureReason: reason,
		Success:       false,
	})
}

func toUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
