package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/carddemo/carddemo-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager handles JWT issuance and verification
type TokenManager struct {
	secret        string
	defaultExpiry time.Duration
}

// NewTokenManager creates a new TokenManager signing with HS256
func NewTokenManager(secret string, defaultExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:        secret,
		defaultExpiry: defaultExpiry,
	}
}

// Issue creates a signed bearer token for the user. A non-positive ttl falls
// back to the configured default expiry.
func (tm *TokenManager) Issue(user *models.User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = tm.defaultExpiry
	}

	now := time.Now()
	claims := &models.TokenClaims{
		Username: user.Username,
		Email:    user.Email,
		Active:   user.IsActive,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies a token and returns its claims. Signature failures,
// malformed tokens, and expired tokens all yield a nil-claims error result;
// this function never panics.
func (tm *TokenManager) Validate(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	// Expiry must be present; jwt/v5 only rejects an expired claim when set
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("invalid token: missing expiry")
	}

	return claims, nil
}

// UserID extracts the numeric subject from validated claims.
func (tm *TokenManager) UserID(claims *models.TokenClaims) (int64, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject: %w", err)
	}
	return id, nil
}
