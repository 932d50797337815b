package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are embedded in every issued bearer token. Subject carries the
// user ID as a decimal string.
type TokenClaims struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Active   bool   `json:"active"`
	jwt.RegisteredClaims
}
