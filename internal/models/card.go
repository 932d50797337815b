package models

import "time"

// Card statuses
const (
	CardStatusActive  = "ACTIVE"
	CardStatusBlocked = "BLOCKED"
	CardStatusExpired = "EXPIRED"
)

// Card holds a credit card record. CardNumber is stored encrypted; legacy
// rows may still carry it in plaintext until they are rewritten.
type Card struct {
	ID              int64
	AccountID       int64
	CardNumber      string
	CardType        string
	ExpiryMonth     int
	ExpiryYear      int
	Status          string
	CreditLimit     float64
	AvailableCredit float64
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}
