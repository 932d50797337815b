package models

import "time"

// Transaction types
const (
	TransactionTypePurchase = "PURCHASE"
	TransactionTypePayment  = "PAYMENT"
	TransactionTypeRefund   = "REFUND"
)

// Transaction statuses
const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
)

type Transaction struct {
	ID              int64
	CardID          int64
	TransactionDate time.Time
	MerchantName    string
	Amount          float64
	TransactionType string
	Status          string
	Description     string
	CreatedAt       time.Time
}

// TransactionFilters narrows a transaction listing. Zero values mean
// "no constraint" except Limit, which callers must set.
type TransactionFilters struct {
	CardID          int64
	TransactionType string
	StartDate       *time.Time
	EndDate         *time.Time
	MinAmount       *float64
	MaxAmount       *float64
	Limit           int
	Offset          int
}
