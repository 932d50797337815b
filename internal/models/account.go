package models

import "time"

type Account struct {
	ID            int64
	UserID        int64
	AccountNumber string
	FirstName     string
	LastName      string
	Phone         string
	Address       string
	City          string
	State         string
	ZipCode       string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
