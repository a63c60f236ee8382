package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single spending record owned by a user and filed under one of
// that user's categories.
type Expense struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	CategoryID string          `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	// IdempotencyKey is the client key the expense was created under, if any.
	// A user never has two expenses with the same key.
	IdempotencyKey string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
