package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User models an account holder. Balance is the running ledger and must never
// drop below zero.
type User struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash []byte          `json:"-"`
	PasswordSalt []byte          `json:"-"`
	Role         string          `json:"role"`
	Balance      decimal.Decimal `json:"balance"`
	Version      int64           `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Adjust applies delta to the balance. The balance is left untouched and
// ErrInsufficientFunds is returned when the result would be negative.
func (u *User) Adjust(delta decimal.Decimal) error {
	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return ErrInsufficientFunds
	}
	u.Balance = next
	return nil
}

// Debit withdraws amount from the balance.
func (u *User) Debit(amount decimal.Decimal) error {
	return u.Adjust(amount.Neg())
}

// Credit returns amount to the balance.
func (u *User) Credit(amount decimal.Decimal) error {
	return u.Adjust(amount)
}

// Public returns a copy safe to hand to callers outside the core.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = nil
	clone.PasswordSalt = nil
	return &clone
}
