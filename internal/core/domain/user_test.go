package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestUser_Debit_Success(t *testing.T) {
	u := &User{Balance: decimal.NewFromInt(400)}

	if err := u.Debit(decimal.NewFromInt(300)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100, got %s", u.Balance)
	}
}

func TestUser_Debit_InsufficientFundsLeavesBalance(t *testing.T) {
	u := &User{Balance: decimal.NewFromInt(400)}

	err := u.Debit(decimal.NewFromInt(500))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !u.Balance.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("balance must be unchanged, got %s", u.Balance)
	}
}

func TestUser_Debit_ExactBalance(t *testing.T) {
	u := &User{Balance: decimal.RequireFromString("10.50")}

	if err := u.Debit(decimal.RequireFromString("10.5")); err != nil {
		t.Fatalf("debiting the full balance must succeed: %v", err)
	}
	if !u.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", u.Balance)
	}
}

func TestUser_Credit(t *testing.T) {
	u := &User{Balance: decimal.NewFromInt(100)}

	if err := u.Credit(decimal.NewFromInt(300)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.Balance.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected balance 400, got %s", u.Balance)
	}
}

func TestUser_Public_StripsCredentials(t *testing.T) {
	u := &User{ID: "u1", PasswordHash: []byte{1}, PasswordSalt: []byte{2}}

	pub := u.Public()
	if pub.PasswordHash != nil || pub.PasswordSalt != nil {
		t.Fatalf("credentials leaked: %+v", pub)
	}
	if u.PasswordHash == nil {
		t.Fatal("original user must keep its hash")
	}
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{ErrInvalidAmount, ErrValidation},
		{ErrInsufficientFunds, ErrValidation},
		{ErrCategoryNotFound, ErrNotFound},
		{ErrExpenseNotFound, ErrNotFound},
		{ErrUserExists, ErrConflict},
		{ErrCategoryExists, ErrConflict},
		{ErrNotLoggedIn, ErrUnauthenticated},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.kind) {
			t.Errorf("%v should be a %v", tc.err, tc.kind)
		}
	}
}
