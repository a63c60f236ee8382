package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneytracker/money-tracker/internal/core/domain"
)

// CreateExpenseInput carries the data needed to record an expense.
type CreateExpenseInput struct {
	Amount         decimal.Decimal
	CategoryType   string
	IdempotencyKey string
}

// UpdateExpenseInput carries the new amount and category of an expense.
type UpdateExpenseInput struct {
	Amount       decimal.Decimal
	CategoryType string
}

// ListExpensesInput optionally restricts a listing to one category.
type ListExpensesInput struct {
	CategoryType string
}

// ExpenseResult is the public projection of an expense.
type ExpenseResult struct {
	ID           string
	Amount       decimal.Decimal
	CategoryID   string
	CategoryType string
	UserID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// AlreadyExisted is true when the Idempotency-Key matched an earlier create.
	AlreadyExisted bool
}

// ExpenseService defines the expense mutation engine and its read side.
type ExpenseService interface {
	Create(ctx context.Context, p *domain.Principal, in CreateExpenseInput) (*ExpenseResult, error)
	Update(ctx context.Context, p *domain.Principal, id string, in UpdateExpenseInput) (*ExpenseResult, error)
	Delete(ctx context.Context, p *domain.Principal, id string) (*ExpenseResult, error)
	Get(ctx context.Context, p *domain.Principal, id string) (*ExpenseResult, error)
	List(ctx context.Context, p *domain.Principal, in ListExpensesInput) ([]ExpenseResult, error)
}
