package ports

import (
	"context"

	"github.com/moneytracker/money-tracker/internal/core/domain"
)

// ListExpensesFilter narrows an expense listing. UserID is always set by the
// service layer.
type ListExpensesFilter struct {
	UserID     string
	CategoryID string // optional
}

// ExpenseRepository defines persistence for expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, e *domain.Expense) (*domain.Expense, error)
	FindByID(ctx context.Context, userID, id string) (*domain.Expense, error)
	// FindByIdempotencyKey returns ErrExpenseNotFound when no expense of
	// userID was created under key.
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Expense, error)
	List(ctx context.Context, filter ListExpensesFilter) ([]*domain.Expense, error)
	Update(ctx context.Context, e *domain.Expense) error
	Delete(ctx context.Context, userID, id string) error
}
