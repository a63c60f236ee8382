package ports

import (
	"context"

	"github.com/moneytracker/money-tracker/internal/core/domain"
)

// UserRepository defines persistence for account holders and their ledger.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// UpdateBalance persists user.Balance only if the stored version still
	// equals user.Version, then bumps the version. A stale version yields
	// domain.ErrConcurrentUpdate.
	UpdateBalance(ctx context.Context, user *domain.User) error
}
