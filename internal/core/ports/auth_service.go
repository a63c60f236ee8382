package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/moneytracker/money-tracker/internal/core/domain"
)

// RegisterInput carries the data needed to open an account.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Balance  decimal.Decimal
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Logout(ctx context.Context, p *domain.Principal) error
	// Authenticate resolves a bearer token to the principal of its active session.
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// UserService exposes read access to accounts.
type UserService interface {
	Profile(ctx context.Context, p *domain.Principal) (*domain.User, error)
	List(ctx context.Context, p *domain.Principal) ([]*domain.User, error)
}
