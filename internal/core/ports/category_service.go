package ports

import (
	"context"

	"github.com/moneytracker/money-tracker/internal/core/domain"
)

// CategoryService defines use-case operations for categories. All of them act
// on the principal's own categories.
type CategoryService interface {
	Create(ctx context.Context, p *domain.Principal, categoryType string) (*domain.Category, error)
	Rename(ctx context.Context, p *domain.Principal, oldType, newType string) (*domain.Category, error)
	Get(ctx context.Context, p *domain.Principal, categoryType string) (*domain.Category, error)
	GetByID(ctx context.Context, p *domain.Principal, id string) (*domain.Category, error)
	List(ctx context.Context, p *domain.Principal) ([]*domain.Category, error)
}
