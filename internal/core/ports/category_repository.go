package ports

import (
	"context"

	"github.com/moneytracker/money-tracker/internal/core/domain"
)

// CategoryRepository defines persistence for categories. Every lookup is
// scoped to the owning user.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) (*domain.Category, error)
	FindByType(ctx context.Context, userID, categoryType string) (*domain.Category, error)
	FindByID(ctx context.Context, userID, id string) (*domain.Category, error)
	List(ctx context.Context, userID string) ([]*domain.Category, error)
	// Update persists Type and Total with the same version check as
	// UserRepository.UpdateBalance.
	Update(ctx context.Context, c *domain.Category) error
}
