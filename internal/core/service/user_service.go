package service

import (
	"context"

	"github.com/moneytracker/money-tracker/internal/core/domain"
	"github.com/moneytracker/money-tracker/internal/core/ports"
)

type UserService struct {
	users ports.UserRepository
}

func NewUserService(users ports.UserRepository) *UserService {
	return &UserService{users: users}
}

// Profile returns the principal's own account, balance included.
func (s *UserService) Profile(ctx context.Context, p *domain.Principal) (*domain.User, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// List returns every account. Admins only.
func (s *UserService) List(ctx context.Context, p *domain.Principal) ([]*domain.User, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}
