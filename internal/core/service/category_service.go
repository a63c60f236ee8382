package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/moneytracker/money-tracker/internal/core/domain"
	"github.com/moneytracker/money-tracker/internal/core/ports"
)

type CategoryService struct {
	categories ports.CategoryRepository
	tx         ports.Transactor
	log        zerolog.Logger
}

func NewCategoryService(categories ports.CategoryRepository, tx ports.Transactor, log zerolog.Logger) *CategoryService {
	return &CategoryService{categories: categories, tx: tx, log: log}
}

// Create adds an empty category for the principal. Types are unique per user.
func (s *CategoryService) Create(ctx context.Context, p *domain.Principal, categoryType string) (*domain.Category, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	typ := strings.TrimSpace(categoryType)
	if typ == "" {
		return nil, domain.ErrBlankCategoryType
	}

	if _, err := s.categories.FindByType(ctx, p.UserID, typ); err == nil {
		return nil, domain.ErrCategoryExists
	} else if !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.categories.Create(ctx, &domain.Category{
		UserID:    p.UserID,
		Type:      typ,
		Total:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", p.UserID).Str("category", typ).Msg("category created")
	return created, nil
}

// Rename relabels a category. The total carries over unchanged.
func (s *CategoryService) Rename(ctx context.Context, p *domain.Principal, oldType, newType string) (*domain.Category, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	from := strings.TrimSpace(oldType)
	to := strings.TrimSpace(newType)
	if to == "" {
		return nil, domain.ErrBlankCategoryType
	}

	var renamed *domain.Category
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := findCategory(ctx, s.categories, p.UserID, from)
		if err != nil {
			return err
		}

		if _, err := s.categories.FindByType(ctx, p.UserID, to); err == nil {
			return domain.ErrCategoryExists
		} else if !errors.Is(err, domain.ErrCategoryNotFound) {
			return err
		}

		c.Type = to
		c.UpdatedAt = time.Now().UTC()
		if err := s.categories.Update(ctx, c); err != nil {
			return err
		}
		renamed = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", p.UserID).Str("from", from).Str("to", to).Msg("category renamed")
	return renamed, nil
}

func (s *CategoryService) Get(ctx context.Context, p *domain.Principal, categoryType string) (*domain.Category, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	return findCategory(ctx, s.categories, p.UserID, categoryType)
}

func (s *CategoryService) GetByID(ctx context.Context, p *domain.Principal, id string) (*domain.Category, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.categories.FindByID(ctx, p.UserID, id)
}

func (s *CategoryService) List(ctx context.Context, p *domain.Principal) ([]*domain.Category, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.categories.List(ctx, p.UserID)
}

// findCategory resolves a category type of userID, treating a blank type as
// missing.
func findCategory(ctx context.Context, repo ports.CategoryRepository, userID, categoryType string) (*domain.Category, error) {
	typ := strings.TrimSpace(categoryType)
	if typ == "" {
		return nil, domain.ErrCategoryNotFound
	}
	return repo.FindByType(ctx, userID, typ)
}
