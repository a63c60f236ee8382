package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/moneytracker/money-tracker/internal/core/domain"
	"github.com/moneytracker/money-tracker/internal/core/ports"
)

// Serializer runs fn so that calls sharing a key never overlap.
type Serializer interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// ExpenseService is the expense mutation engine. Each mutation touches the
// user's balance, one or two category totals and the expense record inside a
// single transaction, so a failure at any step leaves nothing behind.
type ExpenseService struct {
	users      ports.UserRepository
	categories ports.CategoryRepository
	expenses   ports.ExpenseRepository
	tx         ports.Transactor
	serializer Serializer
	idem       ports.IdempotencyStore
	log        zerolog.Logger
}

// NewExpenseService wires the engine. idem may be nil, which disables
// Idempotency-Key replays.
func NewExpenseService(
	users ports.UserRepository,
	categories ports.CategoryRepository,
	expenses ports.ExpenseRepository,
	tx ports.Transactor,
	serializer Serializer,
	idem ports.IdempotencyStore,
	log zerolog.Logger,
) *ExpenseService {
	return &ExpenseService{
		users:      users,
		categories: categories,
		expenses:   expenses,
		tx:         tx,
		serializer: serializer,
		idem:       idem,
		log:        log,
	}
}

// Create debits the balance, grows the category total and records the expense.
// A repeated Idempotency-Key returns the expense it first produced and changes
// nothing. The key is checked on the user's serializer and stored on the
// expense inside the transaction, so two requests carrying it cannot both
// debit.
func (s *ExpenseService) Create(ctx context.Context, p *domain.Principal, in ports.CreateExpenseInput) (*ports.ExpenseResult, error) {
	// 1. Session.
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	// 2. Amount.
	if !domain.ValidAmount(in.Amount) {
		return nil, domain.ErrInvalidAmount
	}
	// 3. Category type present (existence is checked inside the transaction).
	typ := strings.TrimSpace(in.CategoryType)
	if typ == "" {
		return nil, domain.ErrCategoryNotFound
	}
	key := strings.TrimSpace(in.IdempotencyKey)

	var (
		created  *domain.Expense
		category *domain.Category
		replayed *ports.ExpenseResult
	)
	err := s.serializer.Do(ctx, p.UserID, func(ctx context.Context) error {
		if key != "" {
			if res, ok := s.replay(ctx, p, key); ok {
				replayed = res
				return nil
			}
		}

		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if key != "" {
				prior, err := s.expenses.FindByIdempotencyKey(ctx, p.UserID, key)
				if err == nil {
					res := s.result(ctx, p.UserID, prior)
					res.AlreadyExisted = true
					replayed = &res
					return nil
				}
				if !errors.Is(err, domain.ErrExpenseNotFound) {
					return err
				}
			}

			c, err := findCategory(ctx, s.categories, p.UserID, typ)
			if err != nil {
				return err
			}
			user, err := s.users.FindByID(ctx, p.UserID)
			if err != nil {
				return err
			}

			// 4. Ledger.
			if err := user.Debit(in.Amount); err != nil {
				return err
			}
			// 5. Aggregate.
			c.AdjustTotal(in.Amount)

			now := time.Now().UTC()
			user.UpdatedAt = now
			c.UpdatedAt = now
			if err := s.users.UpdateBalance(ctx, user); err != nil {
				return err
			}
			if err := s.categories.Update(ctx, c); err != nil {
				return err
			}

			// 6. Record.
			e, err := s.expenses.Create(ctx, &domain.Expense{
				UserID:         p.UserID,
				CategoryID:     c.ID,
				Amount:         in.Amount,
				IdempotencyKey: key,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
			if err != nil {
				return fmt.Errorf("create expense: %w", err)
			}
			created, category = e, c
			return nil
		})
		if err != nil {
			return err
		}

		switch {
		case key == "":
		case replayed != nil:
			s.remember(ctx, p.UserID, key, replayed.ID)
		default:
			s.remember(ctx, p.UserID, key, created.ID)
		}
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("user_id", p.UserID).Str("category", typ).Msg("expense create rejected")
		return nil, err
	}
	if replayed != nil {
		s.log.Info().Str("idempotency_key", key).Str("expense_id", replayed.ID).Msg("idempotent replay")
		return replayed, nil
	}

	s.log.Info().
		Str("user_id", p.UserID).
		Str("expense_id", created.ID).
		Str("category", category.Type).
		Str("amount", created.Amount.String()).
		Msg("expense created")

	res := toResult(created, category.Type)
	return &res, nil
}

// Update changes the amount and category of an expense. The balance moves by
// the difference between old and new amount; when the category changes the
// old total loses the old amount and the new total gains the new one.
func (s *ExpenseService) Update(ctx context.Context, p *domain.Principal, id string, in ports.UpdateExpenseInput) (*ports.ExpenseResult, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}

	var (
		updated  *domain.Expense
		category *domain.Category
	)
	err := s.mutate(ctx, p.UserID, func(ctx context.Context) error {
		e, err := s.expenses.FindByID(ctx, p.UserID, id)
		if err != nil {
			return err
		}
		if !domain.ValidAmount(in.Amount) {
			return domain.ErrInvalidAmount
		}
		target, err := findCategory(ctx, s.categories, p.UserID, in.CategoryType)
		if err != nil {
			return err
		}
		user, err := s.users.FindByID(ctx, p.UserID)
		if err != nil {
			return err
		}

		oldAmount := e.Amount
		if err := user.Adjust(oldAmount.Sub(in.Amount)); err != nil {
			return err
		}

		now := time.Now().UTC()
		if target.ID == e.CategoryID {
			target.AdjustTotal(in.Amount.Sub(oldAmount))
		} else {
			previous, err := s.categories.FindByID(ctx, p.UserID, e.CategoryID)
			if err != nil {
				return err
			}
			previous.AdjustTotal(oldAmount.Neg())
			previous.UpdatedAt = now
			if err := s.categories.Update(ctx, previous); err != nil {
				return err
			}
			target.AdjustTotal(in.Amount)
		}
		target.UpdatedAt = now
		if err := s.categories.Update(ctx, target); err != nil {
			return err
		}

		user.UpdatedAt = now
		if err := s.users.UpdateBalance(ctx, user); err != nil {
			return err
		}

		e.Amount = in.Amount
		e.CategoryID = target.ID
		e.UpdatedAt = now
		if err := s.expenses.Update(ctx, e); err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		updated, category = e, target
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("user_id", p.UserID).Str("expense_id", id).Msg("expense update rejected")
		return nil, err
	}

	s.log.Info().Str("user_id", p.UserID).Str("expense_id", id).Str("amount", updated.Amount.String()).Msg("expense updated")
	res := toResult(updated, category.Type)
	return &res, nil
}

// Delete removes an expense, shrinks its category total and credits the
// amount back to the balance.
func (s *ExpenseService) Delete(ctx context.Context, p *domain.Principal, id string) (*ports.ExpenseResult, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}

	var (
		deleted  *domain.Expense
		category *domain.Category
	)
	err := s.mutate(ctx, p.UserID, func(ctx context.Context) error {
		e, err := s.expenses.FindByID(ctx, p.UserID, id)
		if err != nil {
			return err
		}
		c, err := s.categories.FindByID(ctx, p.UserID, e.CategoryID)
		if err != nil {
			return err
		}
		user, err := s.users.FindByID(ctx, p.UserID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		c.AdjustTotal(e.Amount.Neg())
		c.UpdatedAt = now
		if err := s.categories.Update(ctx, c); err != nil {
			return err
		}

		if err := user.Credit(e.Amount); err != nil {
			return err
		}
		user.UpdatedAt = now
		if err := s.users.UpdateBalance(ctx, user); err != nil {
			return err
		}

		if err := s.expenses.Delete(ctx, p.UserID, id); err != nil {
			return fmt.Errorf("delete expense: %w", err)
		}
		deleted, category = e, c
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("user_id", p.UserID).Str("expense_id", id).Msg("expense delete rejected")
		return nil, err
	}

	s.log.Info().Str("user_id", p.UserID).Str("expense_id", id).Msg("expense deleted")
	res := toResult(deleted, category.Type)
	return &res, nil
}

func (s *ExpenseService) Get(ctx context.Context, p *domain.Principal, id string) (*ports.ExpenseResult, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	e, err := s.expenses.FindByID(ctx, p.UserID, id)
	if err != nil {
		return nil, err
	}
	res := s.result(ctx, p.UserID, e)
	return &res, nil
}

// List returns the principal's expenses, optionally only one category's.
func (s *ExpenseService) List(ctx context.Context, p *domain.Principal, in ports.ListExpensesInput) ([]ports.ExpenseResult, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}

	filter := ports.ListExpensesFilter{UserID: p.UserID}
	if strings.TrimSpace(in.CategoryType) != "" {
		c, err := findCategory(ctx, s.categories, p.UserID, in.CategoryType)
		if err != nil {
			return nil, err
		}
		filter.CategoryID = c.ID
	}

	categories, err := s.categories.List(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	types := make(map[string]string, len(categories))
	for _, c := range categories {
		types[c.ID] = c.Type
	}

	expenses, err := s.expenses.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]ports.ExpenseResult, len(expenses))
	for i, e := range expenses {
		out[i] = toResult(e, types[e.CategoryID])
	}
	return out, nil
}

// mutate serializes fn per user and runs it in one transaction.
func (s *ExpenseService) mutate(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	return s.serializer.Do(ctx, userID, func(ctx context.Context) error {
		return s.tx.WithinTransaction(ctx, fn)
	})
}

// replay answers from the idempotency cache. Cache failures are logged and
// treated as a miss; the expense record remains the source of truth.
func (s *ExpenseService) replay(ctx context.Context, p *domain.Principal, key string) (*ports.ExpenseResult, bool) {
	if s.idem == nil {
		return nil, false
	}
	id, err := s.idem.Lookup(ctx, p.UserID, key)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", p.UserID).Msg("idempotency lookup failed")
		return nil, false
	}
	if id == "" {
		return nil, false
	}
	res, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, false
	}
	res.AlreadyExisted = true
	return res, true
}

func (s *ExpenseService) remember(ctx context.Context, userID, key, expenseID string) {
	if s.idem == nil {
		return
	}
	if err := s.idem.Remember(ctx, userID, key, expenseID); err != nil {
		s.log.Warn().Err(err).Str("expense_id", expenseID).Msg("failed to cache idempotency key")
	}
}

// result projects e, resolving its category type. A missing category leaves
// the type blank.
func (s *ExpenseService) result(ctx context.Context, userID string, e *domain.Expense) ports.ExpenseResult {
	var typ string
	if c, err := s.categories.FindByID(ctx, userID, e.CategoryID); err == nil {
		typ = c.Type
	}
	return toResult(e, typ)
}

func toResult(e *domain.Expense, categoryType string) ports.ExpenseResult {
	return ports.ExpenseResult{
		ID:           e.ID,
		Amount:       e.Amount,
		CategoryID:   e.CategoryID,
		CategoryType: categoryType,
		UserID:       e.UserID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
