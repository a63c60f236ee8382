package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of them so callers
// can branch on the kind with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access forbidden")
)

var (
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be positive with at most 2 decimal places", ErrValidation)
	ErrInvalidEmail      = fmt.Errorf("%w: email is not valid", ErrValidation)
	ErrMissingField      = fmt.Errorf("%w: username, password and email are required", ErrValidation)
	ErrNegativeBalance   = fmt.Errorf("%w: balance cannot be negative", ErrValidation)
	ErrBalancePrecision  = fmt.Errorf("%w: balance allows at most 2 decimal places", ErrValidation)
	ErrBlankCategoryType = fmt.Errorf("%w: category type is required", ErrValidation)
	ErrInsufficientFunds = fmt.Errorf("%w: insufficient funds", ErrValidation)

	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrExpenseNotFound  = fmt.Errorf("expense %w", ErrNotFound)

	ErrUserExists         = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrCategoryExists     = fmt.Errorf("%w: category already exists", ErrConflict)
	ErrAlreadyLoggedIn    = fmt.Errorf("%w: user is already logged in", ErrConflict)
	ErrConcurrentUpdate   = fmt.Errorf("%w: resource was modified concurrently, retry", ErrConflict)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotLoggedIn        = fmt.Errorf("%w: no active session", ErrUnauthenticated)
)
