package ports

import (
	"context"

	"github.com/moneytracker/money-tracker/internal/core/domain"
)

// SessionStore keeps at most one active session per user.
type SessionStore interface {
	// Start registers s, failing with domain.ErrAlreadyLoggedIn when the user
	// already has an active session.
	Start(ctx context.Context, s domain.Session) error
	// Get returns the active session or domain.ErrNotLoggedIn.
	Get(ctx context.Context, userID string) (*domain.Session, error)
	// End removes the session if its id matches, else domain.ErrNotLoggedIn.
	End(ctx context.Context, userID, sessionID string) error
}
