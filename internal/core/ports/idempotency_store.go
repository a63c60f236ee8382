package ports

import "context"

// IdempotencyStore remembers which expense a client-supplied key produced.
type IdempotencyStore interface {
	// Lookup returns the stored expense id, or "" when the key is unknown.
	Lookup(ctx context.Context, userID, key string) (string, error)
	Remember(ctx context.Context, userID, key, expenseID string) error
}
