package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which expense an Idempotency-Key produced.
// Key format: idem:<user_id>:<key> -> <expense_id>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// Lookup returns the stored expense id, or "" when the key has not been seen.
func (s *IdempotencyStore) Lookup(ctx context.Context, userID, key string) (string, error) {
	id, err := s.client.Get(ctx, idempotencyKey(userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("idempotency lookup: %w", err)
	}
	return id, nil
}

// Remember records expenseID for key. An existing entry is kept.
func (s *IdempotencyStore) Remember(ctx context.Context, userID, key, expenseID string) error {
	if err := s.client.SetNX(ctx, idempotencyKey(userID, key), expenseID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

func idempotencyKey(userID, key string) string {
	return fmt.Sprintf("idem:%s:%s", userID, key)
}
