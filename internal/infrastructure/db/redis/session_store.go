package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moneytracker/money-tracker/internal/core/domain"
)

// endSessionScript deletes the session key only if it still holds the given
// session id, so a stale token can never end a newer login.
var endSessionScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionStore keeps one active session per user.
// Key format: session:<user_id> -> <session_id>, expiring with the token.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Start claims the user's session slot. It fails with domain.ErrAlreadyLoggedIn
// while a previous session is still active.
func (s *SessionStore) Start(ctx context.Context, session domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("start session: expiry %s is in the past", session.ExpiresAt)
	}

	ok, err := s.client.SetNX(ctx, sessionKey(session.UserID), session.ID, ttl).Result()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if !ok {
		return domain.ErrAlreadyLoggedIn
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, userID string) (*domain.Session, error) {
	key := sessionKey(userID)

	pipe := s.client.Pipeline()
	idCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get session: %w", err)
	}

	id, err := idCmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	session := &domain.Session{ID: id, UserID: userID}
	if ttl := ttlCmd.Val(); ttl > 0 {
		session.ExpiresAt = time.Now().Add(ttl)
	}
	return session, nil
}

// End removes the session if sessionID is the active one.
func (s *SessionStore) End(ctx context.Context, userID, sessionID string) error {
	n, err := endSessionScript.Run(ctx, s.client, []string{sessionKey(userID)}, sessionID).Int()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return domain.ErrNotLoggedIn
	}
	return nil
}

func sessionKey(userID string) string {
	return "session:" + userID
}
