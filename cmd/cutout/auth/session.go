package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	rediswrap "github.com/snipline/cutout/common/redis"
)

// SessionStore keeps authenticated sessions in Redis, keyed by an opaque
// token handed to the browser as a cookie
type SessionStore struct {
	redis *rediswrap.Client
	ttl   time.Duration
}

// NewSessionStore creates a Redis-backed session store
func NewSessionStore(client *rediswrap.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		redis: client,
		ttl:   ttl,
	}
}

// Create opens a session for an authenticated identity and returns its token
func (s *SessionStore) Create(ctx context.Context, identityID string) (string, error) {
	token := uuid.New().String()

	if err := s.redis.SetWithExpiry(ctx, sessionKey(token), []byte(identityID), s.ttl); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return token, nil
}

// Verify returns the identity ID behind a session token, or "" when the
// session does not exist or has expired
func (s *SessionStore) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}

	identityID, err := s.redis.GetBytes(ctx, sessionKey(token))
	if errors.Is(err, rediswrap.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("verify session: %w", err)
	}

	return string(identityID), nil
}

// Destroy removes a session
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.redis.Delete(ctx, sessionKey(token))
}

func sessionKey(token string) string {
	return "session:" + token
}
