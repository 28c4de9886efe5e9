package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound indicates the token's session has been revoked or expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore tracks active login sessions so tokens can be revoked
// server-side before their JWT expiry.
type SessionStore interface {
	Create(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error
	Exists(ctx context.Context, tokenID string) (bool, error)
	Delete(ctx context.Context, tokenID string) error
}

type redisSessionStore struct {
	client *redis.Client
}

// NewSessionStore builds a Redis-backed session store.
func NewSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func sessionKey(tokenID string) string {
	return fmt.Sprintf("session:%s", tokenID)
}

func (s *redisSessionStore) Create(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKey(tokenID), strconv.FormatUint(uint64(userID), 10), ttl).Err()
}

func (s *redisSessionStore) Exists(ctx context.Context, tokenID string) (bool, error) {
	count, err := s.client.Exists(ctx, sessionKey(tokenID)).Result()
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, tokenID string) error {
	deleted, err := s.client.Del(ctx, sessionKey(tokenID)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrSessionNotFound
	}

	return nil
}
