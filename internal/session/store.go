package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/miskar/quizdeck/internal/domain"
)

var ErrTokenNotFound = errors.New("token not found")

const (
	// Token expiration time
	tokenExpiration = 24 * time.Hour

	// Redis key prefix
	tokenKeyPrefix = "token:"
)

// TokenStore keeps login sessions in Redis as opaque bearer tokens.
type TokenStore struct {
	redis *redis.Client
}

// NewTokenStore creates a new token store
func NewTokenStore(redis *redis.Client) *TokenStore {
	return &TokenStore{redis: redis}
}

// Create issues a token for an authenticated user.
func (s *TokenStore) Create(ctx context.Context, user domain.User) (string, error) {
	token := uuid.New().String()
	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := s.redis.Set(ctx, tokenKeyPrefix+token, data, tokenExpiration).Err(); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return token, nil
}

// Resolve returns the user behind a token.
func (s *TokenStore) Resolve(ctx context.Context, token string) (*domain.User, error) {
	data, err := s.redis.Get(ctx, tokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &user, nil
}

// Delete revokes a token.
func (s *TokenStore) Delete(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, tokenKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
