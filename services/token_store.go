package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenKeyPrefix = "revoked:access_token:"

// TokenStore remembers revoked token ids until their expiry. A nil store or
// an unreachable Redis behaves as "nothing revoked".
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	if client == nil {
		return nil
	}
	return &TokenStore{client: client}
}

// Revoke marks tokenID as revoked for ttl.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if s == nil || s.client == nil || tokenID == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedTokenKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		slog.Warn("Failed to store revoked token", "error", err, "jti", tokenID)
		return err
	}
	return nil
}

func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) bool {
	if s == nil || s.client == nil || tokenID == "" {
		return false
	}
	err := s.client.Get(ctx, revokedTokenKeyPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.Warn("Token revocation lookup failed", "error", err, "jti", tokenID)
		return false
	}
	return true
}
