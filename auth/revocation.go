package auth

import (
	"context"
	"fmt"
	"time"

	"food-ordering-api/cache"
)

const revokedTokenKeyPrefix = "revoked_token:"

// RevocationStore records tokens that were logged out before they expired.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// CacheRevocationStore keeps revoked token ids in Redis until they would
// have expired anyway. With a nil cache nothing is recorded and every token
// counts as live.
type CacheRevocationStore struct {
	cache *cache.Client
}

var _ RevocationStore = (*CacheRevocationStore)(nil)

func NewRevocationStore(c *cache.Client) *CacheRevocationStore {
	return &CacheRevocationStore{cache: c}
}

func (s *CacheRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *CacheRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedTokenKeyPrefix+tokenID)
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return data != nil, nil
}
