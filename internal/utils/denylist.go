package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylist remembers revoked token IDs until they would have expired.
// A nil Redis client disables revocation.
type TokenDenylist struct {
	rdb redis.Cmdable
}

func NewTokenDenylist(rdb redis.Cmdable) *TokenDenylist {
	return &TokenDenylist{rdb: rdb}
}

func denylistKey(jti string) string { return "revoked:jti:" + jti }

// Revoke marks jti as revoked for ttl
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if d == nil || d.rdb == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, denylistKey(jti), 1, ttl).Err()
}

// IsRevoked reports whether jti was revoked. Redis failures count as not revoked.
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) bool {
	if d == nil || d.rdb == nil || jti == "" {
		return false
	}
	n, err := d.rdb.Exists(ctx, denylistKey(jti)).Result()
	return err == nil && n > 0
}
