package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"fmt"           // Key formatting
	"time"          // Time durations

	"apexpay/internal/metrics" // Cache hit/miss counters

	"github.com/redis/go-redis/v9" // Redis client
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb redis.Cmdable, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb redis.Cmdable, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb redis.Cmdable, keys ...string) error {
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// GenerationKey is the counter that versions every cached read of a user
func GenerationKey(userID uint) string {
	return fmt.Sprintf("cachegen:user:%d", userID)
}

// WalletCacheKey is the cache key of a user's wallet read at generation gen
func WalletCacheKey(userID uint, gen int64) string {
	return fmt.Sprintf("wallet:user:%d:g%d", userID, gen)
}

// HistoryCacheKey is the cache key of a user's transaction history read at generation gen
func HistoryCacheKey(userID uint, gen int64) string {
	return fmt.Sprintf("txhistory:user:%d:g%d", userID, gen)
}

// RedisCache is a read-through cache with a fixed TTL
type RedisCache struct {
	rdb redis.Cmdable // Redis client
	ttl time.Duration // Entry lifetime
}

// NewRedisCache creates a cache storing entries for ttl
func NewRedisCache(rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Get loads key into dest, reporting whether it was present
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	found, err := GetCache(ctx, c.rdb, key, dest)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
	case found:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	return found, err
}

// Set stores value under key
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	return SetCache(ctx, c.rdb, key, value, c.ttl)
}

// Delete invalidates keys
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return DeleteCache(ctx, c.rdb, keys...)
}

// Counter reads an integer key, treating a missing key as zero
func (c *RedisCache) Counter(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil // Never bumped
	}
	return n, err
}

// Incr bumps an integer key and returns the new value
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}
