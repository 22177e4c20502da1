package middleware

import (
	"context"  // Context for Redis calls
	"net/http" // HTTP status codes
	"strconv"  // Key formatting
	"time"     // Window length

	"apexpay/internal/metrics" // Blocked request counter

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging
)

// Counter is the part of the Redis client the limiter uses
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RateLimitMiddleware is a fixed-window limiter on Redis INCR/EXPIRE. Requests
// are keyed by the authenticated user when known, otherwise by client IP.
// A nil counter or a Redis failure lets the request through.
func RateLimitMiddleware(rdb Counter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || maxRequests <= 0 {
			c.Next() // Limiter disabled
			return
		}

		ident := "ip:" + c.ClientIP()
		if userID := c.GetUint(UserIDKey); userID != 0 {
			ident = "user:" + strconv.FormatUint(uint64(userID), 10)
		}
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.FullPath() + ":" + ident
		ctx := c.Request.Context()

		n, err := rdb.Incr(ctx, key).Result() // Count this request
		if err != nil {
			// Fail open, the limiter must not take the API down with it
			logrus.WithError(err).Warn("Rate limiter unavailable")
			c.Next()
			return
		}
		if n == 1 {
			// First hit opens the window. A counter without a TTL would block
			// the caller for good, so it is dropped instead.
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				entry := logrus.WithError(err).WithField("key", key)
				if err := rdb.Del(ctx, key).Err(); err != nil {
					entry = entry.WithField("del_error", err.Error())
				}
				entry.Warn("Rate limit window not opened")
				c.Next()
				return
			}
		}

		if n > int64(maxRequests) {
			metrics.RateLimited.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
