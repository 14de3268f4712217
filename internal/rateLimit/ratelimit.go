// Package rateLimit counts requests per key in fixed redis windows.
package rateLimit

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	redisadapter "github.com/robertarktes/party-bookings/internal/adapters/redis"
)

type RateLimiter struct {
	redis *redisadapter.Cache
	now   func() time.Time
}

func NewRateLimiter(redis *redisadapter.Cache) *RateLimiter {
	return &RateLimiter{redis: redis, now: time.Now}
}

// Allow counts one hit for key in the current window and reports whether the
// count is still within rate. Redis failures are returned with allowed=true
// so callers can decide to fail open.
func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) (bool, error) {
	window := rl.now().UnixNano() / int64(period)
	fullKey := "rl:" + key + ":" + strconv.FormatInt(window, 10)

	pipe := rl.redis.Client().Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, period)

	if _, err := pipe.Exec(ctx); err != nil {
		return true, errors.Wrap(err, "rate limit counter")
	}
	return incr.Val() <= int64(rate), nil
}
