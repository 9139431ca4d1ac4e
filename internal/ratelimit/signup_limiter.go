package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// SignupLimiter bounds how many tenant signups a caller can start per window.
// It is a fixed-window counter: the first INCR in a window sets the expiry,
// later ones only count. Signup is rare and expensive, so the fixed-window
// boundary burst is acceptable. A nil limiter (redis disabled) allows all.
type SignupLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewSignupLimiter(client *redis.Client, limit int, window time.Duration) *SignupLimiter {
	if client == nil || limit <= 0 || window <= 0 {
		return nil
	}
	return &SignupLimiter{client: client, limit: limit, window: window}
}

// windowBucket numbers the window that contains now. Nanosecond arithmetic
// keeps sub-second windows from truncating the divisor to zero.
func (s *SignupLimiter) windowBucket(now time.Time) int64 {
	return now.UnixNano() / int64(s.window)
}

// Allow consumes one signup attempt for the caller. It returns whether the
// attempt is within the limit and how many attempts remain in the window.
func (s *SignupLimiter) Allow(ctx context.Context, caller string) (bool, int, error) {
	if s == nil || s.client == nil {
		return true, 0, nil
	}

	key := fmt.Sprintf("tenantgate:signup:%s:%d", caller, s.windowBucket(time.Now()))
	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	used := int(count.Val())
	remaining := s.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return used <= s.limit, remaining, nil
}
