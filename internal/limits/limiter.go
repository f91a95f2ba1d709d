// Package limits implements the free-tier summary quota: a Redis-backed
// sliding window keyed by the client's device ID. Pro users bypass the check
// entirely, and a missing or unreachable Redis degrades to allowing the
// request — the quota is a product guardrail, not a security boundary.
package limits

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed   bool
	Remaining int // uses left in the current window, after this one
	ResetAt   time.Time
}

// Limiter enforces a sliding-window count per device.
type Limiter struct {
	rdb       redis.UniversalClient
	limit     int
	window    time.Duration
	namespace string
	now       func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithNamespace sets the Redis key prefix (default "reflectd").
func WithNamespace(ns string) Option {
	return func(l *Limiter) { l.namespace = ns }
}

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter allowing limit uses per window.
func New(rdb redis.UniversalClient, limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		rdb:       rdb,
		limit:     limit,
		window:    window,
		namespace: "reflectd",
		now:       time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Allow records one use for the device if the window has capacity. On denial
// the Decision carries when the oldest use falls out of the window. Errors
// mean Redis itself failed; the caller decides how to degrade.
func (l *Limiter) Allow(ctx context.Context, deviceID string) (Decision, error) {
	key := fmt.Sprintf("%s:summary:%s", l.namespace, deviceID)
	now := l.now()
	windowStart := now.Add(-l.window)

	// Drop entries that have aged out of the window.
	if err := l.rdb.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10)).Err(); err != nil {
		return Decision{}, fmt.Errorf("trim window: %w", err)
	}

	count, err := l.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("count window: %w", err)
	}

	if count >= int64(l.limit) {
		resetAt := now.Add(l.window)
		if oldest, err := l.rdb.ZRangeWithScores(ctx, key, 0, 0).Result(); err == nil && len(oldest) > 0 {
			resetAt = time.UnixMilli(int64(oldest[0].Score)).Add(l.window)
		}
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	if err := l.rdb.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member}).Err(); err != nil {
		return Decision{}, fmt.Errorf("record use: %w", err)
	}
	// Keys self-expire once the device goes quiet for a full window.
	if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
		return Decision{}, fmt.Errorf("set expiry: %w", err)
	}

	return Decision{
		Allowed:   true,
		Remaining: l.limit - int(count) - 1,
		ResetAt:   now.Add(l.window),
	}, nil
}
