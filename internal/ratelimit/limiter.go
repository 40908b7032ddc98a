// Package ratelimit throttles session creation per client IP. An identity
// wizard is an abuse magnet: each session fans out to a paid model provider,
// so unauthenticated creation gets a sliding-window limit.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of one limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Store counts requests per key within a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Limiter applies one limit policy over a store.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

func NewLimiter(store Store, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow checks and consumes one slot for the key.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	return l.store.Allow(ctx, key, l.limit, l.window)
}
