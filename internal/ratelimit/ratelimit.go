// Package ratelimit guards plan generation per user and per process.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"care-meal-planner/internal/kvstore"

	"golang.org/x/time/rate"
)

// ErrLimited is returned when a user or the whole service is over its budget.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter combines a fixed per-user window counted in a TTL store with a
// process-wide token bucket in front of the model backend.
type Limiter struct {
	store   kvstore.Store
	perUser int
	window  time.Duration
	global  *rate.Limiter
	now     func() time.Time
}

// Config configures a Limiter. Non-positive limits disable that check.
type Config struct {
	PerUser   int
	Window    time.Duration
	PerMinute int
	Now       func() time.Time
}

// New creates a Limiter over store.
func New(store kvstore.Store, cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	l := &Limiter{store: store, perUser: cfg.PerUser, window: cfg.Window, now: cfg.Now}
	if cfg.PerMinute > 0 {
		l.global = rate.NewLimiter(rate.Limit(cfg.PerMinute)/60, cfg.PerMinute)
	}
	return l
}

func (l *Limiter) windowKey(userID string) string {
	slot := l.now().UnixNano() / int64(l.window)
	return fmt.Sprintf("ratelimit:%s:%d", userID, slot)
}

// Allow records one generation for userID and reports whether it may run.
// A request rejected by either check consumes nothing from the other.
func (l *Limiter) Allow(ctx context.Context, userID string) error {
	var global *rate.Reservation
	if l.global != nil {
		now := l.now()
		global = l.global.ReserveN(now, 1)
		if !global.OK() || global.DelayFrom(now) > 0 {
			global.CancelAt(now)
			return fmt.Errorf("%w: service is busy", ErrLimited)
		}
	}
	if err := l.allowUser(ctx, userID); err != nil {
		if global != nil {
			global.CancelAt(l.now())
		}
		return err
	}
	return nil
}

func (l *Limiter) allowUser(ctx context.Context, userID string) error {
	if l.perUser <= 0 {
		return nil
	}
	key := l.windowKey(userID)
	n, err := l.store.Incr(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to count request for %s: %w", userID, err)
	}
	if n == 1 {
		if err := l.store.Expire(ctx, key, l.window); err != nil {
			return fmt.Errorf("failed to set window expiry for %s: %w", userID, err)
		}
	}
	if n > int64(l.perUser) {
		return fmt.Errorf("%w: %d generations per %s for user %s", ErrLimited, l.perUser, l.window, userID)
	}
	return nil
}
