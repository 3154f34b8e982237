// Package progress publishes generation checkpoints to interested sinks.
package progress

import (
	"context"
	"errors"
	"time"

	"care-meal-planner/internal/kvstore"
	"care-meal-planner/internal/planner"

	"go.uber.org/zap"
)

// Tracker keeps the latest stage per user in a TTL store so a polling client
// can show it.
type Tracker struct {
	store  kvstore.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewTracker creates a Tracker whose entries live for ttl.
func NewTracker(store kvstore.Store, ttl time.Duration, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, ttl: ttl, logger: logger.Named("progress")}
}

func key(userID string) string {
	return "progress:" + userID
}

// Set stores stage as the user's current stage.
func (t *Tracker) Set(ctx context.Context, userID string, stage planner.Stage) error {
	return t.store.Set(ctx, key(userID), string(stage), t.ttl)
}

// Get returns the user's current stage and whether one is known.
func (t *Tracker) Get(ctx context.Context, userID string) (planner.Stage, bool, error) {
	v, err := t.store.Get(ctx, key(userID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return planner.Stage(v), true, nil
}

// Func returns a callback that records stages for userID. Store failures are
// logged and never interrupt generation.
func (t *Tracker) Func(ctx context.Context, userID string) planner.ProgressFunc {
	return func(stage planner.Stage) {
		if err := t.Set(ctx, userID, stage); err != nil {
			t.logger.Warn("failed to record progress", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

// Combine fans a stage out to every non-nil callback in order.
func Combine(fns ...planner.ProgressFunc) planner.ProgressFunc {
	var active []planner.ProgressFunc
	for _, fn := range fns {
		if fn != nil {
			active = append(active, fn)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(stage planner.Stage) {
		for _, fn := range active {
			fn(stage)
		}
	}
}
