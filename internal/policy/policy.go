// Package policy gates engine actions on product rules (daily limits,
// premium entitlements). The matching core only asks IsAllowed; what
// makes an action allowed stays behind this interface.
package policy

import (
	"context"
	"time"

	"github.com/sparkvine/matchcore/internal/cache"
)

// Action names a gated operation.
type Action string

const (
	ActionSwipe Action = "swipe"
	ActionUndo  Action = "undo"
)

// Checker decides whether a user may perform an action right now.
type Checker interface {
	IsAllowed(ctx context.Context, userID uint64, action Action) (bool, error)
	// Record notes that the action happened, for policies that count.
	Record(ctx context.Context, userID uint64, action Action) error
}

// AllowAll is the no-op policy.
type AllowAll struct{}

func (AllowAll) IsAllowed(ctx context.Context, userID uint64, action Action) (bool, error) {
	return true, nil
}

func (AllowAll) Record(ctx context.Context, userID uint64, action Action) error {
	return nil
}

// DailyLimit caps swipes per user per UTC day using Redis counters.
// Undo is never limited. A zero or negative limit disables the cap.
type DailyLimit struct {
	cache *cache.RedisCache
	limit int64
	now   func() time.Time
}

func NewDailyLimit(c *cache.RedisCache, limit int64) *DailyLimit {
	return &DailyLimit{cache: c, limit: limit, now: time.Now}
}

func (p *DailyLimit) IsAllowed(ctx context.Context, userID uint64, action Action) (bool, error) {
	if action != ActionSwipe || p.limit <= 0 {
		return true, nil
	}
	used, err := p.cache.GetDailySwipes(ctx, userID, p.now())
	if err != nil {
		// Redis trouble must not take swiping down with it
		return true, nil
	}
	return used < p.limit, nil
}

func (p *DailyLimit) Record(ctx context.Context, userID uint64, action Action) error {
	if action != ActionSwipe || p.limit <= 0 {
		return nil
	}
	_, err := p.cache.IncrDailySwipes(ctx, userID, p.now())
	return err
}
