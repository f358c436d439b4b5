package policy_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkvine/matchcore/internal/cache"
	"github.com/sparkvine/matchcore/internal/config"
	"github.com/sparkvine/matchcore/internal/policy"
)

func setupCache(t *testing.T) *cache.RedisCache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	return cache.NewRedisCache(cfg)
}

func TestDailyLimitCountsOnlySwipes(t *testing.T) {
	ctx := context.Background()
	limiter := policy.NewDailyLimit(setupCache(t), 2)

	for i := 0; i < 2; i++ {
		allowed, err := limiter.IsAllowed(ctx, 1, policy.ActionSwipe)
		require.NoError(t, err)
		assert.True(t, allowed)
		require.NoError(t, limiter.Record(ctx, 1, policy.ActionSwipe))
	}

	allowed, err := limiter.IsAllowed(ctx, 1, policy.ActionSwipe)
	require.NoError(t, err)
	assert.False(t, allowed)

	// undo is never limited
	allowed, err = limiter.IsAllowed(ctx, 1, policy.ActionUndo)
	require.NoError(t, err)
	assert.True(t, allowed)

	// other users are unaffected
	allowed, err = limiter.IsAllowed(ctx, 2, policy.ActionSwipe)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDailyLimitDisabled(t *testing.T) {
	ctx := context.Background()
	limiter := policy.NewDailyLimit(setupCache(t), 0)

	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Record(ctx, 1, policy.ActionSwipe))
	}
	allowed, err := limiter.IsAllowed(ctx, 1, policy.ActionSwipe)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllowAll(t *testing.T) {
	ctx := context.Background()
	allowed, err := policy.AllowAll{}.IsAllowed(ctx, 1, policy.ActionSwipe)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, policy.AllowAll{}.Record(ctx, 1, policy.ActionSwipe))
}
