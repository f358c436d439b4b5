package match_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sparkvine/matchcore/internal/app"
	"github.com/sparkvine/matchcore/internal/cache"
	"github.com/sparkvine/matchcore/internal/config"
	"github.com/sparkvine/matchcore/internal/db"
	"github.com/sparkvine/matchcore/internal/events"
	"github.com/sparkvine/matchcore/internal/policy"
	"github.com/sparkvine/matchcore/internal/service/match"
	"github.com/sparkvine/matchcore/internal/service/swipe"
)

func setupAppCtx(t *testing.T) *app.AppContext {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, dbase.Create(&db.Profile{
			ID:           i,
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("u%d@test.com", i),
			PasswordHash: "x",
			Active:       true,
			Gender:       "female",
			Age:          30,
			LastActiveAt: time.Now().UTC(),
		}).Error)
	}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return app.New(dbase, redisCache, log, cfg)
}

// makeMatch drives a mutual like through the swipe service and returns
// the match ID.
func makeMatch(t *testing.T, appCtx *app.AppContext, a, b uint64) (string, *swipe.Service) {
	t.Helper()
	ctx := context.Background()
	ssvc := swipe.NewService(appCtx, events.NewChannelEmitter(4), policy.AllowAll{})

	_, err := ssvc.ProcessSwipe(ctx, a, b, db.ActionLike)
	require.NoError(t, err)
	matched, err := ssvc.ProcessSwipe(ctx, b, a, db.ActionLike)
	require.NoError(t, err)
	require.True(t, matched.Matched)
	return matched.MatchID, ssvc
}

func TestListActiveViews(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	matchID, _ := makeMatch(t, appCtx, 1, 2)

	views, next, err := match.NewService(appCtx).ListActive(ctx, 1, nil, 10)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, views, 1)
	assert.Equal(t, matchID, views[0].MatchID)
	assert.Equal(t, uint64(2), views[0].PartnerID)
	assert.NotZero(t, views[0].MatchedAt)
}

func TestUnmatchRetiresPairSwipes(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	matchID, _ := makeMatch(t, appCtx, 1, 2)

	require.NoError(t, match.NewService(appCtx).Unmatch(ctx, matchID, 1))

	var stored db.Match
	require.NoError(t, appCtx.DB.Where("id = ?", matchID).First(&stored).Error)
	assert.Equal(t, db.MatchUnmatched, stored.Status)

	// both directions of the old pair are retired
	var swipes []db.Swipe
	require.NoError(t, appCtx.DB.Find(&swipes).Error)
	require.Len(t, swipes, 2)
	for _, s := range swipes {
		assert.Equal(t, db.SwipeUndone, s.Status)
	}
}

func TestRematchNeedsFreshMutualSwipes(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)
	matchID, ssvc := makeMatch(t, appCtx, 1, 2)

	require.NoError(t, match.NewService(appCtx).Unmatch(ctx, matchID, 2))

	// a one-sided re-swipe must not resurrect the match
	result, err := ssvc.ProcessSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	assert.False(t, result.Matched)

	var stored db.Match
	require.NoError(t, appCtx.DB.Where("id = ?", matchID).First(&stored).Error)
	assert.Equal(t, db.MatchUnmatched, stored.Status)

	// a fresh reciprocal swipe reactivates the same pair row
	result, err = ssvc.ProcessSwipe(ctx, 2, 1, db.ActionLike)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, matchID, result.MatchID)
}
