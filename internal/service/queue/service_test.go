package queue_test

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
	"github.com/sparkvine/matchcore/internal/scoring"
	"github.com/sparkvine/matchcore/internal/service/queue"
	"github.com/sparkvine/matchcore/internal/service/swipe"
)

const (
	baseLat = 51.5074
	baseLon = -0.1278
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

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return app.New(dbase, redisCache, log, cfg)
}

// addUser creates a profile plus a preference row open to the given
// genders.
func addUser(t *testing.T, appCtx *app.AppContext, id uint64, gender string, age int, latOffset float64, wants string) {
	t.Helper()
	profile := db.Profile{
		ID:           id,
		Username:     fmt.Sprintf("user%d", id),
		Email:        fmt.Sprintf("u%d@test.com", id),
		PasswordHash: "x",
		Active:       true,
		Gender:       gender,
		Age:          age,
		Lat:          baseLat + latOffset,
		Lon:          baseLon,
		LastActiveAt: time.Now().UTC(),
	}
	require.NoError(t, appCtx.DB.Create(&profile).Error)

	pref := db.Preference{
		ProfileID:        id,
		AgeMin:           25,
		AgeMax:           35,
		MaxDistanceKm:    16,
		PreferredGenders: wants,
		ShowProfile:      true,
		AllowMessages:    true,
	}
	require.NoError(t, appCtx.DB.Create(&pref).Error)
}

func newQueueService(appCtx *app.AppContext) *queue.Service {
	return queue.NewService(appCtx, scoring.NewScorer(scoring.DefaultWeights()))
}

func entryIDs(entries []db.QueueEntry) []uint64 {
	ids := make([]uint64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.CandidateID)
	}
	return ids
}

// The walkthrough from the product brief: user A (30) and user B (28)
// about 3km apart, A open to ages 25-35 within 16km. B must appear in
// A's queue with a positive score, and the mutual-like flow must end
// with B among A's matches.
func TestQueueAndMatchScenario(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)

	addUser(t, appCtx, 1, "male", 30, 0, "female")       // A
	addUser(t, appCtx, 2, "female", 28, 0.029, "male")   // B, ~3.2km away

	qsvc := newQueueService(appCtx)
	entries, err := qsvc.BuildQueue(ctx, 1, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(2), entries[0].CandidateID)
	assert.Greater(t, entries[0].Score, 0.0)
	assert.InDelta(t, 3.2, entries[0].DistanceKm, 0.3)

	emitter := events.NewChannelEmitter(4)
	ssvc := swipe.NewService(appCtx, emitter, policy.AllowAll{})

	first, err := ssvc.ProcessSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	assert.False(t, first.Matched)

	second, err := ssvc.ProcessSwipe(ctx, 2, 1, db.ActionLike)
	require.NoError(t, err)
	assert.True(t, second.Matched)
	assert.NotEmpty(t, second.MatchID)
}

func TestQueueExclusions(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)

	addUser(t, appCtx, 1, "male", 30, 0, "female")
	addUser(t, appCtx, 2, "female", 28, 0.01, "male")  // eligible
	addUser(t, appCtx, 3, "female", 29, 0.01, "male")  // passed by requester
	addUser(t, appCtx, 4, "female", 30, 0.01, "male")  // matched partner
	addUser(t, appCtx, 5, "female", 31, 0.01, "male")  // blocked the requester
	addUser(t, appCtx, 6, "female", 50, 0.01, "male")  // outside age range
	addUser(t, appCtx, 7, "male", 30, 0.01, "female")  // wrong gender for requester
	addUser(t, appCtx, 8, "female", 30, 0.9, "male")   // ~100km away
	addUser(t, appCtx, 9, "female", 30, 0.01, "male")  // hidden profile

	ssvc := swipe.NewService(appCtx, events.NewChannelEmitter(4), policy.AllowAll{})
	_, err := ssvc.ProcessSwipe(ctx, 1, 3, db.ActionPass)
	require.NoError(t, err)
	_, err = ssvc.ProcessSwipe(ctx, 1, 4, db.ActionLike)
	require.NoError(t, err)
	_, err = ssvc.ProcessSwipe(ctx, 4, 1, db.ActionLike)
	require.NoError(t, err)

	require.NoError(t, appCtx.DB.Create(&db.Block{BlockerID: 5, BlockedID: 1}).Error)
	require.NoError(t, appCtx.DB.Model(&db.Preference{}).
		Where("profile_id = ?", 9).Update("show_profile", false).Error)

	entries, err := newQueueService(appCtx).BuildQueue(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, entryIDs(entries))
}

func TestQueueIncludesCandidateWithoutPreferences(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)

	addUser(t, appCtx, 1, "male", 30, 0, "female")

	// candidate never saved a preference row; visibility defaults on
	require.NoError(t, appCtx.DB.Create(&db.Profile{
		ID:           2,
		Username:     "user2",
		Email:        "u2@test.com",
		PasswordHash: "x",
		Active:       true,
		Gender:       "female",
		Age:          28,
		Lat:          baseLat + 0.01,
		Lon:          baseLon,
		LastActiveAt: time.Now().UTC(),
	}).Error)

	entries, err := newQueueService(appCtx).BuildQueue(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, entryIDs(entries))
}

func TestQueueOrderingPrioritiesDominate(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)

	addUser(t, appCtx, 1, "male", 30, 0, "female")
	addUser(t, appCtx, 2, "female", 30, 0.001, "male") // best raw score
	addUser(t, appCtx, 3, "female", 34, 0.08, "male")  // worse score, but super-liked requester
	addUser(t, appCtx, 4, "female", 30, 0.002, "male") // boosted, score near user 2

	// user 3 super-liked the requester
	require.NoError(t, appCtx.DB.Create(&db.Swipe{
		ActorID: 3, TargetID: 1, Action: db.ActionSuperLike, Status: db.SwipeActive,
	}).Error)
	// user 4 has an active boost
	boosted := time.Now().UTC().Add(time.Hour)
	require.NoError(t, appCtx.DB.Model(&db.Profile{}).
		Where("id = ?", 4).Update("boosted_until", boosted).Error)

	entries, err := newQueueService(appCtx).BuildQueue(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// super-like tier, then boost tier, then the rest by score
	assert.Equal(t, []uint64{3, 4, 2}, entryIDs(entries))
	assert.Equal(t, 0, entries[0].Position)
	assert.Equal(t, 2, entries[2].Position)
}

func TestQueueFreshnessDebounce(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)

	addUser(t, appCtx, 1, "male", 30, 0, "female")
	addUser(t, appCtx, 2, "female", 28, 0.01, "male")

	qsvc := newQueueService(appCtx)
	entries, err := qsvc.BuildQueue(ctx, 1, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// a new candidate appears after the build
	addUser(t, appCtx, 3, "female", 30, 0.01, "male")

	// fresh queue: cached entries come back unchanged
	cached, err := qsvc.BuildQueue(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, entryIDs(cached))

	// forced rebuild sees the new candidate
	rebuilt, err := qsvc.BuildQueue(ctx, 1, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3}, entryIDs(rebuilt))
}

func TestQueueEmptyPoolIsNotAnError(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)

	addUser(t, appCtx, 1, "male", 30, 0, "female")

	entries, err := newQueueService(appCtx).BuildQueue(ctx, 1, false)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestUndoResurfacesCandidate(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)

	addUser(t, appCtx, 1, "male", 30, 0, "female")
	addUser(t, appCtx, 2, "female", 28, 0.01, "male")

	qsvc := newQueueService(appCtx)
	ssvc := swipe.NewService(appCtx, events.NewChannelEmitter(4), policy.AllowAll{})

	entries, err := qsvc.BuildQueue(ctx, 1, false)
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, entryIDs(entries))

	_, err = ssvc.ProcessSwipe(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)

	entries, err = qsvc.BuildQueue(ctx, 1, true)
	require.NoError(t, err)
	assert.Empty(t, entries)

	undone, err := ssvc.UndoSwipe(ctx, 1)
	require.NoError(t, err)
	require.True(t, undone)

	// undo invalidated the freshness key, so even an unforced read
	// rebuilds and surfaces the candidate again
	entries, err = qsvc.BuildQueue(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, entryIDs(entries))
}

func TestQueueUnknownUser(t *testing.T) {
	ctx := context.Background()
	appCtx := setupAppCtx(t)

	_, err := newQueueService(appCtx).BuildQueue(ctx, 42, false)
	assert.Error(t, err)
}
