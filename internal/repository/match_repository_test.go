package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkvine/matchcore/internal/db"
	svcErr "github.com/sparkvine/matchcore/internal/errors"
	"github.com/sparkvine/matchcore/internal/repository"
)

func TestCreateIfAbsentBothDirections(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	first, created, err := repo.CreateIfAbsent(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(1), first.UserAID)
	assert.Equal(t, uint64(2), first.UserBID)
	assert.NotEmpty(t, first.ID)

	// opposite direction lands on the same row
	second, created, err := repo.CreateIfAbsent(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, dbase.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateIfAbsentConcurrent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := repository.NewMatchRepository(dbase)

	const workers = 8
	createdCh := make(chan bool, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		a, b := uint64(1), uint64(2)
		if i%2 == 1 {
			a, b = b, a
		}
		wg.Add(1)
		go func(a, b uint64) {
			defer wg.Done()
			_, created, err := repo.CreateIfAbsent(ctx, a, b)
			assert.NoError(t, err)
			createdCh <- created
		}(a, b)
	}
	wg.Wait()
	close(createdCh)

	created := 0
	for c := range createdCh {
		if c {
			created++
		}
	}
	assert.Equal(t, 1, created)

	var count int64
	require.NoError(t, dbase.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUnmatchAuthorization(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	match, _, err := repo.CreateIfAbsent(ctx, 1, 2)
	require.NoError(t, err)

	// a stranger cannot dissolve the match
	err = repo.Unmatch(ctx, match.ID, 3)
	assert.ErrorIs(t, err, svcErr.ErrNotParticipant)

	// either participant can
	require.NoError(t, repo.Unmatch(ctx, match.ID, 2))

	stored, err := repo.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchUnmatched, stored.Status)
	require.NotNil(t, stored.UnmatchedBy)
	assert.Equal(t, uint64(2), *stored.UnmatchedBy)

	// second unmatch is a conflict, and unknown IDs are not found
	assert.ErrorIs(t, repo.Unmatch(ctx, match.ID, 1), svcErr.ErrAlreadyUnmatched)
	assert.ErrorIs(t, repo.Unmatch(ctx, "nope", 1), svcErr.ErrNotFound)
}

func TestCreateIfAbsentReactivatesUnmatchedPair(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	match, _, err := repo.CreateIfAbsent(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, repo.Unmatch(ctx, match.ID, 1))

	again, created, err := repo.CreateIfAbsent(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created) // reactivation re-announces the match
	assert.Equal(t, match.ID, again.ID)
	assert.Equal(t, db.MatchActive, again.Status)
	assert.Nil(t, again.UnmatchedBy)
}

func TestHasActive(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	active, err := repo.HasActive(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, active)

	match, _, err := repo.CreateIfAbsent(ctx, 1, 2)
	require.NoError(t, err)

	active, err = repo.HasActive(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, repo.Unmatch(ctx, match.ID, 1))

	active, err = repo.HasActive(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestListActiveMatches(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	_, _, err := repo.CreateIfAbsent(ctx, 1, 2)
	require.NoError(t, err)
	_, _, err = repo.CreateIfAbsent(ctx, 1, 3)
	require.NoError(t, err)
	dissolved, _, err := repo.CreateIfAbsent(ctx, 1, 4)
	require.NoError(t, err)
	require.NoError(t, repo.Unmatch(ctx, dissolved.ID, 4))

	matches, next, err := repo.ListActive(ctx, 1, nil, 10)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, matches, 2)

	partners := map[uint64]bool{}
	for _, m := range matches {
		partners[repository.PartnerID(m, 1)] = true
	}
	assert.True(t, partners[2])
	assert.True(t, partners[3])
	assert.False(t, partners[4])
}
