// Package queue builds and serves the per-user candidate queue: a
// cached, priority-ordered list of scored candidates derived entirely
// from profile, preference and swipe state.
package queue

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/sparkvine/matchcore/internal/app"
	"github.com/sparkvine/matchcore/internal/db"
	svcErr "github.com/sparkvine/matchcore/internal/errors"
	"github.com/sparkvine/matchcore/internal/repository"
	"github.com/sparkvine/matchcore/internal/scoring"
)

// Candidate priority tiers. Priority dominates raw score so paid and
// high-intent signals always sort first.
const (
	priorityNone      = 0
	priorityBoosted   = 1
	prioritySuperLike = 2
)

type Service struct {
	appCtx *app.AppContext
	scorer *scoring.Scorer

	profileRepo *repository.ProfileRepository
	swipeRepo   *repository.SwipeRepository
	queueRepo   *repository.QueueRepository

	freshness    time.Duration
	candidateCap int
	maxLength    int
	now          func() time.Time
}

func NewService(appCtx *app.AppContext, scorer *scoring.Scorer) *Service {
	return &Service{
		appCtx:       appCtx,
		scorer:       scorer,
		profileRepo:  repository.NewProfileRepository(appCtx.DB),
		swipeRepo:    repository.NewSwipeRepository(appCtx.DB),
		queueRepo:    repository.NewQueueRepository(appCtx.DB),
		freshness:    appCtx.Config.Queue.Freshness,
		candidateCap: appCtx.Config.Queue.CandidateCap,
		maxLength:    appCtx.Config.Queue.MaxLength,
		now:          time.Now,
	}
}

// BuildQueue returns the user's candidate queue, rebuilding it unless a
// sufficiently fresh one exists.
//
// Behavior:
//   - Freshness is tracked by a Redis TTL key; a fresh queue short-
//     circuits to the persisted entries unless forceRefresh is set.
//     Rebuilds are expensive and this is the debounce.
//   - Hard filters (age, gender, distance box, exclusions) run in SQL;
//     scoring and ordering happen here on the bounded pool.
//   - Ordering: priority DESC, score DESC, candidate_id ASC. The ID
//     tie-break keeps rebuilds deterministic.
//   - An empty pool yields an empty queue and no error.
//
// The rebuild is not atomic with concurrent swipes; a queue briefly
// behind the latest swipe is fine because ProcessSwipe revalidates
// every target.
func (s *Service) BuildQueue(ctx context.Context, userID uint64, forceRefresh bool) ([]db.QueueEntry, error) {
	log := s.appCtx.Logger
	log.Debug("BuildQueue called", "user", userID, "force", forceRefresh)

	if !forceRefresh {
		if fresh, err := s.appCtx.RedisCache.QueueIsFresh(ctx, userID); err == nil && fresh {
			return s.queueRepo.List(ctx, userID)
		}
	}

	requester, err := s.profileRepo.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.ErrNotFound
	} else if err != nil {
		return nil, err
	}

	// show_profile=false hides the user from others; their own queue
	// still builds.
	pref, err := s.profileRepo.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}

	pool, err := s.profileRepo.CandidatePool(ctx, requester, pref, s.candidateCap)
	if err != nil {
		return nil, err
	}

	entries, err := s.scorePool(ctx, requester, pref, pool)
	if err != nil {
		return nil, err
	}

	if len(entries) > s.maxLength {
		entries = entries[:s.maxLength]
	}
	for i := range entries {
		entries[i].Position = i
	}

	if err := s.queueRepo.Replace(ctx, userID, entries); err != nil {
		return nil, err
	}
	if err := s.appCtx.RedisCache.MarkQueueFresh(ctx, userID, s.freshness); err != nil {
		log.Warn("failed to mark queue fresh", "user", userID, "err", err)
	}

	log.Debug("queue rebuilt", "user", userID, "pool", len(pool), "entries", len(entries))
	return entries, nil
}

// scorePool scores every candidate and orders the result.
func (s *Service) scorePool(ctx context.Context, requester db.Profile, pref db.Preference, pool []db.Profile) ([]db.QueueEntry, error) {
	if len(pool) == 0 {
		return []db.QueueEntry{}, nil
	}

	ids := make([]uint64, 0, len(pool))
	for _, c := range pool {
		ids = append(ids, c.ID)
	}

	interests, err := s.profileRepo.InterestsForMany(ctx, append(ids, requester.ID))
	if err != nil {
		return nil, err
	}
	superLikers, err := s.swipeRepo.SuperLikerIDs(ctx, requester.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries := make([]db.QueueEntry, 0, len(pool))
	for _, candidate := range pool {
		bd := s.scorer.Score(requester, pref, interests[requester.ID], candidate, interests[candidate.ID])

		// the bounding box overshoots in the corners; enforce the
		// radius exactly
		if pref.MaxDistanceKm > 0 && bd.DistanceKm > pref.MaxDistanceKm {
			continue
		}

		priority := priorityNone
		switch {
		case superLikers[candidate.ID]:
			priority = prioritySuperLike
		case candidate.BoostedUntil != nil && candidate.BoostedUntil.After(now):
			priority = priorityBoosted
		}

		entries = append(entries, db.QueueEntry{
			UserID:      requester.ID,
			CandidateID: candidate.ID,
			Score:       bd.Total,
			Priority:    priority,
			DistanceKm:  bd.DistanceKm,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].CandidateID < entries[j].CandidateID
	})

	return entries, nil
}
