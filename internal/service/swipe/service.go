// Package swipe implements the swipe-processing state machine: validate
// a decision, record it, detect mutual interest, promote it to a match,
// and support bounded undo.
package swipe

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/sparkvine/matchcore/internal/app"
	"github.com/sparkvine/matchcore/internal/db"
	svcErr "github.com/sparkvine/matchcore/internal/errors"
	"github.com/sparkvine/matchcore/internal/events"
	"github.com/sparkvine/matchcore/internal/policy"
	"github.com/sparkvine/matchcore/internal/repository"
)

// Result is the outcome of a processed swipe.
type Result struct {
	SwipeID uint64 `json:"swipe_id"`
	Matched bool   `json:"matched"`
	MatchID string `json:"match_id,omitempty"`
}

// Service is the swipe processor. All state transitions for a
// (actor, target) pair run through here.
type Service struct {
	appCtx  *app.AppContext
	emitter events.Emitter
	checker policy.Checker

	swipeRepo   *repository.SwipeRepository
	matchRepo   *repository.MatchRepository
	profileRepo *repository.ProfileRepository
	queueRepo   *repository.QueueRepository

	idempotencyWindow time.Duration
	undoWindow        time.Duration
	now               func() time.Time
}

// NewService wires the processor from AppContext plus the two injected
// collaborators: the event emitter and the product-policy checker.
func NewService(appCtx *app.AppContext, emitter events.Emitter, checker policy.Checker) *Service {
	return &Service{
		appCtx:            appCtx,
		emitter:           emitter,
		checker:           checker,
		swipeRepo:         repository.NewSwipeRepository(appCtx.DB),
		matchRepo:         repository.NewMatchRepository(appCtx.DB),
		profileRepo:       repository.NewProfileRepository(appCtx.DB),
		queueRepo:         repository.NewQueueRepository(appCtx.DB),
		idempotencyWindow: appCtx.Config.Swipe.IdempotencyWindow,
		undoWindow:        appCtx.Config.Swipe.UndoWindow,
		now:               time.Now,
	}
}

// ProcessSwipe validates and records a swipe and reports whether it
// completed a match.
//
// Ordering inside the transaction matters: swipe write, reciprocal
// check and match creation commit as one unit, so a crash can never
// leave a recorded positive swipe whose mutual match went undetected.
// The reciprocal check is a locking read, so concurrent
// opposite-direction swipes wait on each other's insert instead of
// missing it; when they deadlock, the victim retries against the
// winner's committed state, and the unique pair constraint guarantees
// a single match row either way.
//
// Submitting the identical swipe again within the idempotency window
// replays the stored result instead of erroring, which makes the whole
// call safe to retry after a timeout.
func (s *Service) ProcessSwipe(ctx context.Context, actorID, targetID uint64, action db.SwipeAction) (Result, error) {
	log := s.appCtx.Logger
	log.Debug("ProcessSwipe called", "actor", actorID, "target", targetID, "action", action)

	if !action.Valid() {
		return Result{}, svcErr.ErrInvalidAction
	}
	if actorID == targetID {
		return Result{}, svcErr.ErrSelfSwipe
	}

	target, err := s.profileRepo.Get(ctx, targetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Result{}, svcErr.ErrNotFound
	} else if err != nil {
		return Result{}, err
	}
	if !target.Active {
		return Result{}, svcErr.ErrIneligible
	}

	if blocked, err := s.profileRepo.IsBlockedEither(ctx, actorID, targetID); err != nil {
		return Result{}, err
	} else if blocked {
		return Result{}, svcErr.ErrIneligible
	}

	// Idempotent replay: the same decision inside the window is a
	// double-submit, not a new decision.
	prior, err := s.swipeRepo.Get(ctx, actorID, targetID)
	if err == nil &&
		prior.Status == db.SwipeActive &&
		prior.Action == action &&
		s.now().Sub(prior.UpdatedAt) <= s.idempotencyWindow {
		return s.replayResult(ctx, prior)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return Result{}, err
	}

	// An active match partner is not a valid swipe target; dissolving
	// a match goes through the unmatch flow.
	if matched, err := s.matchRepo.HasActive(ctx, actorID, targetID); err != nil {
		return Result{}, err
	} else if matched {
		return Result{}, svcErr.ErrAlreadyMatched
	}

	if allowed, err := s.checker.IsAllowed(ctx, actorID, policy.ActionSwipe); err != nil {
		return Result{}, err
	} else if !allowed {
		return Result{}, svcErr.ErrLimitReached
	}

	var (
		result  Result
		created bool
		match   db.Match
	)
	for attempt := 0; ; attempt++ {
		result, match, created = Result{}, db.Match{}, false
		err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			swipes := repository.NewSwipeRepository(tx)
			matches := repository.NewMatchRepository(tx)

			stored, err := swipes.Put(ctx, actorID, targetID, action)
			if err != nil {
				return err
			}
			result.SwipeID = stored.ID

			if !action.Positive() {
				return nil
			}

			reciprocal, err := swipes.HasActivePositive(ctx, targetID, actorID)
			if err != nil {
				return err
			}
			if !reciprocal {
				return nil
			}

			match, created, err = matches.CreateIfAbsent(ctx, actorID, targetID)
			if err != nil {
				return err
			}
			result.Matched = true
			result.MatchID = match.ID
			return nil
		})
		if err == nil || attempt >= maxDeadlockRetries || !isDeadlock(err) {
			break
		}
		log.Debug("retrying swipe after deadlock", "actor", actorID, "target", targetID, "attempt", attempt+1)
	}
	if err != nil {
		return Result{}, err
	}

	s.afterSwipe(ctx, actorID, targetID, action, prior)

	if created {
		s.emitter.EmitMatchCreated(ctx, events.MatchCreated{
			MatchID:   match.ID,
			UserAID:   match.UserAID,
			UserBID:   match.UserBID,
			MatchedAt: match.MatchedAt,
		})
		log.Info("match created", "match_id", match.ID, "actor", actorID, "target", targetID)
	}

	return result, nil
}

// Opposite-direction locking reads can deadlock on each other; the
// victim's transaction is rolled back in full and safe to rerun.
const maxDeadlockRetries = 3

func isDeadlock(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}

// replayResult reconstructs the response for a double-submitted swipe
// from persistent state, so a retried call sees the same outcome.
func (s *Service) replayResult(ctx context.Context, prior db.Swipe) (Result, error) {
	result := Result{SwipeID: prior.ID}
	if !prior.Action.Positive() {
		return result, nil
	}

	match, err := s.matchRepo.GetByPair(ctx, prior.ActorID, prior.TargetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return result, nil
	} else if err != nil {
		return Result{}, err
	}
	if match.Status == db.MatchActive {
		result.Matched = true
		result.MatchID = match.ID
	}
	return result, nil
}

// afterSwipe applies the cache side effects outside the transaction:
// liker counters, the daily-limit counter, and pruning the consumed
// candidate from the actor's queue. All best-effort.
func (s *Service) afterSwipe(ctx context.Context, actorID, targetID uint64, action db.SwipeAction, prior db.Swipe) {
	_ = s.checker.Record(ctx, actorID, policy.ActionSwipe)

	priorPositive := prior.ID != 0 && prior.Status == db.SwipeActive && prior.Action.Positive()
	switch {
	case action.Positive() && !priorPositive:
		key := s.appCtx.RedisCache.KeyForLikeCount(targetID)
		_, _ = s.appCtx.RedisCache.Incr(ctx, key)
		_ = s.appCtx.RedisCache.Client.Expire(ctx, key, time.Hour).Err()
	case !action.Positive() && priorPositive:
		_ = s.appCtx.RedisCache.DecrLikeCount(ctx, targetID)
	}

	if err := s.queueRepo.Remove(ctx, actorID, targetID); err != nil {
		s.appCtx.Logger.Warn("failed to prune queue entry", "actor", actorID, "target", targetID, "err", err)
	}
}

// UndoSwipe reverses the actor's most recent swipe. Eligibility:
//   - only the latest active swipe, nothing older
//   - only within the undo window
//   - never once the swipe has produced a match; dissolving a match is
//     the unmatch flow, not undo
//
// Returns false when nothing is eligible. The match check and the
// status flip run in one transaction, so an undo racing a concurrent
// match creation loses cleanly instead of stranding a one-sided match.
func (s *Service) UndoSwipe(ctx context.Context, actorID uint64) (bool, error) {
	log := s.appCtx.Logger
	log.Debug("UndoSwipe called", "actor", actorID)

	latest, err := s.swipeRepo.LatestActive(ctx, actorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	if s.now().Sub(latest.UpdatedAt) > s.undoWindow {
		return false, nil
	}

	undone := false
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		matches := repository.NewMatchRepository(tx)
		matched, err := matches.HasActive(ctx, latest.ActorID, latest.TargetID)
		if err != nil {
			return err
		}
		if matched {
			return nil // undo loses to the match; leave everything intact
		}
		if err := repository.NewSwipeRepository(tx).MarkUndone(ctx, latest.ID); err != nil {
			return err
		}
		undone = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !undone {
		return false, nil
	}

	if latest.Action.Positive() {
		_ = s.appCtx.RedisCache.DecrLikeCount(ctx, latest.TargetID)
	}
	// the reversed target may reappear; let the next queue read rebuild
	_ = s.appCtx.RedisCache.InvalidateQueue(ctx, actorID)

	log.Debug("swipe undone", "actor", actorID, "target", latest.TargetID, "swipe_id", latest.ID)
	return true, nil
}

// CountLikers returns how many users currently like the recipient.
// Cache-first: Redis counter with TTL refresh, DB count on miss.
func (s *Service) CountLikers(ctx context.Context, recipientID uint64) (int64, error) {
	if n, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, recipientID); err == nil && ok {
		return n, nil
	}

	count, err := s.swipeRepo.CountLikers(ctx, recipientID)
	if err != nil {
		return 0, err
	}

	_ = s.appCtx.RedisCache.UpdateLikeCount(ctx, recipientID, count)
	return count, nil
}

// ListLikers returns users with an active positive swipe on the
// recipient, cursor-paginated.
func (s *Service) ListLikers(ctx context.Context, recipientID uint64, paginationToken *string, limit int) ([]db.Swipe, *string, error) {
	return s.swipeRepo.ListLikers(ctx, recipientID, paginationToken, limit)
}
