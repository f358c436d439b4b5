package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sparkvine/matchcore/internal/db"
	"github.com/sparkvine/matchcore/internal/utils/pagination"
)

// SwipeRepository provides data access for the Swipe model. It
// encapsulates every query over likes/passes between users.
//
// The unique (actor_id, target_id) index means a repeated decision
// upserts the same row, which is what gives ProcessSwipe its overwrite
// and idempotency guarantees.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a repository bound to the given DB handle.
// Pass a transaction handle to run the repository inside it.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Put inserts or refreshes the actor's swipe on the target and returns
// the stored row.
//
// Behavior:
//   - New pair: a fresh row is inserted.
//   - Existing pair (any status): the row is updated with the new
//     action and reactivated.
func (r *SwipeRepository) Put(
	ctx context.Context,
	actorID, targetID uint64,
	action db.SwipeAction,
) (db.Swipe, error) {
	swipe := db.Swipe{
		ActorID:  actorID,
		TargetID: targetID,
		Action:   action,
		Status:   db.SwipeActive,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"action", "status", "updated_at"}),
		}).
		Create(&swipe).Error
	if err != nil {
		return db.Swipe{}, err
	}
	// Re-read: on conflict the in-memory struct does not carry the
	// existing row's ID or timestamps.
	return r.Get(ctx, actorID, targetID)
}

// Get returns the swipe row for a pair regardless of status.
func (r *SwipeRepository) Get(ctx context.Context, actorID, targetID uint64) (db.Swipe, error) {
	var swipe db.Swipe
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		First(&swipe).Error
	return swipe, err
}

// HasActivePositive reports whether actor has an active like or
// super_like on target. This is the mutual-match probe.
//
// The read locks the reciprocal row (FOR UPDATE). Under MySQL's
// repeatable-read isolation a plain count reads the transaction
// snapshot, so two opposite-direction swipes could each miss the
// other's uncommitted insert and both commit without a match. The
// locking read waits on the concurrent insert instead; when the two
// directions deadlock, InnoDB rolls one back and the caller retries
// against committed state. SQLite ignores the locking clause.
func (r *SwipeRepository) HasActivePositive(ctx context.Context, actorID, targetID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("actor_id = ? AND target_id = ? AND status = ? AND action IN ?",
			actorID, targetID, db.SwipeActive, []db.SwipeAction{db.ActionLike, db.ActionSuperLike}).
		Count(&count).Error
	return count > 0, err
}

// LatestActive returns the actor's most recent active swipe, the only
// one eligible for undo.
func (r *SwipeRepository) LatestActive(ctx context.Context, actorID uint64) (db.Swipe, error) {
	var swipe db.Swipe
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND status = ?", actorID, db.SwipeActive).
		Order("updated_at DESC, id DESC").
		First(&swipe).Error
	return swipe, err
}

// MarkUndone flips a swipe to undone. The WHERE on status makes the
// update a no-op if the row was already reversed.
func (r *SwipeRepository) MarkUndone(ctx context.Context, swipeID uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("id = ? AND status = ?", swipeID, db.SwipeActive).
		Update("status", db.SwipeUndone).Error
}

// MarkPairUndone retires every active swipe between the two users, in
// both directions. Unmatch uses this so a later re-match needs fresh
// reciprocal swipes rather than riding on the old pair.
func (r *SwipeRepository) MarkPairUndone(ctx context.Context, userA, userB uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("((actor_id = ? AND target_id = ?) OR (actor_id = ? AND target_id = ?)) AND status = ?",
			userA, userB, userB, userA, db.SwipeActive).
		Update("status", db.SwipeUndone).Error
}

// SuperLikerIDs returns the set of users with an active super_like on
// the target. Queue building promotes these candidates.
func (r *SwipeRepository) SuperLikerIDs(ctx context.Context, targetID uint64) (map[uint64]bool, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("target_id = ? AND action = ? AND status = ?", targetID, db.ActionSuperLike, db.SwipeActive).
		Pluck("actor_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ListLikers returns users with an active positive swipe on the
// recipient.
//
// Behavior:
//   - Excludes users the recipient has actively passed.
//   - Ordered by updated_at DESC, actor_id DESC.
//   - Cursor-based pagination via paginationToken.
func (r *SwipeRepository) ListLikers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	var swipes []db.Swipe

	cursor, err := pagination.Decode(deref(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.status = ? AND s.action IN ?",
			recipientID, db.SwipeActive, []db.SwipeAction{db.ActionLike, db.ActionSuperLike}).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.actor_id = ?
				  AND s2.target_id = s.actor_id
				  AND s2.status = ?
				  AND s2.action = ?
			)`, recipientID, db.SwipeActive, db.ActionPass).
		Order("s.updated_at DESC, s.actor_id DESC").
		Limit(limit + 1)

	if actorID, ok := cursor.Uint64(); ok && cursor.UnixMillis > 0 {
		ts := time.UnixMilli(cursor.UnixMillis)
		query = query.Where(
			"(s.updated_at < ? OR (s.updated_at = ? AND s.actor_id < ?))",
			ts, ts, actorID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.FromUint64(last.ActorID, last.UpdatedAt.UnixMilli()))
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// CountLikers returns how many users have an active positive swipe on
// the recipient, with the same pass exclusion as ListLikers. Used as the
// DB fallback behind the Redis counter.
func (r *SwipeRepository) CountLikers(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.status = ? AND s.action IN ?",
			recipientID, db.SwipeActive, []db.SwipeAction{db.ActionLike, db.ActionSuperLike}).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.actor_id = ?
				  AND s2.target_id = s.actor_id
				  AND s2.status = ?
				  AND s2.action = ?
			)`, recipientID, db.SwipeActive, db.ActionPass).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
