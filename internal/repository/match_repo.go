package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sparkvine/matchcore/internal/db"
	svcErr "github.com/sparkvine/matchcore/internal/errors"
	"github.com/sparkvine/matchcore/internal/utils/pagination"
)

// MatchRepository provides data access for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a repository bound to the given DB handle.
// Pass a transaction handle to run the repository inside it.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateIfAbsent records a match for the pair, creating at most one row
// ever. Safe under concurrent invocation from both swipe directions:
// the unique index on the canonical (user_a_id, user_b_id) pair makes
// the second insert a no-op, and the loser re-reads the winner's row.
//
// A previously unmatched pair that becomes mutual again is reactivated;
// that counts as created so the caller re-emits the match event.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, userA, userB uint64) (db.Match, bool, error) {
	a, b := db.CanonicalPair(userA, userB)
	now := time.Now().UTC()

	match := db.Match{
		ID:        uuid.NewString(),
		UserAID:   a,
		UserBID:   b,
		Status:    db.MatchActive,
		MatchedAt: now,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		return db.Match{}, false, res.Error
	}
	if res.RowsAffected > 0 {
		return match, true, nil
	}

	// Lost the race or the pair matched before: take the existing row.
	existing, err := r.GetByPair(ctx, a, b)
	if err != nil {
		return db.Match{}, false, err
	}
	if existing.Status == db.MatchUnmatched {
		err := r.db.WithContext(ctx).
			Model(&db.Match{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"status":       db.MatchActive,
				"matched_at":   now,
				"unmatched_by": nil,
			}).Error
		if err != nil {
			return db.Match{}, false, err
		}
		existing.Status = db.MatchActive
		existing.MatchedAt = now
		existing.UnmatchedBy = nil
		return existing, true, nil
	}
	return existing, false, nil
}

// GetByPair returns the match row for a pair in either argument order.
func (r *MatchRepository) GetByPair(ctx context.Context, userA, userB uint64) (db.Match, error) {
	a, b := db.CanonicalPair(userA, userB)
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", a, b).
		First(&match).Error
	return match, err
}

// GetByID returns a match by its identifier.
func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("id = ?", matchID).
		First(&match).Error
	return match, err
}

// HasActive reports whether an active match exists for the pair. Undo
// runs this inside its transaction as the check half of check-and-act.
func (r *MatchRepository) HasActive(ctx context.Context, userA, userB uint64) (bool, error) {
	a, b := db.CanonicalPair(userA, userB)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_a_id = ? AND user_b_id = ? AND status = ?", a, b, db.MatchActive).
		Count(&count).Error
	return count > 0, err
}

// Unmatch transitions a match to unmatched on behalf of a participant.
// The match row survives (soft status change) so message history stays
// intact.
func (r *MatchRepository) Unmatch(ctx context.Context, matchID string, actingUserID uint64) error {
	match, err := r.GetByID(ctx, matchID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.ErrNotFound
	} else if err != nil {
		return err
	}

	if match.UserAID != actingUserID && match.UserBID != actingUserID {
		return svcErr.ErrNotParticipant
	}
	if match.Status == db.MatchUnmatched {
		return svcErr.ErrAlreadyUnmatched
	}

	return r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND status = ?", matchID, db.MatchActive).
		Updates(map[string]interface{}{
			"status":       db.MatchUnmatched,
			"unmatched_by": actingUserID,
		}).Error
}

// ListActive returns the user's active matches, newest first, with
// cursor-based pagination.
func (r *MatchRepository) ListActive(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Match, *string, error) {
	var matches []db.Match

	cursor, err := pagination.Decode(deref(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("(user_a_id = ? OR user_b_id = ?) AND status = ?", userID, userID, db.MatchActive).
		Order("matched_at DESC, id DESC").
		Limit(limit + 1)

	if cursor.ID != "" && cursor.UnixMillis > 0 {
		ts := time.UnixMilli(cursor.UnixMillis)
		query = query.Where(
			"(matched_at < ? OR (matched_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&matches).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(matches) > limit {
		last := matches[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:         last.ID,
			UnixMillis: last.MatchedAt.UnixMilli(),
		})
		nextToken = &token
		matches = matches[:limit]
	}

	return matches, nextToken, nil
}

// PartnerID returns the other participant of a match from one side's
// point of view.
func PartnerID(m db.Match, userID uint64) uint64 {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}
