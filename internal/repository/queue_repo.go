package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sparkvine/matchcore/internal/db"
)

// QueueRepository persists the per-user candidate queue. The queue is a
// cache of derived state: Replace swaps a user's entries wholesale and
// nothing else ever mutates them in place.
type QueueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(database *gorm.DB) *QueueRepository {
	return &QueueRepository{db: database}
}

// Replace atomically swaps the user's queue for the given entries.
// Entries must already carry their Position ordering.
func (r *QueueRepository) Replace(ctx context.Context, userID uint64, entries []db.QueueEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&db.QueueEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 100).Error
	})
}

// List returns the user's current queue in position order. An empty
// result means either an exhausted queue or one never built; the
// builder's freshness key tells the two apart.
func (r *QueueRepository) List(ctx context.Context, userID uint64) ([]db.QueueEntry, error) {
	var entries []db.QueueEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&entries).Error
	return entries, err
}

// Remove drops a single candidate from the user's queue, used after a
// swipe so the consumed candidate does not linger until the next
// rebuild.
func (r *QueueRepository) Remove(ctx context.Context, userID, candidateID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND candidate_id = ?", userID, candidateID).
		Delete(&db.QueueEntry{}).Error
}
