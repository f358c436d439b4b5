package db

import (
	"time"
)

// SwipeAction is the kind of decision an actor makes on a target.
type SwipeAction string

const (
	ActionLike      SwipeAction = "like"
	ActionPass      SwipeAction = "pass"
	ActionSuperLike SwipeAction = "super_like"
)

// Positive reports whether the action expresses interest in the target.
func (a SwipeAction) Positive() bool {
	return a == ActionLike || a == ActionSuperLike
}

// Valid reports whether the action is one of the known kinds.
func (a SwipeAction) Valid() bool {
	switch a {
	case ActionLike, ActionPass, ActionSuperLike:
		return true
	}
	return false
}

// SwipeStatus tracks whether a swipe still counts. Undo flips a swipe to
// undone instead of deleting the row, so history survives for audit.
type SwipeStatus string

const (
	SwipeActive SwipeStatus = "active"
	SwipeUndone SwipeStatus = "undone"
)

// MatchStatus is the lifecycle state of a match. Matches are never
// hard-deleted so message history stays attributable.
type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchUnmatched MatchStatus = "unmatched"
)

// Profile table. The matching core treats profiles as read-only; writes
// come from the profile-management surface.
type Profile struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true"`
	Gender       string `gorm:"size:16;not null;index:idx_profile_gender_age,priority:1"`
	Orientation  string `gorm:"size:16"`
	Age          int    `gorm:"not null;index:idx_profile_gender_age,priority:2"`
	Lat          float64
	Lon          float64
	Education    string `gorm:"size:32"`
	Smoking      string `gorm:"size:16"`
	Drinking     string `gorm:"size:16"`
	BoostedUntil *time.Time
	LastActiveAt time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// ProfileInterest is one interest tag on a profile. Scoring reads these
// as a set for overlap computation.
type ProfileInterest struct {
	ProfileID uint64 `gorm:"primaryKey;autoIncrement:false"`
	Interest  string `gorm:"primaryKey;size:64"`
}

// Preference holds a user's matching filters. Age/gender/distance are
// hard filters for queue building; the rest are soft signals.
type Preference struct {
	ProfileID        uint64 `gorm:"primaryKey;autoIncrement:false"`
	AgeMin           int    `gorm:"not null;default:18"`
	AgeMax           int    `gorm:"not null;default:99"`
	MaxDistanceKm    float64
	PreferredGenders string    `gorm:"size:64"` // comma separated, empty = any
	ShowProfile      bool      `gorm:"default:true"`
	AllowMessages    bool      `gorm:"default:true"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// Swipe represents an actor's like/pass/super_like on a target.
//
// Unique index idx_swipe_pair(actor_id, target_id) guarantees a single
// row per pair: a repeat decision upserts the existing row, and an undo
// flips Status rather than deleting.
//
// Indexes:
//   - idx_swipe_target_lookup(target_id, action, status)
//     Mutual-like checks and "who liked me" listings.
//   - idx_swipe_actor_updated(actor_id, status, updated_at DESC)
//     Latest-swipe lookup for undo.
type Swipe struct {
	ID        uint64      `gorm:"primaryKey;autoIncrement"`
	ActorID   uint64      `gorm:"not null;uniqueIndex:idx_swipe_pair,priority:1;index:idx_swipe_actor_updated,priority:1"`
	TargetID  uint64      `gorm:"not null;uniqueIndex:idx_swipe_pair,priority:2;index:idx_swipe_target_lookup,priority:1"`
	Action    SwipeAction `gorm:"size:16;not null;index:idx_swipe_target_lookup,priority:2"`
	Status    SwipeStatus `gorm:"size:16;not null;default:active;index:idx_swipe_target_lookup,priority:3;index:idx_swipe_actor_updated,priority:2"`
	CreatedAt time.Time   `gorm:"autoCreateTime"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime;index:idx_swipe_actor_updated,priority:3,sort:desc"`
}

// Match is the persistent record of a mutual positive swipe pair.
//
// UserAID < UserBID always; the unique index on the canonical pair is
// what makes concurrent double-creation impossible.
type Match struct {
	ID          string      `gorm:"primaryKey;size:36"`
	UserAID     uint64      `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	UserBID     uint64      `gorm:"not null;uniqueIndex:idx_match_pair,priority:2;index"`
	Status      MatchStatus `gorm:"size:16;not null;default:active"`
	MatchedAt   time.Time   `gorm:"not null"`
	UnmatchedBy *uint64
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Block is a trust-and-safety exclusion; either direction removes both
// users from each other's candidate pools.
type Block struct {
	BlockerID uint64    `gorm:"primaryKey;autoIncrement:false"`
	BlockedID uint64    `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// QueueEntry is one candidate in a user's cached queue. The whole queue
// is derived state: it can be dropped and rebuilt at any time.
type QueueEntry struct {
	UserID      uint64  `gorm:"primaryKey;autoIncrement:false;index:idx_queue_user_position,priority:1"`
	CandidateID uint64  `gorm:"primaryKey;autoIncrement:false"`
	Score       float64 `gorm:"not null"`
	Priority    int     `gorm:"not null"`
	DistanceKm  float64
	Position    int       `gorm:"not null;index:idx_queue_user_position,priority:2"`
	InsertedAt  time.Time `gorm:"autoCreateTime"`
}

// CanonicalPair orders two user IDs so (a, b) and (b, a) address the
// same match row.
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}
