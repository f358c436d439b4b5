package repository

import (
	"context"
	"errors"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/sparkvine/matchcore/internal/db"
)

// ProfileRepository is the matching core's read-only view of profiles,
// preferences, interests and blocks. Profile writes belong to the
// profile-management surface, not to this engine.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Get returns a profile by ID.
func (r *ProfileRepository) Get(ctx context.Context, id uint64) (db.Profile, error) {
	var profile db.Profile
	err := r.db.WithContext(ctx).First(&profile, id).Error
	return profile, err
}

// GetPreference returns the user's preference row, or permissive
// defaults if they never saved one.
func (r *ProfileRepository) GetPreference(ctx context.Context, profileID uint64) (db.Preference, error) {
	var pref db.Preference
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Preference{
			ProfileID:     profileID,
			AgeMin:        18,
			AgeMax:        99,
			MaxDistanceKm: 100,
			ShowProfile:   true,
			AllowMessages: true,
		}, nil
	}
	return pref, err
}

// Interests returns the profile's interest tags.
func (r *ProfileRepository) Interests(ctx context.Context, profileID uint64) ([]string, error) {
	var interests []string
	err := r.db.WithContext(ctx).
		Model(&db.ProfileInterest{}).
		Where("profile_id = ?", profileID).
		Pluck("interest", &interests).Error
	return interests, err
}

// InterestsForMany batch-loads interests for a candidate pool so the
// scorer does not issue one query per candidate.
func (r *ProfileRepository) InterestsForMany(ctx context.Context, profileIDs []uint64) (map[uint64][]string, error) {
	result := make(map[uint64][]string, len(profileIDs))
	if len(profileIDs) == 0 {
		return result, nil
	}

	var rows []db.ProfileInterest
	err := r.db.WithContext(ctx).
		Where("profile_id IN ?", profileIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ProfileID] = append(result[row.ProfileID], row.Interest)
	}
	return result, nil
}

// IsBlockedEither reports whether either user has blocked the other.
func (r *ProfileRepository) IsBlockedEither(ctx context.Context, userA, userB uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userA, userB, userB, userA).
		Count(&count).Error
	return count > 0, err
}

// CandidatePool fetches profiles eligible to appear in the user's
// queue, with every hard filter pushed into SQL. The pool is unbounded
// in principle, so nothing here loads all users and filters in memory.
//
// Filters applied:
//   - not self, active, and candidate has not hidden their profile (a
//     missing preference row counts as visible, matching the model
//     default)
//   - candidate age inside the requester's preferred range
//   - candidate gender among the preferred genders (if any set)
//   - bounding box around the requester sized from max distance (the
//     scorer computes exact great-circle distance later)
//   - no active swipe by the requester on the candidate
//   - no active match between the two
//   - no block in either direction
//
// The result is capped; scoring decides the final order.
func (r *ProfileRepository) CandidatePool(
	ctx context.Context,
	requester db.Profile,
	pref db.Preference,
	limit int,
) ([]db.Profile, error) {
	var candidates []db.Profile

	query := r.db.WithContext(ctx).
		Table("profiles p").
		Where("p.id <> ?", requester.ID).
		Where("p.active = ?", true).
		Where("p.age BETWEEN ? AND ?", pref.AgeMin, pref.AgeMax).
		Where(`NOT EXISTS (
			SELECT 1 FROM preferences pr
			WHERE pr.profile_id = p.id AND pr.show_profile = ?
		)`, false).
		Where(`NOT EXISTS (
			SELECT 1 FROM swipes s
			WHERE s.actor_id = ? AND s.target_id = p.id AND s.status = ?
		)`, requester.ID, db.SwipeActive).
		Where(`NOT EXISTS (
			SELECT 1 FROM matches m
			WHERE m.status = ?
			  AND ((m.user_a_id = ? AND m.user_b_id = p.id)
			    OR (m.user_a_id = p.id AND m.user_b_id = ?))
		)`, db.MatchActive, requester.ID, requester.ID).
		Where(`NOT EXISTS (
			SELECT 1 FROM blocks b
			WHERE (b.blocker_id = ? AND b.blocked_id = p.id)
			   OR (b.blocker_id = p.id AND b.blocked_id = ?)
		)`, requester.ID, requester.ID)

	if genders := splitGenders(pref.PreferredGenders); len(genders) > 0 {
		query = query.Where("p.gender IN ?", genders)
	}

	if pref.MaxDistanceKm > 0 && (requester.Lat != 0 || requester.Lon != 0) {
		minLat, maxLat, minLon, maxLon := boundingBox(requester.Lat, requester.Lon, pref.MaxDistanceKm)
		query = query.
			Where("p.lat BETWEEN ? AND ?", minLat, maxLat).
			Where("p.lon BETWEEN ? AND ?", minLon, maxLon)
	}

	err := query.
		Order("p.last_active_at DESC, p.id ASC").
		Limit(limit).
		Find(&candidates).Error
	return candidates, err
}

func splitGenders(csv string) []string {
	var out []string
	for _, g := range strings.Split(csv, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// boundingBox returns a lat/lon rectangle containing the radius circle.
// One degree of latitude is ~110.574km; longitude shrinks with cos(lat).
func boundingBox(lat, lon, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	latDelta := radiusKm / 110.574

	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01 // polar degenerate case: widen instead of dividing by ~0
	}
	lonDelta := radiusKm / (111.320 * cosLat)

	return lat - latDelta, lat + latDelta, lon - lonDelta, lon + lonDelta
}
