package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedInterests = []string{
	"hiking", "cooking", "travel", "music", "photography",
	"yoga", "gaming", "reading", "running", "film",
}

// SeedTestData resets the database and populates it with demo profiles,
// preferences and swipes.
//
// Behavior:
//  1. Clears all tables.
//  2. Creates 20 profiles (10 male, 10 female) clustered around a city
//     center, each with a preference row and 2-4 interests.
//  3. Generates ~200 swipes with ~70% likes; every 3rd like is answered
//     to guarantee some mutual pairs.
//
// Compatible with MySQL and SQLite.
func SeedTestData(database *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"queue_entries", "matches", "swipes", "blocks", "profile_interests", "preferences", "profiles"} {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch database.Dialector.Name() {
	case "mysql":
		database.Exec("ALTER TABLE profiles AUTO_INCREMENT = 1")
		database.Exec("ALTER TABLE swipes AUTO_INCREMENT = 1")
	case "sqlite":
		database.Exec("DELETE FROM sqlite_sequence WHERE name IN ('profiles', 'swipes')")
	}

	log.Println("Cleared existing data")

	// City center; profiles scatter within ~15km
	const baseLat, baseLon = 51.5074, -0.1278

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	for i := 1; i <= 20; i++ {
		gender := "male"
		wants := "female"
		if i > 10 {
			gender = "female"
			wants = "male"
		}

		profile := Profile{
			ID:           uint64(i),
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Active:       true,
			Gender:       gender,
			Orientation:  "straight",
			Age:          22 + r.Intn(16),
			Lat:          baseLat + (r.Float64()-0.5)*0.25,
			Lon:          baseLon + (r.Float64()-0.5)*0.25,
			Education:    []string{"bachelors", "masters", "other"}[r.Intn(3)],
			Smoking:      []string{"never", "socially"}[r.Intn(2)],
			Drinking:     []string{"never", "socially", "often"}[r.Intn(3)],
			LastActiveAt: time.Now().UTC(),
		}
		if err := database.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to create profile %d: %w", i, err)
		}

		pref := Preference{
			ProfileID:        profile.ID,
			AgeMin:           20,
			AgeMax:           40,
			MaxDistanceKm:    30,
			PreferredGenders: wants,
			ShowProfile:      true,
			AllowMessages:    true,
		}
		if err := database.Create(&pref).Error; err != nil {
			return fmt.Errorf("failed to create preference %d: %w", i, err)
		}

		for _, idx := range r.Perm(len(seedInterests))[:2+r.Intn(3)] {
			interest := ProfileInterest{ProfileID: profile.ID, Interest: seedInterests[idx]}
			if err := database.Create(&interest).Error; err != nil {
				return fmt.Errorf("failed to create interest: %w", err)
			}
		}
	}

	log.Println("Seeded 20 profiles")

	// Swipes: each user acts on ~10 users of the opposite half
	likes := 0
	for actor := uint64(1); actor <= 20; actor++ {
		lo, hi := 11, 20
		if actor > 10 {
			lo, hi = 1, 10
		}
		for _, t := range r.Perm(hi - lo + 1) {
			target := uint64(lo + t)
			action := ActionLike
			if r.Float64() > 0.7 {
				action = ActionPass
			} else if r.Float64() < 0.1 {
				action = ActionSuperLike
			}

			swipe := Swipe{ActorID: actor, TargetID: target, Action: action, Status: SwipeActive}
			err := database.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"action", "status"}),
			}).Create(&swipe).Error
			if err != nil {
				return fmt.Errorf("failed to create swipe: %w", err)
			}

			if action.Positive() {
				likes++
				// every 3rd like gets answered for guaranteed mutuals
				if likes%3 == 0 {
					back := Swipe{ActorID: target, TargetID: actor, Action: ActionLike, Status: SwipeActive}
					err := database.Clauses(clause.OnConflict{
						Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
						DoUpdates: clause.AssignmentColumns([]string{"action", "status"}),
					}).Create(&back).Error
					if err != nil {
						return fmt.Errorf("failed to create reciprocal swipe: %w", err)
					}
				}
			}
		}
	}

	log.Printf("Seeded swipes (%d likes)", likes)
	return nil
}
