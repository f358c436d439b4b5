// Package scoring computes compatibility between two profiles. The
// scorer is pure: no I/O, no clock, deterministic for the same inputs.
package scoring

import (
	"math"

	"github.com/sparkvine/matchcore/internal/config"
	"github.com/sparkvine/matchcore/internal/db"
)

// Weights configures the relative importance of each sub-score.
// The total is normalized against the weight sum, so only ratios matter.
type Weights struct {
	Distance  float64
	Age       float64
	Interest  float64
	Attribute float64

	// AgeDecayPerYear is subtracted from the age sub-score for every
	// year the candidate falls outside the preferred range.
	AgeDecayPerYear float64
}

// DefaultWeights mirror the config defaults.
func DefaultWeights() Weights {
	return Weights{
		Distance:        35,
		Age:             25,
		Interest:        25,
		Attribute:       15,
		AgeDecayPerYear: 0.2,
	}
}

// WeightsFromConfig lifts the scoring section out of app config.
func WeightsFromConfig(cfg *config.Config) Weights {
	return Weights{
		Distance:        cfg.Scoring.DistanceWeight,
		Age:             cfg.Scoring.AgeWeight,
		Interest:        cfg.Scoring.InterestWeight,
		Attribute:       cfg.Scoring.AttributeWeight,
		AgeDecayPerYear: cfg.Scoring.AgeDecayPerYear,
	}
}

// Breakdown carries the total plus per-factor sub-scores, each already
// weighted into the 0-100 total. DistanceKm is a side product callers
// persist on queue entries.
type Breakdown struct {
	Total      float64
	Distance   float64
	Age        float64
	Interests  float64
	Attributes float64
	DistanceKm float64
}

type Scorer struct {
	w Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Score evaluates candidate b from a's point of view, returning a total
// in [0, 100]. Scoring is directional: a's preference shapes the result,
// so Score(a, b) and Score(b, a) generally differ.
//
// Missing fields are neutral: a sub-score whose inputs are absent
// contributes 0 rather than failing, so sparse profiles stay scoreable.
func (s *Scorer) Score(a db.Profile, aPref db.Preference, aInterests []string, b db.Profile, bInterests []string) Breakdown {
	sum := s.w.Distance + s.w.Age + s.w.Interest + s.w.Attribute
	if sum <= 0 {
		return Breakdown{}
	}

	var bd Breakdown

	distSub := 0.0
	if hasLocation(a) && hasLocation(b) && aPref.MaxDistanceKm > 0 {
		bd.DistanceKm = HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
		distSub = clamp01(1 - bd.DistanceKm/aPref.MaxDistanceKm)
	}

	ageSub := 0.0
	if b.Age > 0 && aPref.AgeMax >= aPref.AgeMin && aPref.AgeMin > 0 {
		ageSub = s.ageFit(b.Age, aPref.AgeMin, aPref.AgeMax)
	}

	interestSub := jaccard(aInterests, bInterests)
	attrSub := attributeMatch(a, b)

	bd.Distance = distSub * s.w.Distance / sum * 100
	bd.Age = ageSub * s.w.Age / sum * 100
	bd.Interests = interestSub * s.w.Interest / sum * 100
	bd.Attributes = attrSub * s.w.Attribute / sum * 100
	bd.Total = bd.Distance + bd.Age + bd.Interests + bd.Attributes

	return bd
}

// ageFit is 1.0 inside the preferred range and decays linearly outside.
func (s *Scorer) ageFit(age, min, max int) float64 {
	var outside int
	switch {
	case age < min:
		outside = min - age
	case age > max:
		outside = age - max
	default:
		return 1
	}
	return clamp01(1 - float64(outside)*s.w.AgeDecayPerYear)
}

// jaccard is |A∩B| / |A∪B| over interest sets; empty sets are neutral.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	union := len(set)
	inter := 0
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		if seen[s] {
			continue
		}
		seen[s] = true
		if set[s] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// attributeMatch scores equality of lifestyle fields both profiles have
// filled in. No comparable fields is neutral, not zero-fit.
func attributeMatch(a, b db.Profile) float64 {
	pairs := [][2]string{
		{a.Education, b.Education},
		{a.Smoking, b.Smoking},
		{a.Drinking, b.Drinking},
	}
	present, equal := 0, 0
	for _, p := range pairs {
		if p[0] == "" || p[1] == "" {
			continue
		}
		present++
		if p[0] == p[1] {
			equal++
		}
	}
	if present == 0 {
		return 0
	}
	return float64(equal) / float64(present)
}

const earthRadiusKm = 6371.0

// HaversineKm is the great-circle distance between two coordinates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// hasLocation treats the (0, 0) null island default as missing.
func hasLocation(p db.Profile) bool {
	return p.Lat != 0 || p.Lon != 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
