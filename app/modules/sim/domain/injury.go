package simdomain

import "math"

// Rand is the random source used by the engine. *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// InjuryType is one row of the injury table.
type InjuryType struct {
	Name string
	// Frequency is relative; the table is normalized when drawn.
	Frequency float64
	// Duration is the mean number of games missed.
	Duration float64
}

// InjuryTable is the distribution injuries are drawn from.
var InjuryTable = []InjuryType{
	{"Ankle Sprain", 18, 2},
	{"Hamstring Strain", 14, 3},
	{"Knee Sprain (MCL)", 9, 4},
	{"Concussion", 8, 2},
	{"Shoulder Sprain", 7, 3},
	{"High Ankle Sprain", 6, 5},
	{"Groin Strain", 6, 2},
	{"Calf Strain", 5, 2},
	{"Broken Hand", 4, 4},
	{"Turf Toe", 4, 3},
	{"Rib Contusion", 4, 1},
	{"Back Spasms", 4, 1},
	{"Torn Pectoral", 2, 12},
	{"Broken Leg", 2, 10},
	{"Torn Meniscus", 2, 6},
	{"Dislocated Shoulder", 2, 6},
	{"Torn ACL", 2, 17},
	{"Torn Achilles", 1, 17},
}

var injuryCumulative = func() []float64 {
	cum := make([]float64, len(InjuryTable))
	var total float64
	for i, it := range InjuryTable {
		total += it.Frequency
		cum[i] = total
	}
	for i := range cum {
		cum[i] /= total
	}
	return cum
}()

// HealthRankFactor scales injury duration by medical spending. The best-funded team
// (rank 1) gets 0.75, the worst 1.25.
func HealthRankFactor(healthRank, numTeams int) float64 {
	if numTeams <= 1 || healthRank < 1 {
		return 1
	}
	return 0.75 + 0.5*float64(healthRank-1)/float64(numTeams-1)
}

// DrawInjury picks a type from the cumulative table and a duration scaled by health rank
// and a uniform multiplier in [0.25, 1.75).
func DrawInjury(rng Rand, healthRank, numTeams int) Injury {
	u := rng.Float64()
	idx := len(InjuryTable) - 1
	for i, c := range injuryCumulative {
		if u < c {
			idx = i
			break
		}
	}
	it := InjuryTable[idx]
	mult := 0.25 + 1.5*rng.Float64()
	games := int(math.Round(HealthRankFactor(healthRank, numTeams) * mult * it.Duration))
	if games < 1 {
		games = 1
	}
	return Injury{Type: it.Name, GamesRemaining: games}
}

// ReaggravationChance is the chance a new injury extends an injury being played through.
const ReaggravationChance = 0.5

// Reaggravate extends an existing injury by 1-10 games and keeps its type.
func Reaggravate(rng Rand, old Injury) Injury {
	old.GamesRemaining += 1 + rng.IntN(10)
	return old
}

// referenceSeasonLength is the season length injury durations are normalized to.
const referenceSeasonLength = 82

// NormalizedGames scales games remaining to a reference season length so thresholds do
// not depend on the configured schedule.
func NormalizedGames(gamesRemaining, numGames int) float64 {
	if numGames <= 0 {
		return float64(gamesRemaining)
	}
	return float64(gamesRemaining) * referenceSeasonLength / float64(numGames)
}

// Injury length buckets in normalized games.
const (
	mediumInjuryGames = 10
	longInjuryGames   = 25
)

// SeverityScore ranks an injury for the news feed.
func SeverityScore(ovr int, playoffs bool, normalizedGames float64) int {
	score := 0
	switch {
	case ovr >= 70:
		score += 20
	case ovr >= 60:
		score += 10
	}
	if playoffs {
		score += 10
	}
	switch {
	case normalizedGames > longInjuryGames:
		score += 20
	case normalizedGames > mediumInjuryGames:
		score += 10
	}
	return score
}

// RegressionProbability is the chance an injury permanently lowers physical ratings.
// Linear in normalized games, certain beyond the long-injury threshold.
func RegressionProbability(normalizedGames float64) float64 {
	if normalizedGames > longInjuryGames {
		return 1
	}
	if normalizedGames <= 0 {
		return 0
	}
	return normalizedGames / longInjuryGames
}

// ApplyRatingsLoss lowers each physical rating by 1-20, or rarely 1-50, and re-derives
// ovr and pot. It returns the ovr drop.
func ApplyRatingsLoss(rng Rand, r *Ratings, age int) int {
	maxLoss := 20
	if rng.Float64() < 0.01 {
		maxLoss = 50
	}
	oldOvr, oldPot := r.Ovr, r.Pot
	for _, key := range PhysicalRatings {
		r.Attrs[key] = clampRating(r.Attrs[key] - (1 + rng.IntN(maxLoss)))
	}
	r.Rederive()
	r.Pot = PotentialAfterLoss(oldOvr, oldPot, r.Ovr, age)
	return oldOvr - r.Ovr
}

// InjuryOutcome is what the injury engine reports back to the results writer.
type InjuryOutcome struct {
	RatingsLoss bool
	StopPlay    bool
}
