package simdomain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand replays canned values.
type fixedRand struct {
	floats []float64
	ints   []int
}

func (r *fixedRand) Float64() float64 {
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *fixedRand) IntN(n int) int {
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		return n - 1
	}
	return v
}

func TestDrawInjury_FromTable(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	names := map[string]bool{}
	for _, it := range InjuryTable {
		names[it.Name] = true
	}
	for range 500 {
		inj := DrawInjury(rng, 5, 32)
		assert.True(t, names[inj.Type], inj.Type)
		assert.GreaterOrEqual(t, inj.GamesRemaining, 1)
	}
}

func TestDrawInjury_FirstBucketAndDuration(t *testing.T) {
	// u=0 picks the first row; multiplier 0.25 + 1.5*0.5 = 1.0; rank 1 of 32 gives 0.75.
	rng := &fixedRand{floats: []float64{0, 0.5}}
	inj := DrawInjury(rng, 1, 32)
	assert.Equal(t, "Ankle Sprain", inj.Type)
	assert.Equal(t, 2, inj.GamesRemaining)
}

func TestHealthRankFactor(t *testing.T) {
	assert.InDelta(t, 0.75, HealthRankFactor(1, 32), 1e-9)
	assert.InDelta(t, 1.25, HealthRankFactor(32, 32), 1e-9)
	assert.InDelta(t, 1.0, HealthRankFactor(1, 1), 1e-9)
}

func TestReaggravate_KeepsTypeAndExtends(t *testing.T) {
	rng := &fixedRand{ints: []int{4}}
	got := Reaggravate(rng, Injury{Type: "Turf Toe", GamesRemaining: 2})
	assert.Equal(t, "Turf Toe", got.Type)
	assert.Equal(t, 7, got.GamesRemaining)
}

func TestInjuryDecrement_MonotonicDecay(t *testing.T) {
	inj := Injury{Type: "Concussion", GamesRemaining: 3}

	var healed []bool
	var remaining []int
	for range 5 {
		healed = append(healed, inj.Decrement())
		remaining = append(remaining, inj.GamesRemaining)
	}

	assert.Equal(t, []int{2, 1, 0, 0, 0}, remaining)
	assert.Equal(t, []bool{false, false, true, false, false}, healed)
	assert.Equal(t, InjuryHealthy, inj.Type)
}

func TestRegressionProbability(t *testing.T) {
	assert.Equal(t, 0.0, RegressionProbability(0))
	assert.InDelta(t, 0.4, RegressionProbability(10), 1e-9)
	assert.InDelta(t, 1.0, RegressionProbability(25), 1e-9)
	assert.Equal(t, 1.0, RegressionProbability(26))
}

func TestNormalizedGames(t *testing.T) {
	assert.InDelta(t, 82.0/17*5, NormalizedGames(5, 17), 1e-9)
	assert.InDelta(t, 5, NormalizedGames(5, 82), 1e-9)
}

func TestSeverityScore(t *testing.T) {
	assert.Equal(t, 0, SeverityScore(50, false, 2))
	assert.Equal(t, 50, SeverityScore(75, true, 30))
	assert.Equal(t, 20, SeverityScore(65, false, 12))
}

func sampleRatings(pos Position, v int) Ratings {
	attrs := make(map[string]int, len(RatingKeys))
	for _, k := range RatingKeys {
		attrs[k] = v
	}
	r := Ratings{Season: 2025, Pos: pos, Attrs: attrs}
	r.Rederive()
	r.Pot = r.Ovr + 10
	return r
}

func TestApplyRatingsLoss_ClampsPotential(t *testing.T) {
	r := sampleRatings(PosRB, 70)
	oldPot := r.Pot
	rng := &fixedRand{floats: []float64{0.5}, ints: []int{9, 9, 9}}

	drop := ApplyRatingsLoss(rng, &r, 24)

	for _, k := range PhysicalRatings {
		assert.Equal(t, 60, r.Attrs[k], k)
	}
	assert.Greater(t, drop, 0)
	assert.LessOrEqual(t, r.Pot, oldPot)
	assert.GreaterOrEqual(t, r.Pot, r.Ovr)
}

func TestPotentialAfterLoss(t *testing.T) {
	tests := []struct {
		name                        string
		oldOvr, oldPot, newOvr, age int
		want                        int
	}{
		{"young keeps gap", 60, 70, 55, 22, 65},
		{"veteran collapses to ovr", 60, 62, 55, 31, 55},
		{"never above old pot", 60, 60, 58, 22, 58},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, PotentialAfterLoss(tt.oldOvr, tt.oldPot, tt.newOvr, tt.age))
		})
	}
}
