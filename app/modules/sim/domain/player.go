package simdomain

import (
	"maps"
	"math"
	"sort"
)

// Position is a roster position.
type Position string

const (
	PosQB Position = "QB"
	PosRB Position = "RB"
	PosWR Position = "WR"
	PosTE Position = "TE"
	PosOL Position = "OL"
	PosDL Position = "DL"
	PosLB Position = "LB"
	PosCB Position = "CB"
	PosS  Position = "S"
	PosK  Position = "K"
	PosP  Position = "P"
)

// Positions lists every position in depth chart order.
var Positions = []Position{PosQB, PosRB, PosWR, PosTE, PosOL, PosDL, PosLB, PosCB, PosS, PosK, PosP}

// Raw rating keys.
const (
	RatingHgt  = "hgt"
	RatingStre = "stre"
	RatingSpd  = "spd"
	RatingEndu = "endu"
	RatingThv  = "thv"
	RatingThp  = "thp"
	RatingTha  = "tha"
	RatingBsc  = "bsc"
	RatingElu  = "elu"
	RatingRtr  = "rtr"
	RatingHnd  = "hnd"
	RatingRbk  = "rbk"
	RatingPbk  = "pbk"
	RatingPcv  = "pcv"
	RatingTck  = "tck"
	RatingPrs  = "prs"
	RatingRns  = "rns"
	RatingKpw  = "kpw"
	RatingKac  = "kac"
	RatingPpw  = "ppw"
	RatingPac  = "pac"
)

// RatingKeys lists every raw rating.
var RatingKeys = []string{
	RatingHgt, RatingStre, RatingSpd, RatingEndu, RatingThv, RatingThp, RatingTha, RatingBsc,
	RatingElu, RatingRtr, RatingHnd, RatingRbk, RatingPbk, RatingPcv, RatingTck, RatingPrs,
	RatingRns, RatingKpw, RatingKac, RatingPpw, RatingPac,
}

// PhysicalRatings are the ratings an injury can permanently lower.
var PhysicalRatings = []string{RatingSpd, RatingStre, RatingEndu}

type weight struct {
	rating string
	w      float64
}

var ovrWeights = map[Position][]weight{
	PosQB: {{RatingThv, 2}, {RatingThp, 1}, {RatingTha, 2}, {RatingHgt, 0.2}, {RatingBsc, 0.5}, {RatingElu, 0.3}},
	PosRB: {{RatingSpd, 1}, {RatingElu, 1.5}, {RatingBsc, 1}, {RatingStre, 0.5}, {RatingHnd, 0.3}, {RatingRtr, 0.2}},
	PosWR: {{RatingHgt, 0.5}, {RatingSpd, 1}, {RatingRtr, 1.5}, {RatingHnd, 1.5}, {RatingElu, 0.3}},
	PosTE: {{RatingHgt, 0.5}, {RatingStre, 0.6}, {RatingRbk, 0.8}, {RatingPbk, 0.3}, {RatingRtr, 0.6}, {RatingHnd, 1}, {RatingSpd, 0.4}},
	PosOL: {{RatingHgt, 0.5}, {RatingStre, 1.5}, {RatingRbk, 1.5}, {RatingPbk, 1.5}, {RatingSpd, 0.1}},
	PosDL: {{RatingHgt, 0.6}, {RatingStre, 1.5}, {RatingSpd, 0.7}, {RatingPrs, 1.5}, {RatingRns, 1.2}},
	PosLB: {{RatingHgt, 0.2}, {RatingStre, 0.6}, {RatingSpd, 0.8}, {RatingRns, 1}, {RatingPcv, 0.6}, {RatingTck, 1.2}, {RatingPrs, 0.3}},
	PosCB: {{RatingHgt, 0.3}, {RatingSpd, 1.5}, {RatingPcv, 2}, {RatingHnd, 0.2}, {RatingTck, 0.3}},
	PosS:  {{RatingHgt, 0.2}, {RatingSpd, 1}, {RatingPcv, 1.2}, {RatingRns, 0.5}, {RatingTck, 1}},
	PosK:  {{RatingKpw, 1}, {RatingKac, 1.5}},
	PosP:  {{RatingPpw, 1}, {RatingPac, 1.2}},
}

// Composite rating names.
const (
	CompPassingAccuracy = "passingAccuracy"
	CompPassingDeep     = "passingDeep"
	CompPassingVision   = "passingVision"
	CompAvoidingSacks   = "avoidingSacks"
	CompBallSecurity    = "ballSecurity"
	CompRushing         = "rushing"
	CompCatching        = "catching"
	CompGettingOpen     = "gettingOpen"
	CompPassBlocking    = "passBlocking"
	CompRunBlocking     = "runBlocking"
	CompPassRushing     = "passRushing"
	CompRunStopping     = "runStopping"
	CompPassCoverage    = "passCoverage"
	CompTackling        = "tackling"
	CompKickingPower    = "kickingPower"
	CompKickingAccuracy = "kickingAccuracy"
	CompPuntingPower    = "puntingPower"
	CompPuntingAccuracy = "puntingAccuracy"
	CompEndurance       = "endurance"
)

var compositeWeights = []struct {
	name    string
	weights []weight
}{
	{CompPassingAccuracy, []weight{{RatingTha, 1}, {RatingHgt, 0.2}}},
	{CompPassingDeep, []weight{{RatingThp, 1}, {RatingTha, 0.1}, {RatingHgt, 0.2}}},
	{CompPassingVision, []weight{{RatingThv, 1}, {RatingHgt, 0.5}}},
	{CompAvoidingSacks, []weight{{RatingThv, 0.5}, {RatingElu, 1}, {RatingStre, 0.25}}},
	{CompBallSecurity, []weight{{RatingBsc, 1}, {RatingStre, 0.2}}},
	{CompRushing, []weight{{RatingStre, 0.5}, {RatingSpd, 1}, {RatingElu, 1}}},
	{CompCatching, []weight{{RatingHgt, 0.2}, {RatingHnd, 1}}},
	{CompGettingOpen, []weight{{RatingHgt, 1}, {RatingSpd, 1}, {RatingRtr, 2}, {RatingHnd, 1}}},
	{CompPassBlocking, []weight{{RatingHgt, 0.5}, {RatingStre, 1}, {RatingSpd, 0.2}, {RatingPbk, 1}}},
	{CompRunBlocking, []weight{{RatingHgt, 0.5}, {RatingStre, 1}, {RatingSpd, 0.4}, {RatingRbk, 1}}},
	{CompPassRushing, []weight{{RatingHgt, 1}, {RatingStre, 1}, {RatingSpd, 1}, {RatingPrs, 1}}},
	{CompRunStopping, []weight{{RatingHgt, 0.5}, {RatingStre, 1}, {RatingSpd, 0.5}, {RatingRns, 1}}},
	{CompPassCoverage, []weight{{RatingHgt, 0.1}, {RatingSpd, 1}, {RatingPcv, 1}}},
	{CompTackling, []weight{{RatingSpd, 1}, {RatingStre, 1}, {RatingTck, 1}}},
	{CompKickingPower, []weight{{RatingKpw, 1}}},
	{CompKickingAccuracy, []weight{{RatingKac, 1}}},
	{CompPuntingPower, []weight{{RatingPpw, 1}}},
	{CompPuntingAccuracy, []weight{{RatingPac, 1}}},
	{CompEndurance, []weight{{RatingEndu, 1}}},
}

// Ratings is one season's rating row for a player.
type Ratings struct {
	Season int              `json:"season"`
	Pos    Position         `json:"pos"`
	Ovr    int              `json:"ovr"`
	Pot    int              `json:"pot"`
	Ovrs   map[Position]int `json:"ovrs"`
	Attrs  map[string]int   `json:"attrs"`
}

// Clone returns a deep copy.
func (r Ratings) Clone() Ratings {
	r.Ovrs = maps.Clone(r.Ovrs)
	r.Attrs = maps.Clone(r.Attrs)
	return r
}

func weightedMean(attrs map[string]int, ws []weight) float64 {
	var sum, total float64
	for _, w := range ws {
		sum += w.w * float64(attrs[w.rating])
		total += w.w
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// PositionOvr is the overall rating of attrs when playing pos.
func PositionOvr(attrs map[string]int, pos Position) int {
	ws, ok := ovrWeights[pos]
	if !ok {
		return 0
	}
	return clampRating(int(math.Round(weightedMean(attrs, ws))))
}

// PositionOvrs computes the overall rating at every position.
func PositionOvrs(attrs map[string]int) map[Position]int {
	out := make(map[Position]int, len(Positions))
	for _, pos := range Positions {
		out[pos] = PositionOvr(attrs, pos)
	}
	return out
}

// Rederive recomputes Ovrs and Ovr from the raw ratings. Pot is left alone.
func (r *Ratings) Rederive() {
	r.Ovrs = PositionOvrs(r.Attrs)
	r.Ovr = r.Ovrs[r.Pos]
}

// CompositeRatings computes the 0-1 composite ratings, scaled by injuryFactor.
func CompositeRatings(attrs map[string]int, injuryFactor float64) map[string]float64 {
	out := make(map[string]float64, len(compositeWeights))
	for _, c := range compositeWeights {
		v := weightedMean(attrs, c.weights) / 100 * injuryFactor
		out[c.name] = math.Max(0, math.Min(1, v))
	}
	return out
}

func clampRating(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Injury is a player's current injury.
type Injury struct {
	Type           string `json:"type"`
	GamesRemaining int    `json:"gamesRemaining"`
	Score          int    `json:"score,omitempty"`
}

// InjuryHealthy is the injury type of a healthy player.
const InjuryHealthy = "Healthy"

// Healthy returns the injury value of a healthy player.
func Healthy() Injury {
	return Injury{Type: InjuryHealthy}
}

// IsHealthy reports whether the injury has run its course.
func (i Injury) IsHealthy() bool {
	return i.GamesRemaining <= 0
}

// Decrement counts one day off the injury. It reports whether the player just healed.
func (i *Injury) Decrement() bool {
	if i.GamesRemaining <= 0 {
		return false
	}
	i.GamesRemaining--
	if i.GamesRemaining == 0 {
		i.Type = InjuryHealthy
		i.Score = 0
		return true
	}
	return false
}

// PlayThroughFactor scales a player's composite ratings while playing through an injury.
func PlayThroughFactor(gamesRemaining int) float64 {
	if gamesRemaining <= 0 {
		return 1
	}
	return math.Max(0, 1-0.05*float64(gamesRemaining))
}

// PlayerValue blends current and potential ratings by age.
func PlayerValue(r Ratings, age int) float64 {
	if age >= 29 || r.Pot <= r.Ovr {
		return float64(r.Ovr)
	}
	f := math.Min(0.5, float64(29-age)/10)
	return float64(r.Ovr) + f*float64(r.Pot-r.Ovr)
}

// PotentialAfterLoss re-derives potential after a rating regression. The result never
// exceeds the pre-injury potential and never drops below the new overall.
func PotentialAfterLoss(oldOvr, oldPot, newOvr, age int) int {
	pot := newOvr
	if age < 29 && oldPot > oldOvr {
		pot = newOvr + (oldPot - oldOvr)
	}
	if pot > oldPot {
		pot = oldPot
	}
	if pot < newOvr {
		pot = newOvr
	}
	return pot
}

// PlayerSimState is one player as handed to the game generator.
type PlayerSimState struct {
	PID          int                `json:"pid"`
	Name         string             `json:"name"`
	Pos          Position           `json:"pos"`
	Age          int                `json:"age"`
	Ovr          int                `json:"ovr"`
	Ovrs         map[Position]int   `json:"ovrs"`
	Injury       Injury             `json:"injury"`
	InjuryFactor float64            `json:"injuryFactor"`
	Composite    map[string]float64 `json:"composite"`
	// Depth is the player's slot in each position's depth chart, 0 = starter.
	Depth map[Position]int `json:"depth"`
	Stats StatLine         `json:"stats"`
}

// Clone returns a deep copy.
func (p *PlayerSimState) Clone() *PlayerSimState {
	c := *p
	c.Ovrs = maps.Clone(p.Ovrs)
	c.Composite = maps.Clone(p.Composite)
	c.Depth = maps.Clone(p.Depth)
	c.Stats = p.Stats.Clone()
	return &c
}

// SortByOvrAt sorts players by their rating at pos, best first.
func SortByOvrAt(players []*PlayerSimState, pos Position) {
	sort.SliceStable(players, func(i, j int) bool {
		oi, oj := players[i].Ovrs[pos], players[j].Ovrs[pos]
		if oi != oj {
			return oi > oj
		}
		return players[i].PID < players[j].PID
	})
}
