// Package simdomain holds the pure rules of the simulation engine: phases, ratings,
// injuries, playoff series, finances and narrative text. Nothing in this package
// touches storage.
package simdomain

import (
	"fmt"
	"slices"
)

// Phase is a league-wide stage gating which scheduling rules apply.
type Phase int

const (
	PhasePreseason Phase = iota
	PhaseRegularSeason
	PhasePlayoffs
	PhaseDraftLottery
	PhaseDraft
	PhaseAfterDraft
	PhaseResignPlayers
	PhaseFreeAgency
)

var phaseNames = map[Phase]string{
	PhasePreseason:     "preseason",
	PhaseRegularSeason: "regular season",
	PhasePlayoffs:      "playoffs",
	PhaseDraftLottery:  "draft lottery",
	PhaseDraft:         "draft",
	PhaseAfterDraft:    "after draft",
	PhaseResignPlayers: "re-sign players",
	PhaseFreeAgency:    "free agency",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// ParsePhase maps a phase name back to its Phase.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// Conditions describes who asked for a phase change.
type Conditions struct {
	Source string
}

// Settings are the league knobs consumed by the engine. Read-only for a run.
type Settings struct {
	NumGames              int
	NumGamesPlayoffSeries []int
	PlayIn                bool
	AllStarGame           bool

	TiesAllowed bool
	OTLAllowed  bool

	StopOnInjury      bool
	StopOnInjuryGames int

	// PlayThroughInjuries is indexed by [regular season, playoffs].
	PlayThroughInjuries [2]int

	TragicDeathRate float64
	InjuryRate      float64
	Difficulty      float64

	SalaryCap        int64
	DefaultSalaryCap int64
	BudgetEnabled    bool

	MinRosterSize int
	MaxRosterSize int

	GodMode          bool
	ForceWinAttempts int
}

// SalaryCapScale is the factor revenue and expense formulas are multiplied by.
func (s Settings) SalaryCapScale() float64 {
	if s.DefaultSalaryCap == 0 {
		return 1
	}
	return float64(s.SalaryCap) / float64(s.DefaultSalaryCap)
}

// PlayThroughLimit is the longest injury a player still dresses for in the given phase.
func (s Settings) PlayThroughLimit(playoffs bool) int {
	if playoffs {
		return s.PlayThroughInjuries[1]
	}
	return s.PlayThroughInjuries[0]
}

// NumPlayoffRounds is the number of rounds in the bracket, excluding the play-in.
func (s Settings) NumPlayoffRounds() int {
	return len(s.NumGamesPlayoffSeries)
}

// LeagueContext is the current league state for one simulation run. It is loaded once at
// the top of a run; only the phase manager may change Phase.
type LeagueContext struct {
	LeagueID string
	Season   int
	Phase    Phase
	UserTIDs []int
	Settings Settings
}

// IsUserTeam reports whether tid is controlled by a user.
func (lc *LeagueContext) IsUserTeam(tid int) bool {
	return slices.Contains(lc.UserTIDs, tid)
}

// AnyUserTeam reports whether any of tids is controlled by a user.
func (lc *LeagueContext) AnyUserTeam(tids []int) bool {
	for _, tid := range tids {
		if lc.IsUserTeam(tid) {
			return true
		}
	}
	return false
}

// Playoffs reports whether the league is in the playoffs phase.
func (lc *LeagueContext) Playoffs() bool {
	return lc.Phase == PhasePlayoffs
}

// DayKey identifies one schedule day across seasons and phases. Playoff days are numbered
// from 1 again, so they get their own range.
func DayKey(season int, playoffs bool, day int) int {
	key := season*10000 + day
	if playoffs {
		key += 5000
	}
	return key
}

// SimState is the state of the day scheduler.
type SimState string

const (
	SimStateIdle       SimState = "idle"
	SimStatePlayingDay SimState = "playing_day"
	SimStateSaving     SimState = "saving"
)

// Lock flag names.
const (
	FlagGameSim     = "gameSim"
	FlagStopGameSim = "stopGameSim"
	FlagNewPhase    = "newPhase"
)

// Special team ids.
const (
	TIDFreeAgent = -1
	TIDUndrafted = -2
	TIDRetired   = -3
	// Exhibition game sides.
	TIDAllStarsA = -1
	TIDAllStarsB = -2
)
