package simdomain

import (
	"maps"
	"strings"
)

// StatLine is a bag of counting stats keyed by stat name.
type StatLine map[string]int

// Stat keys the engine reads directly. Generators may emit any other key.
const (
	StatGP     = "gp"
	StatGS     = "gs"
	StatPts    = "pts"
	StatPss    = "pss"
	StatPssCmp = "pssCmp"
	StatPssYds = "pssYds"
	StatPssTD  = "pssTD"
	StatPssInt = "pssInt"
	StatPssLng = "pssLng"
	StatRus    = "rus"
	StatRusYds = "rusYds"
	StatRusTD  = "rusTD"
	StatRusLng = "rusLng"
	StatRec    = "rec"
	StatRecYds = "recYds"
	StatRecTD  = "recTD"
	StatRecLng = "recLng"
	StatDefSk  = "defSk"
	StatDefInt = "defInt"
	StatDefTck = "defTck"
	StatFg     = "fg"
	StatFga    = "fga"
	StatFgLng  = "fgLng"
	StatPnt    = "pnt"
	StatPntLng = "pntLng"
	StatQBW    = "qbW"
	StatQBL    = "qbL"
	StatQBT    = "qbT"
)

// runningMax stats keep the best single-game value instead of a sum.
var runningMax = map[string]bool{
	StatPssLng: true,
	StatRusLng: true,
	StatRecLng: true,
	StatFgLng:  true,
	StatPntLng: true,
}

// IsRunningMax reports whether key folds by maximum.
func IsRunningMax(key string) bool {
	return runningMax[key]
}

// Clone returns a copy. A nil line clones to an empty one.
func (s StatLine) Clone() StatLine {
	if s == nil {
		return StatLine{}
	}
	return maps.Clone(s)
}

// Fold adds delta into s. Running-maximum stats take the larger value.
func (s StatLine) Fold(delta StatLine) {
	for k, v := range delta {
		if runningMax[k] {
			if v > s[k] {
				s[k] = v
			}
			continue
		}
		s[k] += v
	}
}

// OppKey is the "against" counterpart of a team stat, e.g. pssYds -> oppPssYds.
func OppKey(key string) string {
	if key == "" {
		return key
	}
	return "opp" + strings.ToUpper(key[:1]) + key[1:]
}

// FoldTeam folds own into s, and opp into the "against" counterparts.
func (s StatLine) FoldTeam(own, opp StatLine) {
	s.Fold(own)
	against := make(StatLine, len(opp))
	for k, v := range opp {
		against[OppKey(k)] = v
	}
	s.Fold(against)
}

// ScheduleEntry is one game on the schedule.
type ScheduleEntry struct {
	GID     int
	Day     int
	HomeTID int
	AwayTID int
	// ForcedWinnerTID is set by God Mode authoring.
	ForcedWinnerTID *int
}

// TIDs returns home and away.
func (e ScheduleEntry) TIDs() [2]int {
	return [2]int{e.HomeTID, e.AwayTID}
}

// Kind resolves whether the entry is a normal or exhibition game.
func (e ScheduleEntry) Kind() GameKind {
	if e.HomeTID < 0 || e.AwayTID < 0 {
		return GameKindExhibition
	}
	return GameKindNormal
}

// GameKind distinguishes league games from exhibition (all-star) games.
type GameKind int

const (
	GameKindNormal GameKind = iota
	GameKindExhibition
)

func (k GameKind) String() string {
	if k == GameKindExhibition {
		return "exhibition"
	}
	return "normal"
}

// SimOptions are passed to the game generator.
type SimOptions struct {
	Kind             GameKind
	Playoffs         bool
	TiesAllowed      bool
	RecordPlayByPlay bool
	// HomeCourtFactor scales the home side's advantage. 1 is neutral.
	HomeCourtFactor float64
	// InjuryRate is the chance a player on the field is hurt during one possession.
	InjuryRate float64
}

// PlayerGameResult is one player's line in a finished game.
type PlayerGameResult struct {
	PID   int      `json:"pid"`
	Name  string   `json:"name"`
	Pos   Position `json:"pos"`
	Stats StatLine `json:"stats"`
	// Injured is true when the player got hurt during this game.
	Injured bool `json:"injured,omitempty"`
	// InjuryAtStart is the injury the player carried into the game.
	InjuryAtStart Injury `json:"injuryAtStart"`
}

// TeamGameResult is one side of a finished game. Index 0 in GameResult is home.
type TeamGameResult struct {
	TID     int                `json:"tid"`
	Pts     int                `json:"pts"`
	PtsQtrs []int              `json:"ptsQtrs"`
	Stats   StatLine           `json:"stats"`
	Players []PlayerGameResult `json:"players"`
}

// ScoringPlay is one entry of the scoring summary.
type ScoringPlay struct {
	Quarter int    `json:"quarter"`
	TID     int    `json:"tid"`
	Text    string `json:"text"`
	Pts     [2]int `json:"pts"`
}

// PlayByPlayEvent is one recorded play of a live game.
type PlayByPlayEvent struct {
	Quarter int    `json:"quarter"`
	TID     int    `json:"tid"`
	Text    string `json:"text"`
}

// GameResult is the generator's output for one game. It is folded into league state once
// and then discarded.
type GameResult struct {
	GID            int               `json:"gid"`
	Kind           GameKind          `json:"kind"`
	Overtimes      int               `json:"overtimes"`
	Teams          [2]TeamGameResult `json:"teams"`
	ScoringSummary []ScoringPlay     `json:"scoringSummary"`
	PlayByPlay     []PlayByPlayEvent `json:"playByPlay,omitempty"`
	// ForceWin is the number of attempts a forced outcome took. Zero when not forced.
	ForceWin int `json:"forceWin,omitempty"`
}

// WinnerIndex is 0 for a home win, 1 for an away win and -1 for a tie.
func (g *GameResult) WinnerIndex() int {
	switch {
	case g.Teams[0].Pts > g.Teams[1].Pts:
		return 0
	case g.Teams[1].Pts > g.Teams[0].Pts:
		return 1
	default:
		return -1
	}
}

// WinnerTID is the winning team, or ok=false on a tie.
func (g *GameResult) WinnerTID() (int, bool) {
	i := g.WinnerIndex()
	if i < 0 {
		return 0, false
	}
	return g.Teams[i].TID, true
}
