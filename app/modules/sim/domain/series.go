package simdomain

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrMatchupNotFound is returned when no current matchup has both teams.
	ErrMatchupNotFound = errors.New("playoff matchup not found")
	// ErrSeriesDecided is returned when a game arrives for a finished series.
	ErrSeriesDecided = errors.New("playoff series already decided")
)

// PlayInRound is the round index of the play-in tournament.
const PlayInRound = -1

// SeriesSide is one team's side of a playoff matchup.
type SeriesSide struct {
	TID   int `json:"tid"`
	Seed  int `json:"seed"`
	Group int `json:"group"`
	Won   int `json:"won"`
	Pts   int `json:"pts"`
	// PendingPlayIn marks a bracket slot waiting for a play-in winner.
	PendingPlayIn bool `json:"pendingPlayIn,omitempty"`
}

// Matchup is one series.
type Matchup struct {
	Home SeriesSide `json:"home"`
	Away SeriesSide `json:"away"`
	GIDs []int      `json:"gids"`
}

// Has reports whether the matchup is between tidA and tidB, in either order.
func (m *Matchup) Has(tidA, tidB int) bool {
	return (m.Home.TID == tidA && m.Away.TID == tidB) || (m.Home.TID == tidB && m.Away.TID == tidA)
}

// Winner returns the side that reached threshold wins.
func (m *Matchup) Winner(threshold int) (winner, loser SeriesSide, ok bool) {
	switch {
	case m.Home.Won >= threshold:
		return m.Home, m.Away, true
	case m.Away.Won >= threshold:
		return m.Away, m.Home, true
	}
	return SeriesSide{}, SeriesSide{}, false
}

// side returns a pointer to the side for tid.
func (m *Matchup) side(tid int) *SeriesSide {
	if m.Home.TID == tid {
		return &m.Home
	}
	if m.Away.TID == tid {
		return &m.Away
	}
	return nil
}

// Standing returns the wins of tid and of its opponent.
func (m *Matchup) Standing(tid int) (won, lost int) {
	if m.Home.TID == tid {
		return m.Home.Won, m.Away.Won
	}
	return m.Away.Won, m.Home.Won
}

// PlayoffSeries is the bracket for one season.
type PlayoffSeries struct {
	Season       int `json:"season"`
	CurrentRound int `json:"currentRound"`
	// Rounds holds the bracket, first round first.
	Rounds [][]Matchup `json:"rounds"`
	// PlayIns holds the play-in matchups of each group.
	PlayIns [][]Matchup `json:"playIns,omitempty"`
	// NumGames is the series length of each round.
	NumGames []int `json:"numGames"`
	// Day counts the playoff days scheduled so far.
	Day int `json:"day"`
}

// Clone returns a deep copy.
func (ps *PlayoffSeries) Clone() *PlayoffSeries {
	c := *ps
	c.Rounds = cloneMatchups(ps.Rounds)
	c.PlayIns = cloneMatchups(ps.PlayIns)
	c.NumGames = slices.Clone(ps.NumGames)
	return &c
}

func cloneMatchups(in [][]Matchup) [][]Matchup {
	if in == nil {
		return nil
	}
	out := make([][]Matchup, len(in))
	for i, ms := range in {
		out[i] = make([]Matchup, len(ms))
		for j, m := range ms {
			m.GIDs = slices.Clone(m.GIDs)
			out[i][j] = m
		}
	}
	return out
}

// WinsNeeded is the win threshold of a series: 1 for a single game, otherwise the
// smallest k with k > numGames/2.
func WinsNeeded(numGames int) int {
	if numGames <= 1 {
		return 1
	}
	return numGames/2 + 1
}

// NumGamesInRound is the series length of round. The play-in is always one game.
func (ps *PlayoffSeries) NumGamesInRound(round int) int {
	if round < 0 || round >= len(ps.NumGames) {
		return 1
	}
	return ps.NumGames[round]
}

// NumRounds excludes the play-in.
func (ps *PlayoffSeries) NumRounds() int {
	return len(ps.NumGames)
}

// NumGroups is the number of conferences feeding the bracket.
func (ps *PlayoffSeries) NumGroups() int {
	if len(ps.PlayIns) > 0 {
		return len(ps.PlayIns)
	}
	groups := map[int]bool{}
	if len(ps.Rounds) > 0 {
		for _, m := range ps.Rounds[0] {
			groups[m.Home.Group] = true
			groups[m.Away.Group] = true
		}
	}
	if len(groups) == 0 {
		return 1
	}
	return len(groups)
}

// Locate finds the current matchup between tidA and tidB. group is -1 outside the play-in.
func (ps *PlayoffSeries) Locate(tidA, tidB int) (m *Matchup, group, index int, err error) {
	if ps.CurrentRound == PlayInRound {
		for g := range ps.PlayIns {
			for i := range ps.PlayIns[g] {
				if ps.PlayIns[g][i].Has(tidA, tidB) {
					return &ps.PlayIns[g][i], g, i, nil
				}
			}
		}
		return nil, 0, 0, ErrMatchupNotFound
	}
	if ps.CurrentRound < 0 || ps.CurrentRound >= len(ps.Rounds) {
		return nil, 0, 0, ErrMatchupNotFound
	}
	round := ps.Rounds[ps.CurrentRound]
	for i := range round {
		if round[i].Has(tidA, tidB) {
			return &round[i], -1, i, nil
		}
	}
	return nil, 0, 0, ErrMatchupNotFound
}

// SeriesUpdate describes what one game did to the bracket.
type SeriesUpdate struct {
	Round    int
	Group    int
	Index    int
	NumGames int
	Decided  bool
	Winner   SeriesSide
	Loser    SeriesSide
	// Spliced is set when a play-in winner took a bracket slot.
	Spliced bool
}

// RecordGame applies one finished game to the current round. A tie adds points and the
// game id but no win.
func (ps *PlayoffSeries) RecordGame(gid int, tids, pts [2]int) (SeriesUpdate, error) {
	m, group, index, err := ps.Locate(tids[0], tids[1])
	if err != nil {
		return SeriesUpdate{}, fmt.Errorf("teams %d and %d: %w", tids[0], tids[1], err)
	}
	numGames := ps.NumGamesInRound(ps.CurrentRound)
	threshold := WinsNeeded(numGames)
	if _, _, decided := m.Winner(threshold); decided {
		return SeriesUpdate{}, fmt.Errorf("game %d: %w", gid, ErrSeriesDecided)
	}

	for i, tid := range tids {
		m.side(tid).Pts += pts[i]
	}
	switch {
	case pts[0] > pts[1]:
		m.side(tids[0]).Won++
	case pts[1] > pts[0]:
		m.side(tids[1]).Won++
	}
	m.GIDs = append(m.GIDs, gid)

	update := SeriesUpdate{Round: ps.CurrentRound, Group: group, Index: index, NumGames: numGames}
	if winner, loser, ok := m.Winner(threshold); ok {
		update.Decided = true
		update.Winner = winner
		update.Loser = loser
		if ps.CurrentRound == PlayInRound {
			update.Spliced = ps.splicePlayIn(group, index, winner)
		}
	}
	return update, nil
}

// splicePlayIn moves a decided play-in winner into its bracket slot. Only the first
// matchup of a group and the group's final game feed the bracket.
func (ps *PlayoffSeries) splicePlayIn(group, index int, winner SeriesSide) bool {
	games := ps.PlayIns[group]
	last := len(games) - 1
	var seed int
	first := games[0]
	topSeed := min(first.Home.Seed, first.Away.Seed)
	switch {
	case index == 0:
		seed = topSeed
	case index == last && last >= 2:
		seed = topSeed + 1
	default:
		return false
	}
	if len(ps.Rounds) == 0 {
		return false
	}
	for i := range ps.Rounds[0] {
		m := &ps.Rounds[0][i]
		for _, s := range []*SeriesSide{&m.Home, &m.Away} {
			if s.PendingPlayIn && s.Group == group && s.Seed == seed {
				s.TID = winner.TID
				s.PendingPlayIn = false
				return true
			}
		}
	}
	return false
}

// RoundComplete reports whether every matchup of round has a winner.
func (ps *PlayoffSeries) RoundComplete(round int) bool {
	threshold := WinsNeeded(ps.NumGamesInRound(round))
	var matchups []Matchup
	if round == PlayInRound {
		for _, g := range ps.PlayIns {
			matchups = append(matchups, g...)
		}
	} else if round >= 0 && round < len(ps.Rounds) {
		matchups = ps.Rounds[round]
	}
	for i := range matchups {
		if _, _, ok := matchups[i].Winner(threshold); !ok {
			return false
		}
	}
	return len(matchups) > 0
}

// RoundName names a round by its distance from the end of the bracket.
func RoundName(round, numRounds, numGroups int) string {
	switch {
	case round == PlayInRound:
		return "play-in tournament"
	case round == numRounds-1:
		return "finals"
	case round == numRounds-2:
		if numGroups > 1 {
			return "conference finals"
		}
		return "semifinals"
	case round == 0:
		return "first round"
	case round == numRounds-3 && numGroups > 1:
		return "conference semifinals"
	default:
		return fmt.Sprintf("round %d", round+1)
	}
}

// SeriesDecidedText is the narrative for a finished series.
func SeriesDecidedText(winner, loser, roundName string, u SeriesUpdate, winPts, losePts int) string {
	if u.NumGames <= 1 {
		return fmt.Sprintf("The %s defeated the %s %d-%d in the %s.", winner, loser, winPts, losePts, roundName)
	}
	return fmt.Sprintf("The %s defeated the %s in the %s, %d-%d.", winner, loser, roundName, u.Winner.Won, u.Loser.Won)
}

// SeriesStandingText describes the series from the game winner's side, given the wins of
// each side before the game was counted.
func SeriesStandingText(winsBefore, lossesBefore, threshold int) string {
	won := winsBefore + 1
	switch {
	case won >= threshold:
		return fmt.Sprintf("winning the series %d-%d", won, lossesBefore)
	case won == lossesBefore:
		return fmt.Sprintf("evening the series at %d-%d", won, lossesBefore)
	case won > lossesBefore && winsBefore > lossesBefore:
		return fmt.Sprintf("extending their lead to %d-%d", won, lossesBefore)
	case won > lossesBefore:
		return fmt.Sprintf("taking a %d-%d lead", won, lossesBefore)
	default:
		return fmt.Sprintf("cutting their deficit to %d-%d", won, lossesBefore)
	}
}

// PlayoffGameSummary is the news item for a game in the last two rounds.
func PlayoffGameSummary(winner, loser, roundName string, winPts, losePts, winsBefore, lossesBefore, numGames int) string {
	if numGames <= 1 {
		return fmt.Sprintf("The %s defeated the %s %d-%d in the %s.", winner, loser, winPts, losePts, roundName)
	}
	gameNum := winsBefore + lossesBefore + 1
	return fmt.Sprintf("The %s defeated the %s %d-%d in game %d of the %s, %s.",
		winner, loser, winPts, losePts, gameNum, roundName,
		SeriesStandingText(winsBefore, lossesBefore, WinsNeeded(numGames)))
}

// InFinalTwoRounds reports whether round is one of the last two bracket rounds.
func InFinalTwoRounds(round, numRounds int) bool {
	return round >= 0 && round >= numRounds-2
}
