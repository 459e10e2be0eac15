package phasedomain

import (
	"errors"
	"fmt"
	"sort"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
)

// ErrNotEnoughTeams is returned when the league cannot fill the bracket.
var ErrNotEnoughTeams = errors.New("not enough teams for the playoff bracket")

// Standing is one team's regular season line used for seeding.
type Standing struct {
	TID    int
	Group  int
	WinPct float64
	Won    int
}

// rank orders standings best first. Ties fall to more wins, then the lower tid.
func rank(standings []Standing) {
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.WinPct != b.WinPct {
			return a.WinPct > b.WinPct
		}
		if a.Won != b.Won {
			return a.Won > b.Won
		}
		return a.TID < b.TID
	})
}

// BracketOrder lists seeds 1..n in first-round order, so adjacent pairs meet and the winners
// of adjacent matchups meet next. n must be a power of two.
func BracketOrder(n int) []int {
	order := []int{1}
	for size := 2; size <= n; size *= 2 {
		next := make([]int, 0, size)
		for _, s := range order {
			next = append(next, s, size+1-s)
		}
		order = next
	}
	return order
}

// Seeding is the outcome of SeedBracket.
type Seeding struct {
	Bracket simdomain.PlayoffSeries
	// Direct are the teams seeded straight into the first round.
	Direct []int
	// PlayIn are the teams that must win the play-in to reach the bracket.
	PlayIn []int
}

// SeedBracket seeds numGames-sized rounds from the standings. Teams are split by group when
// every group can fill an equal power-of-two share of the bracket; otherwise the league is
// one group. With playIn, the last two seeds of each group come from a four-team play-in.
func SeedBracket(season int, standings []Standing, numGames []int, playIn bool) (Seeding, error) {
	numRounds := len(numGames)
	if numRounds == 0 {
		return Seeding{}, fmt.Errorf("bracket has no rounds")
	}
	numTeams := 1 << numRounds

	groups := splitGroups(standings, numTeams, playIn)
	perGroup := numTeams / len(groups)
	if perGroup < 2 {
		groups = [][]Standing{append([]Standing(nil), standings...)}
		perGroup = numTeams
	}
	// The play-in feeds the last two seeds; smaller groups seed directly.
	playIn = playIn && perGroup >= 4

	need := perGroup
	if playIn {
		need += 2
	}
	for _, g := range groups {
		if len(g) < need {
			return Seeding{}, fmt.Errorf("%w: need %d per group, have %d", ErrNotEnoughTeams, need, len(g))
		}
	}

	out := Seeding{
		Bracket: simdomain.PlayoffSeries{
			Season:   season,
			NumGames: append([]int(nil), numGames...),
		},
	}
	if playIn {
		out.Bracket.CurrentRound = simdomain.PlayInRound
		out.Bracket.PlayIns = make([][]simdomain.Matchup, len(groups))
	}

	var first []simdomain.Matchup
	order := BracketOrder(perGroup)
	for gi, g := range groups {
		rank(g)
		side := func(seed int) simdomain.SeriesSide {
			s := simdomain.SeriesSide{TID: g[seed-1].TID, Seed: seed, Group: gi}
			if playIn && seed >= perGroup-1 {
				s.TID = -1
				s.PendingPlayIn = true
			}
			return s
		}
		for i := 0; i < len(order); i += 2 {
			first = append(first, simdomain.Matchup{Home: side(order[i]), Away: side(order[i+1])})
		}
		for seed := 1; seed <= perGroup; seed++ {
			if playIn && seed >= perGroup-1 {
				continue
			}
			out.Direct = append(out.Direct, g[seed-1].TID)
		}
		if playIn {
			pi := func(seed int) simdomain.SeriesSide {
				return simdomain.SeriesSide{TID: g[seed-1].TID, Seed: seed, Group: gi}
			}
			out.Bracket.PlayIns[gi] = []simdomain.Matchup{
				{Home: pi(perGroup - 1), Away: pi(perGroup)},
				{Home: pi(perGroup + 1), Away: pi(perGroup + 2)},
			}
			for seed := perGroup - 1; seed <= perGroup+2; seed++ {
				out.PlayIn = append(out.PlayIn, g[seed-1].TID)
			}
		}
	}
	out.Bracket.Rounds = [][]simdomain.Matchup{first}
	return out, nil
}

// splitGroups returns one slice per group when the groups divide the bracket evenly.
func splitGroups(standings []Standing, numTeams int, playIn bool) [][]Standing {
	byGroup := map[int][]Standing{}
	var ids []int
	for _, s := range standings {
		if _, ok := byGroup[s.Group]; !ok {
			ids = append(ids, s.Group)
		}
		byGroup[s.Group] = append(byGroup[s.Group], s)
	}
	sort.Ints(ids)

	single := [][]Standing{append([]Standing(nil), standings...)}
	if len(ids) < 2 || numTeams%len(ids) != 0 {
		return single
	}
	perGroup := numTeams / len(ids)
	if perGroup&(perGroup-1) != 0 {
		return single
	}
	need := perGroup
	if playIn {
		need += 2
	}
	out := make([][]Standing, 0, len(ids))
	for _, id := range ids {
		if len(byGroup[id]) < need {
			return single
		}
		out = append(out, byGroup[id])
	}
	return out
}

// ThirdPlayInGame pairs the loser of a group's first play-in game with the winner of its
// second. It reports false until both games are decided or when the game already exists.
func ThirdPlayInGame(games []simdomain.Matchup) (simdomain.Matchup, bool) {
	if len(games) != 2 {
		return simdomain.Matchup{}, false
	}
	_, loser, ok0 := games[0].Winner(1)
	winner, _, ok1 := games[1].Winner(1)
	if !ok0 || !ok1 {
		return simdomain.Matchup{}, false
	}
	home, away := resetSide(loser), resetSide(winner)
	return simdomain.Matchup{Home: home, Away: away}, true
}

// NextRound pairs the winners of adjacent matchups. The better seed hosts.
func NextRound(prev []simdomain.Matchup, threshold int) ([]simdomain.Matchup, error) {
	if len(prev) < 2 || len(prev)%2 != 0 {
		return nil, fmt.Errorf("cannot pair %d matchups", len(prev))
	}
	next := make([]simdomain.Matchup, 0, len(prev)/2)
	for i := 0; i < len(prev); i += 2 {
		a, _, okA := prev[i].Winner(threshold)
		b, _, okB := prev[i+1].Winner(threshold)
		if !okA || !okB {
			return nil, fmt.Errorf("matchups %d and %d are not decided", i, i+1)
		}
		a, b = resetSide(a), resetSide(b)
		if b.Seed < a.Seed {
			a, b = b, a
		}
		next = append(next, simdomain.Matchup{Home: a, Away: b})
	}
	return next, nil
}

func resetSide(s simdomain.SeriesSide) simdomain.SeriesSide {
	s.Won = 0
	s.Pts = 0
	return s
}

// HomeHosts reports whether the home side hosts game n (0-based) of a series, following
// the 2-2-1-1-1 format.
func HomeHosts(n int) bool {
	switch n {
	case 0, 1, 4, 6:
		return true
	case 2, 3, 5:
		return false
	default:
		return n%2 == 0
	}
}
