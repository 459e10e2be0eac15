// Package gamesim is a drive-level football game generator. Each possession ends in a
// touchdown, field goal, turnover or punt, with odds set by the offense's composite ratings
// against the defense's.
package gamesim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
)

const (
	numQuarters          = 4
	drivesPerQuarter     = 5
	maxOvertimePeriods   = 10
	regularSeasonOTLimit = 1
)

// ErrMissingTeam is returned when either side of the matchup is nil.
var ErrMissingTeam = errors.New("gamesim: missing team")

// Generator implements the game generator used by the binary. It is safe for concurrent
// use; the random source is guarded.
type Generator struct {
	mu  sync.Mutex
	rng simdomain.Rand
}

// NewGenerator creates a Generator drawing from rng.
func NewGenerator(rng simdomain.Rand) *Generator {
	return &Generator{rng: rng}
}

// Simulate plays one game. teams[0] is home. The teams are read, never modified.
func (g *Generator) Simulate(ctx context.Context, gid int, teams [2]*simdomain.TeamSimState, opts simdomain.SimOptions) (*simdomain.GameResult, error) {
	if teams[0] == nil || teams[1] == nil {
		return nil, fmt.Errorf("game %d: %w", gid, ErrMissingTeam)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	gm := newGame(g.rng, teams, opts)
	gm.play()
	return gm.result(gid), nil
}

type game struct {
	rng   simdomain.Rand
	teams [2]*simdomain.TeamSimState
	opts  simdomain.SimOptions

	pts       [2]int
	qtrs      [2][]int
	overtimes int
	lines     map[int]simdomain.StatLine
	team      [2]simdomain.StatLine
	scoring   []simdomain.ScoringPlay
	pbp       []simdomain.PlayByPlayEvent
	injured   map[int]bool
}

func newGame(rng simdomain.Rand, teams [2]*simdomain.TeamSimState, opts simdomain.SimOptions) *game {
	return &game{
		rng:     rng,
		teams:   teams,
		opts:    opts,
		lines:   make(map[int]simdomain.StatLine),
		team:    [2]simdomain.StatLine{{}, {}},
		injured: make(map[int]bool),
	}
}

func (g *game) play() {
	for q := 1; q <= numQuarters; q++ {
		g.qtrs[0] = append(g.qtrs[0], 0)
		g.qtrs[1] = append(g.qtrs[1], 0)
		for d := range drivesPerQuarter * 2 {
			g.drive(q, d%2)
		}
	}

	if g.pts[0] != g.pts[1] {
		return
	}
	limit := maxOvertimePeriods
	if g.opts.TiesAllowed && !g.opts.Playoffs {
		limit = regularSeasonOTLimit
	}
	for g.pts[0] == g.pts[1] && g.overtimes < limit {
		g.overtimes++
		q := numQuarters + g.overtimes
		g.qtrs[0] = append(g.qtrs[0], 0)
		g.qtrs[1] = append(g.qtrs[1], 0)
		// Sudden death: alternate possessions until somebody scores.
		for d := 0; d < drivesPerQuarter*2 && g.pts[0] == g.pts[1]; d++ {
			g.drive(q, d%2)
		}
	}
	if g.pts[0] == g.pts[1] && !(g.opts.TiesAllowed && !g.opts.Playoffs) {
		side := 0
		if g.teams[1].Composite[simdomain.CompKickingAccuracy] > g.teams[0].Composite[simdomain.CompKickingAccuracy] {
			side = 1
		}
		for g.pts[0] == g.pts[1] {
			g.fieldGoal(numQuarters+g.overtimes, side, 30)
		}
	}
}

// drive runs one possession for side t.
func (g *game) drive(q, t int) {
	off, def := g.teams[t], g.teams[1-t]
	edge := offense(off) - defense(def)
	bias := math.Sqrt(g.homeCourt())
	if t == 1 {
		bias = 1 / bias
	}

	pTD := clamp((0.2+0.3*edge)*bias, 0.03, 0.6)
	pFG := clamp(0.12+0.1*(off.Composite[simdomain.CompKickingAccuracy]-0.5), 0.05, 0.3)
	pTO := clamp((0.1-0.1*edge)/bias, 0.02, 0.25)

	passing := g.rng.Float64() < 0.55
	yards := 5 + g.rng.IntN(40)
	roll := g.rng.Float64()
	switch {
	case roll < pTD:
		g.touchdown(q, t, passing, 20+g.rng.IntN(60))
	case roll < pTD+pFG:
		g.credit(off, passing, yards, false)
		g.fieldGoal(q, t, 20+g.rng.IntN(35))
	case roll < pTD+pFG+pTO:
		g.credit(off, passing, yards/2, false)
		g.turnover(q, t, passing)
	default:
		g.credit(off, passing, yards, false)
		g.punt(q, t)
	}
	g.tackles(def)
	g.injuries(q, off, def)
}

// Starters on the field for one possession.
var (
	offenseUnit = map[simdomain.Position]int{
		simdomain.PosQB: 1, simdomain.PosRB: 1, simdomain.PosWR: 3, simdomain.PosTE: 1, simdomain.PosOL: 5,
	}
	defenseUnit = map[simdomain.Position]int{
		simdomain.PosDL: 4, simdomain.PosLB: 3, simdomain.PosCB: 2, simdomain.PosS: 2,
	}
)

// injuries rolls opts.InjuryRate once for every starter on the field this possession. A
// player is hurt at most once per game.
func (g *game) injuries(q int, off, def *simdomain.TeamSimState) {
	if g.opts.InjuryRate <= 0 {
		return
	}
	for _, unit := range []struct {
		team  *simdomain.TeamSimState
		slots map[simdomain.Position]int
	}{{off, offenseUnit}, {def, defenseUnit}} {
		for _, pos := range simdomain.Positions {
			n := unit.slots[pos]
			if n == 0 {
				continue
			}
			for _, p := range unit.team.Starters(pos, n) {
				if g.injured[p.PID] || g.rng.Float64() >= g.opts.InjuryRate {
					continue
				}
				g.injured[p.PID] = true
				g.record(q, unit.team.TID, fmt.Sprintf("%s was injured on the play", p.Name))
			}
		}
	}
}

func (g *game) homeCourt() float64 {
	if g.opts.HomeCourtFactor <= 0 {
		return 1
	}
	return g.opts.HomeCourtFactor
}

func (g *game) touchdown(q, t int, passing bool, yards int) {
	off := g.teams[t]
	qb, rusher, receiver := g.skill(off)
	g.credit(off, passing, yards, true)
	g.score(q, t, 7)

	var text string
	switch {
	case passing && qb != nil && receiver != nil:
		text = fmt.Sprintf("%s %d yard touchdown pass from %s to %s", off.Name, yards, qb.Name, receiver.Name)
	case !passing && rusher != nil:
		text = fmt.Sprintf("%s %d yard touchdown run by %s", off.Name, yards, rusher.Name)
	default:
		text = fmt.Sprintf("%s touchdown", off.Name)
	}
	g.scoring = append(g.scoring, simdomain.ScoringPlay{Quarter: q, TID: off.TID, Text: text, Pts: g.pts})
	g.record(q, off.TID, text)
}

func (g *game) fieldGoal(q, t, distance int) {
	off := g.teams[t]
	k := first(off.Starters(simdomain.PosK, 1))
	g.add(k, t, simdomain.StatFga, 1)
	made := g.rng.Float64() < clamp(0.95-0.01*float64(distance-20)+0.2*(off.Composite[simdomain.CompKickingPower]-0.5), 0.3, 0.98)
	if !made {
		g.record(q, off.TID, fmt.Sprintf("%s missed a %d yard field goal", off.Name, distance))
		return
	}
	g.add(k, t, simdomain.StatFg, 1)
	g.best(k, simdomain.StatFgLng, distance)
	g.score(q, t, 3)

	text := fmt.Sprintf("%s %d yard field goal", off.Name, distance)
	if k != nil {
		text = fmt.Sprintf("%s %d yard field goal by %s", off.Name, distance, k.Name)
	}
	g.scoring = append(g.scoring, simdomain.ScoringPlay{Quarter: q, TID: off.TID, Text: text, Pts: g.pts})
	g.record(q, off.TID, text)
}

func (g *game) turnover(q, t int, passing bool) {
	off, def := g.teams[t], g.teams[1-t]
	if passing {
		qb := first(off.Starters(simdomain.PosQB, 1))
		g.add(qb, t, simdomain.StatPssInt, 1)
		cb := first(def.Starters(simdomain.PosCB, 2))
		g.add(cb, 1-t, simdomain.StatDefInt, 1)
		g.record(q, off.TID, fmt.Sprintf("%s pass intercepted", off.Name))
		return
	}
	g.record(q, off.TID, fmt.Sprintf("%s fumbled", off.Name))
}

func (g *game) punt(q, t int) {
	off := g.teams[t]
	p := first(off.Starters(simdomain.PosP, 1))
	g.add(p, t, simdomain.StatPnt, 1)
	g.best(p, simdomain.StatPntLng, 35+g.rng.IntN(25))
	g.record(q, off.TID, fmt.Sprintf("%s punt", off.Name))
}

// credit books the yards of a drive to the offense's skill players.
func (g *game) credit(off *simdomain.TeamSimState, passing bool, yards int, td bool) {
	t := g.side(off)
	qb, rusher, receiver := g.skill(off)
	if passing {
		att := 3 + g.rng.IntN(5)
		cmp := max(1, att*3/5)
		g.add(qb, t, simdomain.StatPss, att)
		g.add(qb, t, simdomain.StatPssCmp, cmp)
		g.add(qb, t, simdomain.StatPssYds, yards)
		g.best(qb, simdomain.StatPssLng, yards/cmp)
		g.add(receiver, t, simdomain.StatRec, cmp)
		g.add(receiver, t, simdomain.StatRecYds, yards)
		g.best(receiver, simdomain.StatRecLng, yards/cmp)
		if td {
			g.add(qb, t, simdomain.StatPssTD, 1)
			g.add(receiver, t, simdomain.StatRecTD, 1)
		}
		if g.rng.Float64() < 0.1 {
			g.add(first(g.teams[1-t].Starters(simdomain.PosDL, 4)), 1-t, simdomain.StatDefSk, 1)
		}
		return
	}
	carries := 2 + g.rng.IntN(5)
	g.add(rusher, t, simdomain.StatRus, carries)
	g.add(rusher, t, simdomain.StatRusYds, yards)
	g.best(rusher, simdomain.StatRusLng, yards/carries+g.rng.IntN(10))
	if td {
		g.add(rusher, t, simdomain.StatRusTD, 1)
	}
}

func (g *game) tackles(def *simdomain.TeamSimState) {
	t := g.side(def)
	lbs := def.Starters(simdomain.PosLB, 3)
	if len(lbs) == 0 {
		return
	}
	g.add(lbs[g.rng.IntN(len(lbs))], t, simdomain.StatDefTck, 1+g.rng.IntN(4))
}

// skill returns the starting QB, the starting RB and a random WR or TE.
func (g *game) skill(off *simdomain.TeamSimState) (qb, rusher, receiver *simdomain.PlayerSimState) {
	qb = first(off.Starters(simdomain.PosQB, 1))
	rusher = first(off.Starters(simdomain.PosRB, 1))
	targets := append(off.Starters(simdomain.PosWR, 3), off.Starters(simdomain.PosTE, 1)...)
	if len(targets) > 0 {
		receiver = targets[g.rng.IntN(len(targets))]
	}
	return qb, rusher, receiver
}

func (g *game) side(team *simdomain.TeamSimState) int {
	if team == g.teams[0] {
		return 0
	}
	return 1
}

func (g *game) score(q, t, pts int) {
	g.pts[t] += pts
	g.qtrs[t][q-1] += pts
}

func (g *game) add(p *simdomain.PlayerSimState, t int, key string, v int) {
	g.team[t][key] += v
	if p == nil {
		return
	}
	line := g.line(p.PID)
	line[key] += v
}

func (g *game) best(p *simdomain.PlayerSimState, key string, v int) {
	if p == nil {
		return
	}
	line := g.line(p.PID)
	if v > line[key] {
		line[key] = v
	}
}

func (g *game) line(pid int) simdomain.StatLine {
	line, ok := g.lines[pid]
	if !ok {
		line = simdomain.StatLine{}
		g.lines[pid] = line
	}
	return line
}

func (g *game) record(q, tid int, text string) {
	if !g.opts.RecordPlayByPlay {
		return
	}
	g.pbp = append(g.pbp, simdomain.PlayByPlayEvent{Quarter: q, TID: tid, Text: text})
}

func (g *game) result(gid int) *simdomain.GameResult {
	res := &simdomain.GameResult{
		GID:            gid,
		Kind:           g.opts.Kind,
		Overtimes:      g.overtimes,
		ScoringSummary: g.scoring,
		PlayByPlay:     g.pbp,
	}
	for t, team := range g.teams {
		starters := make(map[int]bool)
		for _, pos := range simdomain.Positions {
			for _, p := range team.Starters(pos, 1) {
				starters[p.PID] = true
			}
		}

		g.team[t][simdomain.StatPts] = g.pts[t]
		tr := simdomain.TeamGameResult{
			TID:     team.TID,
			Pts:     g.pts[t],
			PtsQtrs: g.qtrs[t],
			Stats:   g.team[t],
		}
		for _, p := range team.Players {
			line := g.line(p.PID)
			line[simdomain.StatGP] = 1
			if starters[p.PID] {
				line[simdomain.StatGS] = 1
			}
			tr.Players = append(tr.Players, simdomain.PlayerGameResult{
				PID:           p.PID,
				Name:          p.Name,
				Pos:           p.Pos,
				Stats:         line,
				Injured:       g.injured[p.PID],
				InjuryAtStart: p.Injury,
			})
		}
		res.Teams[t] = tr
	}

	return res
}

func offense(t *simdomain.TeamSimState) float64 {
	return avg(t.Composite,
		simdomain.CompPassingAccuracy,
		simdomain.CompRushing,
		simdomain.CompCatching,
		simdomain.CompPassBlocking,
		simdomain.CompRunBlocking,
	)
}

func defense(t *simdomain.TeamSimState) float64 {
	return avg(t.Composite,
		simdomain.CompPassRushing,
		simdomain.CompRunStopping,
		simdomain.CompPassCoverage,
		simdomain.CompTackling,
	)
}

func avg(m map[string]float64, keys ...string) float64 {
	var sum float64
	for _, k := range keys {
		sum += m[k]
	}
	return sum / float64(len(keys))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func first(ps []*simdomain.PlayerSimState) *simdomain.PlayerSimState {
	if len(ps) == 0 {
		return nil
	}
	return ps[0]
}
