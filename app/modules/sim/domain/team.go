package simdomain

import (
	"maps"
	"math"
	"slices"
)

// TeamSimState is a team prepared for one game. Built fresh each day and never stored.
type TeamSimState struct {
	TID        int     `json:"tid"`
	Name       string  `json:"name"`
	Ovr        float64 `json:"ovr"`
	Pace       float64 `json:"pace"`
	Won        int     `json:"won"`
	Lost       int     `json:"lost"`
	Tied       int     `json:"tied"`
	OTL        int     `json:"otl"`
	HealthRank int     `json:"healthRank"`
	// Players is the playing subset in roster order.
	Players []*PlayerSimState `json:"players"`
	// Depth lists pids per position, starters first.
	Depth     map[Position][]int `json:"depth"`
	Composite map[string]float64 `json:"composite"`
	Stats     StatLine           `json:"stats"`
}

// Clone returns a deep copy so a generator run starts from zeroed accumulators.
func (t *TeamSimState) Clone() *TeamSimState {
	c := *t
	c.Players = make([]*PlayerSimState, len(t.Players))
	for i, p := range t.Players {
		c.Players[i] = p.Clone()
	}
	c.Depth = make(map[Position][]int, len(t.Depth))
	for pos, pids := range t.Depth {
		c.Depth[pos] = slices.Clone(pids)
	}
	c.Composite = maps.Clone(t.Composite)
	c.Stats = t.Stats.Clone()
	return &c
}

// Player returns the player with pid, or nil.
func (t *TeamSimState) Player(pid int) *PlayerSimState {
	for _, p := range t.Players {
		if p.PID == pid {
			return p
		}
	}
	return nil
}

// Starters returns the first n players at pos in depth order.
func (t *TeamSimState) Starters(pos Position, n int) []*PlayerSimState {
	pids := t.Depth[pos]
	out := make([]*PlayerSimState, 0, n)
	for _, pid := range pids {
		if len(out) == n {
			break
		}
		if p := t.Player(pid); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// BuildDepth orders players at every position. Pids listed in chart come first, in chart
// order, then the remaining players by rating at that position. Pids that are not in
// players are dropped.
func BuildDepth(players []*PlayerSimState, chart map[Position][]int) map[Position][]int {
	byPID := make(map[int]*PlayerSimState, len(players))
	for _, p := range players {
		byPID[p.PID] = p
	}

	depth := make(map[Position][]int, len(Positions))
	for _, pos := range Positions {
		seen := make(map[int]bool)
		var ordered []int
		for _, pid := range chart[pos] {
			if _, ok := byPID[pid]; ok && !seen[pid] {
				ordered = append(ordered, pid)
				seen[pid] = true
			}
		}
		rest := make([]*PlayerSimState, 0, len(players))
		for _, p := range players {
			if !seen[p.PID] {
				rest = append(rest, p)
			}
		}
		SortByOvrAt(rest, pos)
		for _, p := range rest {
			ordered = append(ordered, p.PID)
		}
		depth[pos] = ordered
	}

	for pos, pids := range depth {
		for i, pid := range pids {
			p := byPID[pid]
			if p.Depth == nil {
				p.Depth = make(map[Position]int)
			}
			p.Depth[pos] = i
		}
	}
	return depth
}

type depthSlot struct {
	pos Position
	n   int
}

// Starting slots used for ratings and team composites.
var startingSlots = []depthSlot{
	{PosQB, 1}, {PosRB, 1}, {PosTE, 1}, {PosWR, 3}, {PosOL, 5},
	{PosCB, 2}, {PosS, 3}, {PosLB, 2}, {PosDL, 4}, {PosK, 1}, {PosP, 1},
}

var teamCompositeSlots = []struct {
	name  string
	slots []depthSlot
}{
	{CompPassingAccuracy, []depthSlot{{PosQB, 1}}},
	{CompPassingDeep, []depthSlot{{PosQB, 1}}},
	{CompPassingVision, []depthSlot{{PosQB, 1}}},
	{CompAvoidingSacks, []depthSlot{{PosQB, 1}}},
	{CompBallSecurity, []depthSlot{{PosQB, 1}, {PosRB, 1}}},
	{CompRushing, []depthSlot{{PosRB, 1}}},
	{CompCatching, []depthSlot{{PosWR, 3}, {PosTE, 1}}},
	{CompGettingOpen, []depthSlot{{PosWR, 3}, {PosTE, 1}}},
	{CompPassBlocking, []depthSlot{{PosOL, 5}, {PosTE, 1}}},
	{CompRunBlocking, []depthSlot{{PosOL, 5}, {PosTE, 1}}},
	{CompPassRushing, []depthSlot{{PosDL, 4}, {PosLB, 1}}},
	{CompRunStopping, []depthSlot{{PosDL, 4}, {PosLB, 2}}},
	{CompPassCoverage, []depthSlot{{PosCB, 2}, {PosS, 2}}},
	{CompTackling, []depthSlot{{PosLB, 2}, {PosS, 2}, {PosCB, 2}}},
	{CompKickingPower, []depthSlot{{PosK, 1}}},
	{CompKickingAccuracy, []depthSlot{{PosK, 1}}},
	{CompPuntingPower, []depthSlot{{PosP, 1}}},
	{CompPuntingAccuracy, []depthSlot{{PosP, 1}}},
}

// TeamComposites averages the starters' composite ratings for each team composite.
func (t *TeamSimState) TeamComposites() map[string]float64 {
	out := make(map[string]float64, len(teamCompositeSlots))
	for _, c := range teamCompositeSlots {
		var sum float64
		var n int
		for _, slot := range c.slots {
			for _, p := range t.Starters(slot.pos, slot.n) {
				sum += p.Composite[c.name]
				n++
			}
		}
		if n > 0 {
			out[c.name] = sum / float64(n)
		}
	}
	return out
}

// TeamPace is plays per game, driven by the starters' endurance.
func (t *TeamSimState) TeamPace() float64 {
	var sum float64
	var n int
	for _, slot := range startingSlots {
		for _, p := range t.Starters(slot.pos, slot.n) {
			sum += p.Composite[CompEndurance]
			n++
		}
	}
	if n == 0 {
		return 60
	}
	return 60 + 10*sum/float64(n)
}

// Regression coefficients mapping depth-ordered position ratings to point margin.
var teamOvrCoefficients = map[Position][]float64{
	PosQB: {0.14023132},
	PosRB: {0.04154452},
	PosTE: {0.02339171},
	PosWR: {0.02381475, 0.01436188, 0.01380022},
	PosOL: {0.1362113, 0.10290326, 0.07238786, 0.07662868, 0.08502353},
	PosCB: {0.07920965, 0.0533057},
	PosS:  {0.04717957, 0.04165099, 0.00289605},
	PosLB: {0.05825232, 0.0242329},
	PosDL: {0.17763777, 0.12435656, 0.09421874, 0.07314366},
	PosK:  {0.04716635},
	PosP:  {0.0408595},
}

const teamOvrIntercept = -97.2246364425006

// TeamOvr maps depth-ordered position ratings to a 0-100ish team rating. A missing slot
// counts as a replacement-level rating of 20.
func TeamOvr(ovrs map[Position][]float64) float64 {
	mov := teamOvrIntercept
	for pos, coefs := range teamOvrCoefficients {
		for i, c := range coefs {
			rating := 20.0
			if i < len(ovrs[pos]) {
				rating = ovrs[pos][i]
			}
			mov += c * rating
		}
	}
	return math.Round((mov*50/10+50)*10) / 10
}

// ComputeOvr rates the team from its starters, scaling each rating by the injury factor.
func (t *TeamSimState) ComputeOvr() float64 {
	ovrs := make(map[Position][]float64, len(teamOvrCoefficients))
	for pos, coefs := range teamOvrCoefficients {
		for _, p := range t.Starters(pos, len(coefs)) {
			ovrs[pos] = append(ovrs[pos], float64(p.Ovrs[pos])*p.InjuryFactor)
		}
	}
	return TeamOvr(ovrs)
}

// Finalize derives depth, composites, pace and ovr once Players is set.
func (t *TeamSimState) Finalize(chart map[Position][]int) {
	t.Depth = BuildDepth(t.Players, chart)
	t.Composite = t.TeamComposites()
	t.Pace = t.TeamPace()
	t.Ovr = t.ComputeOvr()
	if t.Stats == nil {
		t.Stats = StatLine{}
	}
}

// HealthRanks ranks teams by health spending, 1 = most. Ties keep tid order.
func HealthRanks(spending map[int]float64) map[int]int {
	tids := make([]int, 0, len(spending))
	for tid := range spending {
		tids = append(tids, tid)
	}
	slices.SortFunc(tids, func(a, b int) int {
		switch {
		case spending[a] > spending[b]:
			return -1
		case spending[a] < spending[b]:
			return 1
		default:
			return a - b
		}
	})
	ranks := make(map[int]int, len(tids))
	for i, tid := range tids {
		ranks[tid] = i + 1
	}
	return ranks
}
