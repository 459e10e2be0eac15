package simservice

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	simmigrations "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/league-sim/db/bundb"
	"github.com/Black-And-White-Club/league-sim/pkg/simmetrics"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

// ------------------------
// Fake Game Generator
// ------------------------

// FakeGenerator returns scripted box scores. By default home wins 101-98.
type FakeGenerator struct {
	SimulateFunc func(gid int, teams [2]*simdomain.TeamSimState, opts simdomain.SimOptions) (*simdomain.GameResult, error)
	Calls        int
	LastOpts     simdomain.SimOptions
}

func (f *FakeGenerator) Simulate(ctx context.Context, gid int, teams [2]*simdomain.TeamSimState, opts simdomain.SimOptions) (*simdomain.GameResult, error) {
	f.Calls++
	f.LastOpts = opts
	if f.SimulateFunc != nil {
		return f.SimulateFunc(gid, teams, opts)
	}
	return boxScore(gid, teams, 101, 98), nil
}

// boxScore credits the first player of each side with a passing line.
func boxScore(gid int, teams [2]*simdomain.TeamSimState, homePts, awayPts int) *simdomain.GameResult {
	result := &simdomain.GameResult{GID: gid}
	for side, pts := range []int{homePts, awayPts} {
		tr := simdomain.TeamGameResult{
			TID:   teams[side].TID,
			Pts:   pts,
			Stats: simdomain.StatLine{simdomain.StatPssYds: 250},
		}
		if len(teams[side].Players) > 0 {
			p := teams[side].Players[0]
			tr.Players = append(tr.Players, simdomain.PlayerGameResult{
				PID:   p.PID,
				Name:  p.Name,
				Pos:   p.Pos,
				Stats: simdomain.StatLine{simdomain.StatGP: 1, simdomain.StatPss: 30, simdomain.StatPssYds: 250},
			})
		}
		result.Teams[side] = tr
	}
	return result
}

// ------------------------
// Fake Lock
// ------------------------

type FakeLock struct {
	mu       sync.Mutex
	flags    map[string]bool
	CanStart *bool
	SetCalls []string
}

func NewFakeLock() *FakeLock {
	return &FakeLock{flags: map[string]bool{}}
}

func (f *FakeLock) TryStartGames(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CanStart != nil && !*f.CanStart {
		return false, nil
	}
	if f.flags[simdomain.FlagGameSim] {
		return false, nil
	}
	f.flags[simdomain.FlagGameSim] = true
	f.SetCalls = append(f.SetCalls, simdomain.FlagGameSim)
	return true, nil
}

func (f *FakeLock) Set(ctx context.Context, flag string, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[flag] = value
	f.SetCalls = append(f.SetCalls, flag)
	return nil
}

func (f *FakeLock) Get(ctx context.Context, flag string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags[flag], nil
}

// ------------------------
// Fake Event Log / Notifier
// ------------------------

type FakeEventLog struct {
	Events []simdomain.Event
}

func (f *FakeEventLog) LogEvent(ctx context.Context, ev simdomain.Event) {
	f.Events = append(f.Events, ev)
}

// OfType returns the logged events of type t.
func (f *FakeEventLog) OfType(t simdomain.EventType) []simdomain.Event {
	var out []simdomain.Event
	for _, ev := range f.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type FakeNotifier struct {
	Updates []simdomain.RealtimeUpdate
}

func (f *FakeNotifier) RealtimeUpdate(ctx context.Context, update simdomain.RealtimeUpdate) {
	f.Updates = append(f.Updates, update)
}

// ------------------------
// Fake Phase Manager / Playoff Scheduler
// ------------------------

type FakePhaseManager struct {
	Phases       []simdomain.Phase
	NewPhaseFunc func(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext, phase simdomain.Phase) error
}

func (f *FakePhaseManager) NewPhase(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext, phase simdomain.Phase, conds simdomain.Conditions, isLiveGame bool) error {
	f.Phases = append(f.Phases, phase)
	if f.NewPhaseFunc != nil {
		return f.NewPhaseFunc(ctx, db, lc, phase)
	}
	lc.Phase = phase
	return nil
}

type FakeScheduleGenerator struct {
	Calls int
	// Over is returned when NewScheduleFunc is nil.
	Over            bool
	NewScheduleFunc func(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) (bool, error)
}

func (f *FakeScheduleGenerator) NewSchedulePlayoffsDay(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) (bool, error) {
	f.Calls++
	if f.NewScheduleFunc != nil {
		return f.NewScheduleFunc(ctx, db, lc)
	}
	return f.Over, nil
}

// ------------------------
// Fake Day-Boundary Collaborators
// ------------------------

type FakeFreeAgency struct {
	DecreaseCalls int
	AutoSignCalls int
}

func (f *FakeFreeAgency) DecreaseDemands(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error {
	f.DecreaseCalls++
	return nil
}

func (f *FakeFreeAgency) AutoSign(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error {
	f.AutoSignCalls++
	return nil
}

type FakeTradeBroker struct {
	Calls int
}

func (f *FakeTradeBroker) BetweenAITeams(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error {
	f.Calls++
	return nil
}

type FakeDraftAssembler struct {
	Calls    int
	Assemble func(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error
}

func (f *FakeDraftAssembler) AssembleAllStars(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error {
	f.Calls++
	if f.Assemble != nil {
		return f.Assemble(ctx, db, lc)
	}
	return nil
}

// Ensure the fakes satisfy the collaborator interfaces
var (
	_ GameGenerator     = (*FakeGenerator)(nil)
	_ Lock              = (*FakeLock)(nil)
	_ EventLog          = (*FakeEventLog)(nil)
	_ Notifier          = (*FakeNotifier)(nil)
	_ PhaseManager      = (*FakePhaseManager)(nil)
	_ ScheduleGenerator = (*FakeScheduleGenerator)(nil)
	_ FreeAgency        = (*FakeFreeAgency)(nil)
	_ TradeBroker       = (*FakeTradeBroker)(nil)
	_ DraftAssembler    = (*FakeDraftAssembler)(nil)
)

// ------------------------
// Harness
// ------------------------

type harness struct {
	svc      *SimService
	db       *bun.DB
	repo     simdb.Repository
	gen      *FakeGenerator
	lock     *FakeLock
	events   *FakeEventLog
	notifier *FakeNotifier
	phases   *FakePhaseManager
	playoffs *FakeScheduleGenerator
	fa       *FakeFreeAgency
	trades   *FakeTradeBroker
	allStars *FakeDraftAssembler
}

func testSettings() simdomain.Settings {
	return simdomain.Settings{
		NumGames:              17,
		NumGamesPlayoffSeries: []int{7},
		PlayThroughInjuries:   [2]int{0, 4},
		SalaryCap:             200000,
		DefaultSalaryCap:      200000,
		MinRosterSize:         3,
		MaxRosterSize:         10,
		ForceWinAttempts:      10,
	}
}

func newHarness(t *testing.T, settings simdomain.Settings) *harness {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := bundb.OpenSQLite(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, simmigrations.CreateSchema(ctx, db))

	h := &harness{
		db:       db,
		repo:     simdb.NewRepository(db),
		gen:      &FakeGenerator{},
		lock:     NewFakeLock(),
		events:   &FakeEventLog{},
		notifier: &FakeNotifier{},
		phases:   &FakePhaseManager{},
		playoffs: &FakeScheduleGenerator{},
		fa:       &FakeFreeAgency{},
		trades:   &FakeTradeBroker{},
		allStars: &FakeDraftAssembler{},
	}
	collab := Collaborators{
		Generator:  h.gen,
		Phases:     h.phases,
		Playoffs:   h.playoffs,
		AllStars:   h.allStars,
		FreeAgency: h.fa,
		Trades:     h.trades,
		Lock:       h.lock,
		Events:     h.events,
		Notifier:   h.notifier,
	}
	tracer := noop.NewTracerProvider().Tracer("test")
	h.svc = NewSimService(h.repo, collab, settings, logger, simmetrics.NoOpMetrics{}, tracer, db, rand.New(rand.NewPCG(1, 2)))
	return h
}

// seedLeague creates numTeams teams of rosterSize healthy players each. Team 0 is the
// user's team; player pids are tid*100+i.
func (h *harness) seedLeague(t *testing.T, phase simdomain.Phase, numTeams, rosterSize int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.repo.SaveLeagueState(ctx, nil, &simdb.LeagueState{
		LeagueID:       "test",
		Season:         2025,
		StartingSeason: 2025,
		Phase:          phase,
		UserTIDs:       []int{0},
		NextGID:        1000,
	}))
	for tid := range numTeams {
		require.NoError(t, h.repo.UpsertTeam(ctx, nil, &simdb.Team{
			TID:    tid,
			Region: "City",
			Name:   teamNames[tid%len(teamNames)],
			Abbrev: "C" + string(rune('A'+tid)),
			Pop:    2,
			Budget: simdomain.DefaultBudget(1),
		}))
		require.NoError(t, h.repo.UpsertTeamSeason(ctx, nil, &simdb.TeamSeason{
			TID:              tid,
			Season:           2025,
			Hype:             0.5,
			Pop:              2,
			PlayoffRoundsWon: -1,
		}))
		for i := range rosterSize {
			require.NoError(t, h.repo.UpsertPlayer(ctx, nil, testPlayer(tid*100+i, tid, i)))
		}
	}
}

var teamNames = []string{"Hawks", "Bears", "Lions", "Wolves", "Sharks", "Comets", "Rams", "Owls"}

func testPlayer(pid, tid, order int) *simdb.Player {
	pos := simdomain.Positions[order%len(simdomain.Positions)]
	attrs := make(map[string]int, len(simdomain.RatingKeys))
	for _, k := range simdomain.RatingKeys {
		attrs[k] = 60
	}
	r := simdomain.Ratings{Season: 2025, Pos: pos, Attrs: attrs}
	r.Rederive()
	r.Pot = r.Ovr + 5
	return &simdb.Player{
		PID:         pid,
		TID:         tid,
		FirstName:   "Player",
		LastName:    string(rune('A' + order)),
		Born:        2000,
		RosterOrder: order,
		Ratings:     r,
		Injury:      simdomain.Healthy(),
	}
}

func (h *harness) schedule(t *testing.T, games ...simdb.ScheduleGame) {
	t.Helper()
	require.NoError(t, h.repo.InsertSchedule(context.Background(), nil, games))
}

func (h *harness) injurePlayer(t *testing.T, pid, games int) {
	t.Helper()
	ctx := context.Background()
	p, err := h.repo.GetPlayer(ctx, nil, pid)
	require.NoError(t, err)
	p.Injury = simdomain.Injury{Type: "Sprained Ankle", GamesRemaining: games}
	require.NoError(t, h.repo.UpsertPlayer(ctx, nil, p))
}

func intPtr(v int) *int { return &v }
