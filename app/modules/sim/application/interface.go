package simservice

import (
	"context"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	"github.com/Black-And-White-Club/league-sim/pkg/results"
	"github.com/uptrace/bun"
)

// Service runs simulated game days and exposes the scheduler's controls.
type Service interface {
	// Play simulates up to req.NumDays days. Soft failures (roster violations, a run already in
	// progress) come back as a Failure result; fatal ones as an error.
	Play(ctx context.Context, req PlayRequest) (PlayResult, error)
	// Stop asks a running Play to halt after the current day.
	Stop(ctx context.Context) error
	// Status reports the scheduler state and where the league is.
	Status(ctx context.Context) (StatusReport, error)
	// SetForcedWinner marks a scheduled game with the team that must win it. A nil tid clears it.
	SetForcedWinner(ctx context.Context, gid int, tid *int) (ForcedWinnerResult, error)
}

// GameGenerator produces a box score for two prepared teams. Index 0 is home. It must not
// mutate anything outside the teams it is handed.
type GameGenerator interface {
	Simulate(ctx context.Context, gid int, teams [2]*simdomain.TeamSimState, opts simdomain.SimOptions) (*simdomain.GameResult, error)
}

// PhaseManager moves the league between phases. It is the only collaborator allowed to
// change lc.Phase.
type PhaseManager interface {
	NewPhase(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext, phase simdomain.Phase, conds simdomain.Conditions, isLiveGame bool) error
}

// ScheduleGenerator writes the next playoff day to the schedule. It reports over=true when
// the playoffs have concluded and nothing was scheduled.
type ScheduleGenerator interface {
	NewSchedulePlayoffsDay(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) (over bool, err error)
}

// DraftAssembler picks the exhibition rosters.
type DraftAssembler interface {
	AssembleAllStars(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error
}

// FreeAgency runs the daily free-agent market.
type FreeAgency interface {
	DecreaseDemands(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error
	AutoSign(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error
}

// TradeBroker proposes trades between computer-controlled teams.
type TradeBroker interface {
	BetweenAITeams(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error
}

// Lock guards against overlapping runs and carries the stop flag.
type Lock interface {
	// TryStartGames sets gameSim unless another run holds it, as one atomic step.
	TryStartGames(ctx context.Context) (bool, error)
	Set(ctx context.Context, flag string, value bool) error
	Get(ctx context.Context, flag string) (bool, error)
}

// EventLog publishes league events. It never fails the caller.
type EventLog interface {
	LogEvent(ctx context.Context, ev simdomain.Event)
}

// Notifier pushes realtime updates to observers.
type Notifier interface {
	RealtimeUpdate(ctx context.Context, update simdomain.RealtimeUpdate)
}

// Collaborators bundles everything the engine calls out to.
type Collaborators struct {
	Generator  GameGenerator
	Phases     PhaseManager
	Playoffs   ScheduleGenerator
	AllStars   DraftAssembler
	FreeAgency FreeAgency
	Trades     TradeBroker
	Lock       Lock
	Events     EventLog
	Notifier   Notifier
}

// PlayRequest is one call to Play.
type PlayRequest struct {
	NumDays int
	// Start acquires the simulation lock and validates rosters before the first day.
	Start bool
	// LiveGameID asks for play-by-play of one game on the realtime channel.
	LiveGameID *int
	// Source names the caller for logs and phase conditions.
	Source string
}

// PlaySummary describes what a run did.
type PlaySummary struct {
	DaysPlayed   int              `json:"daysPlayed"`
	GamesPlayed  int              `json:"gamesPlayed"`
	Stopped      bool             `json:"stopped"`
	PlayoffsOver bool             `json:"playoffsOver"`
	NewPhase     *simdomain.Phase `json:"newPhase,omitempty"`
}

// PlayResult is the outcome of Play.
type PlayResult = results.OperationResult[PlaySummary, error]

// StatusReport is returned by Status.
type StatusReport struct {
	State          simdomain.SimState `json:"state"`
	Season         int                `json:"season"`
	Phase          string             `json:"phase"`
	GamesScheduled int                `json:"gamesScheduled"`
	StopRequested  bool               `json:"stopRequested"`
}

// ForcedWinner echoes an accepted forced-winner change.
type ForcedWinner struct {
	GID int  `json:"gid"`
	TID *int `json:"tid"`
}

// ForcedWinnerResult is the outcome of SetForcedWinner.
type ForcedWinnerResult = results.OperationResult[ForcedWinner, error]
