package simdb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository defines the contract for league persistence. Every method accepts an
// optional bun.IDB so callers can run it inside their transaction; nil uses the
// repository's own connection.
type Repository interface {
	// --- League ---

	// GetLeagueState returns the league_state row.
	GetLeagueState(ctx context.Context, db bun.IDB) (*LeagueState, error)
	// SaveLeagueState inserts or replaces the league_state row.
	SaveLeagueState(ctx context.Context, db bun.IDB, state *LeagueState) error
	// AllocateGameIDs reserves n consecutive game ids and returns the first.
	AllocateGameIDs(ctx context.Context, db bun.IDB, n int) (int, error)

	// --- Teams ---

	GetTeam(ctx context.Context, db bun.IDB, tid int) (*Team, error)
	ListTeams(ctx context.Context, db bun.IDB) ([]Team, error)
	UpsertTeam(ctx context.Context, db bun.IDB, team *Team) error

	GetTeamSeason(ctx context.Context, db bun.IDB, tid, season int) (*TeamSeason, error)
	ListTeamSeasons(ctx context.Context, db bun.IDB, season int) ([]TeamSeason, error)
	UpsertTeamSeason(ctx context.Context, db bun.IDB, ts *TeamSeason) error

	// GetTeamStats returns ErrNotFound when the team has no row yet.
	GetTeamStats(ctx context.Context, db bun.IDB, tid, season int, playoffs bool) (*TeamStats, error)
	UpsertTeamStats(ctx context.Context, db bun.IDB, ts *TeamStats) error

	// --- Players ---

	GetPlayer(ctx context.Context, db bun.IDB, pid int) (*Player, error)
	// ListPlayersByTeam returns players in roster order. Use -1 for free agents.
	ListPlayersByTeam(ctx context.Context, db bun.IDB, tid int) ([]Player, error)
	// ListRosteredPlayers returns every player currently on a team.
	ListRosteredPlayers(ctx context.Context, db bun.IDB) ([]Player, error)
	CountPlayersByTeam(ctx context.Context, db bun.IDB, tid int) (int, error)
	UpsertPlayer(ctx context.Context, db bun.IDB, p *Player) error

	// GetLatestPlayerStats returns the player's most recent stats row.
	GetLatestPlayerStats(ctx context.Context, db bun.IDB, pid int) (*PlayerStats, error)
	// SavePlayerStats inserts the row when ID is zero, updates it otherwise.
	SavePlayerStats(ctx context.Context, db bun.IDB, ps *PlayerStats) error
	ListPlayerStats(ctx context.Context, db bun.IDB, season int, playoffs bool) ([]PlayerStats, error)

	// --- Schedule ---

	// GetSchedule returns every unplayed game ordered by day.
	GetSchedule(ctx context.Context, db bun.IDB) ([]ScheduleGame, error)
	// GetTodaySchedule returns the games of the earliest remaining day.
	GetTodaySchedule(ctx context.Context, db bun.IDB) ([]ScheduleGame, error)
	InsertSchedule(ctx context.Context, db bun.IDB, games []ScheduleGame) error
	DeleteScheduleGame(ctx context.Context, db bun.IDB, gid int) error
	SetForcedWinner(ctx context.Context, db bun.IDB, gid int, tid *int) error

	// --- Games ---

	InsertGame(ctx context.Context, db bun.IDB, game *Game) error
	GetGame(ctx context.Context, db bun.IDB, gid int) (*Game, error)

	// --- Playoffs ---

	GetPlayoffSeries(ctx context.Context, db bun.IDB, season int) (*PlayoffSeries, error)
	UpsertPlayoffSeries(ctx context.Context, db bun.IDB, ps *PlayoffSeries) error

	GetAllStars(ctx context.Context, db bun.IDB, season int) (*AllStars, error)
	UpsertAllStars(ctx context.Context, db bun.IDB, as *AllStars) error

	// --- Events ---

	InsertEvent(ctx context.Context, db bun.IDB, ev *Event) error
	ListEvents(ctx context.Context, db bun.IDB, season, limit int) ([]Event, error)
}
