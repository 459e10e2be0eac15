package simdb

import (
	"fmt"
	"time"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// LeagueState is the single row describing where the league is.
type LeagueState struct {
	bun.BaseModel `bun:"table:league_state,alias:ls"`

	ID             int             `bun:"id,pk"`
	LeagueID       string          `bun:"league_id,notnull"`
	Season         int             `bun:"season,notnull"`
	StartingSeason int             `bun:"starting_season,notnull"`
	Phase          simdomain.Phase `bun:"phase,notnull"`
	UserTIDs       []int           `bun:"user_tids"`
	NextGID        int             `bun:"next_gid,notnull,default:0"`
	UpdatedAt      time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// leagueStateID is the primary key of the only league_state row.
const leagueStateID = 1

// Team is a franchise.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	TID    int     `bun:"tid,pk"`
	Cid    int     `bun:"cid,notnull,default:0"`
	Region string  `bun:"region,notnull"`
	Name   string  `bun:"name,notnull"`
	Abbrev string  `bun:"abbrev,notnull"`
	Pop    float64 `bun:"pop,notnull"`

	Budget simdomain.Budget `bun:"budget"`
	Cash   decimal.Decimal  `bun:"cash,type:numeric"`
	// Depth is the saved depth chart, pids per position.
	Depth    map[simdomain.Position][]int `bun:"depth"`
	Disabled bool                         `bun:"disabled,notnull,default:false"`
}

// FullName is the region plus nickname.
func (t *Team) FullName() string {
	return fmt.Sprintf("%s %s", t.Region, t.Name)
}

// TeamSeason is a team's record and ledgers for one season.
type TeamSeason struct {
	bun.BaseModel `bun:"table:team_seasons,alias:ts"`

	TID    int `bun:"tid,pk"`
	Season int `bun:"season,pk"`

	Won  int `bun:"won,notnull,default:0"`
	Lost int `bun:"lost,notnull,default:0"`
	Tied int `bun:"tied,notnull,default:0"`
	OTL  int `bun:"otl,notnull,default:0"`

	LastTen []simdomain.Outcome `bun:"last_ten"`
	Streak  int                 `bun:"streak,notnull,default:0"`

	Hype       float64 `bun:"hype,notnull"`
	Pop        float64 `bun:"pop,notnull"`
	GPHome     int     `bun:"gp_home,notnull,default:0"`
	Attendance int64   `bun:"att,notnull,default:0"`

	Revenues simdomain.Ledger `bun:"revenues"`
	Expenses simdomain.Ledger `bun:"expenses"`

	// PlayoffRoundsWon is -1 for teams that missed the playoffs.
	PlayoffRoundsWon int `bun:"playoff_rounds_won,notnull,default:-1"`
}

// WinPct counts ties as half a win.
func (ts *TeamSeason) WinPct() float64 {
	gp := ts.Won + ts.Lost + ts.Tied + ts.OTL
	if gp == 0 {
		return 0
	}
	return (float64(ts.Won) + 0.5*float64(ts.Tied)) / float64(gp)
}

// TeamStats is a team's raw stat totals for a season, split by playoffs.
type TeamStats struct {
	bun.BaseModel `bun:"table:team_stats,alias:tst"`

	TID      int                `bun:"tid,pk"`
	Season   int                `bun:"season,pk"`
	Playoffs bool               `bun:"playoffs,pk"`
	Stats    simdomain.StatLine `bun:"stats"`
}

// Contract is a signed deal or, for free agents, the current demand.
type Contract struct {
	Amount decimal.Decimal `json:"amount"`
	Exp    int             `json:"exp"`
}

// InjuryLogEntry records one past injury.
type InjuryLogEntry struct {
	Type    string `json:"type"`
	Season  int    `json:"season"`
	Games   int    `json:"games"`
	OvrDrop int    `json:"ovrDrop,omitempty"`
	PotDrop int    `json:"potDrop,omitempty"`
}

// Player is one person in the league, on a team or not.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	PID         int    `bun:"pid,pk"`
	TID         int    `bun:"tid,notnull"`
	FirstName   string `bun:"first_name,notnull"`
	LastName    string `bun:"last_name,notnull"`
	Born        int    `bun:"born,notnull"`
	RosterOrder int    `bun:"roster_order,notnull,default:0"`

	Ratings  simdomain.Ratings `bun:"ratings"`
	Injury   simdomain.Injury  `bun:"injury"`
	Injuries []InjuryLogEntry  `bun:"injuries"`
	// InjuryDay is the DayKey of the last schedule day counted against Injury.
	InjuryDay int `bun:"injury_day,notnull,default:0"`
	Value    float64           `bun:"value,notnull,default:0"`
	Contract Contract          `bun:"contract"`

	// DiedYear is set when the player was retired by a tragic death.
	DiedYear int `bun:"died_year,notnull,default:0"`
}

// Name is first and last name.
func (p *Player) Name() string {
	return p.FirstName + " " + p.LastName
}

// Age in the given season.
func (p *Player) Age(season int) int {
	return season - p.Born
}

// PlayerStats is one season-stats row. A new row is opened when a player changes team or
// crosses into the playoffs.
type PlayerStats struct {
	bun.BaseModel `bun:"table:player_stats,alias:pst"`

	ID       int64              `bun:"id,pk,autoincrement"`
	PID      int                `bun:"pid,notnull"`
	TID      int                `bun:"tid,notnull"`
	Season   int                `bun:"season,notnull"`
	Playoffs bool               `bun:"playoffs,notnull"`
	Stats    simdomain.StatLine `bun:"stats"`
}

// Matches reports whether the row is the current row for tid/season/playoffs.
func (ps *PlayerStats) Matches(tid, season int, playoffs bool) bool {
	return ps.TID == tid && ps.Season == season && ps.Playoffs == playoffs
}

// ScheduleGame is one unplayed game.
type ScheduleGame struct {
	bun.BaseModel `bun:"table:schedule,alias:s"`

	GID             int  `bun:"gid,pk"`
	Day             int  `bun:"day,notnull"`
	HomeTID         int  `bun:"home_tid,notnull"`
	AwayTID         int  `bun:"away_tid,notnull"`
	ForcedWinnerTID *int `bun:"forced_winner_tid"`
}

// Entry converts the row to its domain shape.
func (g *ScheduleGame) Entry() simdomain.ScheduleEntry {
	return simdomain.ScheduleEntry{
		GID:             g.GID,
		Day:             g.Day,
		HomeTID:         g.HomeTID,
		AwayTID:         g.AwayTID,
		ForcedWinnerTID: g.ForcedWinnerTID,
	}
}

// Game is a stored box score. It is never modified after insert.
type Game struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	GID        int    `bun:"gid,pk"`
	Season     int    `bun:"season,notnull"`
	Day        int    `bun:"day,notnull"`
	Playoffs   bool   `bun:"playoffs,notnull"`
	Kind       string `bun:"kind,notnull"`
	WonTID     int    `bun:"won_tid,notnull"`
	WonPts     int    `bun:"won_pts,notnull"`
	LostTID    int    `bun:"lost_tid,notnull"`
	LostPts    int    `bun:"lost_pts,notnull"`
	Tie        bool   `bun:"tie,notnull,default:false"`
	Overtimes  int    `bun:"overtimes,notnull,default:0"`
	ForceWin   int    `bun:"force_win,notnull,default:0"`
	Attendance int    `bun:"att,notnull,default:0"`

	Teams          []simdomain.TeamGameResult `bun:"teams"`
	ScoringSummary []simdomain.ScoringPlay    `bun:"scoring_summary"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// PlayoffSeries stores a season's bracket.
type PlayoffSeries struct {
	bun.BaseModel `bun:"table:playoff_series,alias:pls"`

	Season       int                     `bun:"season,pk"`
	CurrentRound int                     `bun:"current_round,notnull"`
	Bracket      simdomain.PlayoffSeries `bun:"bracket"`
}

// AllStars is the exhibition roster for a season. Teams holds one pid list per side.
type AllStars struct {
	bun.BaseModel `bun:"table:all_stars,alias:ast"`

	Season    int     `bun:"season,pk"`
	Teams     [][]int `bun:"teams"`
	Finalized bool    `bun:"finalized,notnull,default:false"`
}

// Event is a stored event log entry.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	Type       string    `bun:"type,notnull"`
	Text       string    `bun:"text,notnull"`
	Season     int       `bun:"season,notnull"`
	TIDs       []int     `bun:"tids"`
	PIDs       []int     `bun:"pids"`
	GID        *int      `bun:"gid"`
	Score      int       `bun:"score,notnull,default:0"`
	Persistent bool      `bun:"persistent,notnull,default:false"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// EventFromDomain converts a domain event for storage.
func EventFromDomain(ev simdomain.Event) *Event {
	return &Event{
		ID:         ev.ID,
		Type:       string(ev.Type),
		Text:       ev.Text,
		Season:     ev.Season,
		TIDs:       ev.TIDs,
		PIDs:       ev.PIDs,
		GID:        ev.GID,
		Score:      ev.Score,
		Persistent: ev.Persistent,
		CreatedAt:  ev.CreatedAt,
	}
}

// AllModels lists every table, in creation order.
func AllModels() []any {
	return []any{
		(*LeagueState)(nil),
		(*Team)(nil),
		(*TeamSeason)(nil),
		(*TeamStats)(nil),
		(*Player)(nil),
		(*PlayerStats)(nil),
		(*ScheduleGame)(nil),
		(*Game)(nil),
		(*PlayoffSeries)(nil),
		(*AllStars)(nil),
		(*Event)(nil),
	}
}
