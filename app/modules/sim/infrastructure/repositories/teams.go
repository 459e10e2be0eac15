package simdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// GetTeam retrieves a team by id.
func (r *Impl) GetTeam(ctx context.Context, db bun.IDB, tid int) (*Team, error) {
	db = r.resolveDB(db)
	team := new(Team)
	err := db.NewSelect().
		Model(team).
		Where("tid = ?", tid).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.GetTeam(%d): %w", tid, notFound(err, ErrTeamNotFound))
	}
	return team, nil
}

// ListTeams returns every active team ordered by tid.
func (r *Impl) ListTeams(ctx context.Context, db bun.IDB) ([]Team, error) {
	db = r.resolveDB(db)
	var teams []Team
	err := db.NewSelect().
		Model(&teams).
		Where("disabled = ?", false).
		Order("tid ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.ListTeams: %w", err)
	}
	return teams, nil
}

// UpsertTeam creates or updates a team.
func (r *Impl) UpsertTeam(ctx context.Context, db bun.IDB, team *Team) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(team).
		On("CONFLICT (tid) DO UPDATE").
		Set("cid = EXCLUDED.cid").
		Set("region = EXCLUDED.region").
		Set("name = EXCLUDED.name").
		Set("abbrev = EXCLUDED.abbrev").
		Set("pop = EXCLUDED.pop").
		Set("budget = EXCLUDED.budget").
		Set("cash = EXCLUDED.cash").
		Set("depth = EXCLUDED.depth").
		Set("disabled = EXCLUDED.disabled").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("simdb.UpsertTeam: %w", err)
	}
	return nil
}

// GetTeamSeason retrieves a team's record for a season.
func (r *Impl) GetTeamSeason(ctx context.Context, db bun.IDB, tid, season int) (*TeamSeason, error) {
	db = r.resolveDB(db)
	ts := new(TeamSeason)
	err := db.NewSelect().
		Model(ts).
		Where("tid = ?", tid).
		Where("season = ?", season).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.GetTeamSeason(%d, %d): %w", tid, season, notFound(err, ErrTeamSeasonNotFound))
	}
	return ts, nil
}

// ListTeamSeasons returns every team's record for a season.
func (r *Impl) ListTeamSeasons(ctx context.Context, db bun.IDB, season int) ([]TeamSeason, error) {
	db = r.resolveDB(db)
	var rows []TeamSeason
	err := db.NewSelect().
		Model(&rows).
		Where("season = ?", season).
		Order("tid ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.ListTeamSeasons: %w", err)
	}
	return rows, nil
}

// UpsertTeamSeason creates or updates a team season.
func (r *Impl) UpsertTeamSeason(ctx context.Context, db bun.IDB, ts *TeamSeason) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(ts).
		On("CONFLICT (tid, season) DO UPDATE").
		Set("won = EXCLUDED.won").
		Set("lost = EXCLUDED.lost").
		Set("tied = EXCLUDED.tied").
		Set("otl = EXCLUDED.otl").
		Set("last_ten = EXCLUDED.last_ten").
		Set("streak = EXCLUDED.streak").
		Set("hype = EXCLUDED.hype").
		Set("pop = EXCLUDED.pop").
		Set("gp_home = EXCLUDED.gp_home").
		Set("att = EXCLUDED.att").
		Set("revenues = EXCLUDED.revenues").
		Set("expenses = EXCLUDED.expenses").
		Set("playoff_rounds_won = EXCLUDED.playoff_rounds_won").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("simdb.UpsertTeamSeason: %w", err)
	}
	return nil
}

// GetTeamStats retrieves a team's stat totals.
func (r *Impl) GetTeamStats(ctx context.Context, db bun.IDB, tid, season int, playoffs bool) (*TeamStats, error) {
	db = r.resolveDB(db)
	ts := new(TeamStats)
	err := db.NewSelect().
		Model(ts).
		Where("tid = ?", tid).
		Where("season = ?", season).
		Where("playoffs = ?", playoffs).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.GetTeamStats: %w", notFound(err, ErrNotFound))
	}
	return ts, nil
}

// UpsertTeamStats creates or updates a team's stat totals.
func (r *Impl) UpsertTeamStats(ctx context.Context, db bun.IDB, ts *TeamStats) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(ts).
		On("CONFLICT (tid, season, playoffs) DO UPDATE").
		Set("stats = EXCLUDED.stats").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("simdb.UpsertTeamStats: %w", err)
	}
	return nil
}
