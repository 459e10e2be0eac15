package simdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// GetPlayer retrieves a player by id.
func (r *Impl) GetPlayer(ctx context.Context, db bun.IDB, pid int) (*Player, error) {
	db = r.resolveDB(db)
	p := new(Player)
	err := db.NewSelect().
		Model(p).
		Where("pid = ?", pid).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.GetPlayer(%d): %w", pid, notFound(err, ErrNotFound))
	}
	return p, nil
}

// ListPlayersByTeam returns a team's players in roster order.
func (r *Impl) ListPlayersByTeam(ctx context.Context, db bun.IDB, tid int) ([]Player, error) {
	db = r.resolveDB(db)
	var players []Player
	err := db.NewSelect().
		Model(&players).
		Where("tid = ?", tid).
		Order("roster_order ASC", "pid ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.ListPlayersByTeam: %w", err)
	}
	return players, nil
}

// ListRosteredPlayers returns every player currently on a team.
func (r *Impl) ListRosteredPlayers(ctx context.Context, db bun.IDB) ([]Player, error) {
	db = r.resolveDB(db)
	var players []Player
	err := db.NewSelect().
		Model(&players).
		Where("tid >= 0").
		Order("pid ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.ListRosteredPlayers: %w", err)
	}
	return players, nil
}

// CountPlayersByTeam counts a team's roster.
func (r *Impl) CountPlayersByTeam(ctx context.Context, db bun.IDB, tid int) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().
		Model((*Player)(nil)).
		Where("tid = ?", tid).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("simdb.CountPlayersByTeam: %w", err)
	}
	return n, nil
}

// UpsertPlayer creates or updates a player.
func (r *Impl) UpsertPlayer(ctx context.Context, db bun.IDB, p *Player) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(p).
		On("CONFLICT (pid) DO UPDATE").
		Set("tid = EXCLUDED.tid").
		Set("first_name = EXCLUDED.first_name").
		Set("last_name = EXCLUDED.last_name").
		Set("born = EXCLUDED.born").
		Set("roster_order = EXCLUDED.roster_order").
		Set("ratings = EXCLUDED.ratings").
		Set("injury = EXCLUDED.injury").
		Set("injuries = EXCLUDED.injuries").
		Set("injury_day = EXCLUDED.injury_day").
		Set("value = EXCLUDED.value").
		Set("contract = EXCLUDED.contract").
		Set("died_year = EXCLUDED.died_year").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("simdb.UpsertPlayer: %w", err)
	}
	return nil
}

// GetLatestPlayerStats returns the player's most recent stats row.
func (r *Impl) GetLatestPlayerStats(ctx context.Context, db bun.IDB, pid int) (*PlayerStats, error) {
	db = r.resolveDB(db)
	ps := new(PlayerStats)
	err := db.NewSelect().
		Model(ps).
		Where("pid = ?", pid).
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.GetLatestPlayerStats: %w", notFound(err, ErrNotFound))
	}
	return ps, nil
}

// SavePlayerStats inserts a new row or updates an existing one.
func (r *Impl) SavePlayerStats(ctx context.Context, db bun.IDB, ps *PlayerStats) error {
	db = r.resolveDB(db)
	if ps.ID == 0 {
		if _, err := db.NewInsert().Model(ps).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("simdb.SavePlayerStats: insert: %w", err)
		}
		return nil
	}
	res, err := db.NewUpdate().
		Model(ps).
		Column("stats").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("simdb.SavePlayerStats: update: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("simdb.SavePlayerStats: %w", err)
	}
	return nil
}

// ListPlayerStats returns every stats row for a season.
func (r *Impl) ListPlayerStats(ctx context.Context, db bun.IDB, season int, playoffs bool) ([]PlayerStats, error) {
	db = r.resolveDB(db)
	var rows []PlayerStats
	err := db.NewSelect().
		Model(&rows).
		Where("season = ?", season).
		Where("playoffs = ?", playoffs).
		Order("pid ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.ListPlayerStats: %w", err)
	}
	return rows, nil
}
