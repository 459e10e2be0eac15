package simdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// InsertGame stores a box score.
func (r *Impl) InsertGame(ctx context.Context, db bun.IDB, game *Game) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(game).Exec(ctx); err != nil {
		return fmt.Errorf("simdb.InsertGame: %w", err)
	}
	return nil
}

// GetGame retrieves a box score.
func (r *Impl) GetGame(ctx context.Context, db bun.IDB, gid int) (*Game, error) {
	db = r.resolveDB(db)
	game := new(Game)
	err := db.NewSelect().
		Model(game).
		Where("gid = ?", gid).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.GetGame(%d): %w", gid, notFound(err, ErrNotFound))
	}
	return game, nil
}

// GetPlayoffSeries retrieves a season's bracket.
func (r *Impl) GetPlayoffSeries(ctx context.Context, db bun.IDB, season int) (*PlayoffSeries, error) {
	db = r.resolveDB(db)
	ps := new(PlayoffSeries)
	err := db.NewSelect().
		Model(ps).
		Where("season = ?", season).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.GetPlayoffSeries(%d): %w", season, notFound(err, ErrNotFound))
	}
	return ps, nil
}

// UpsertPlayoffSeries creates or updates a bracket.
func (r *Impl) UpsertPlayoffSeries(ctx context.Context, db bun.IDB, ps *PlayoffSeries) error {
	db = r.resolveDB(db)
	ps.CurrentRound = ps.Bracket.CurrentRound
	_, err := db.NewInsert().
		Model(ps).
		On("CONFLICT (season) DO UPDATE").
		Set("current_round = EXCLUDED.current_round").
		Set("bracket = EXCLUDED.bracket").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("simdb.UpsertPlayoffSeries: %w", err)
	}
	return nil
}

// GetAllStars retrieves the exhibition rosters for a season.
func (r *Impl) GetAllStars(ctx context.Context, db bun.IDB, season int) (*AllStars, error) {
	db = r.resolveDB(db)
	as := new(AllStars)
	err := db.NewSelect().
		Model(as).
		Where("season = ?", season).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.GetAllStars(%d): %w", season, notFound(err, ErrNotFound))
	}
	return as, nil
}

// UpsertAllStars creates or updates the exhibition rosters.
func (r *Impl) UpsertAllStars(ctx context.Context, db bun.IDB, as *AllStars) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(as).
		On("CONFLICT (season) DO UPDATE").
		Set("teams = EXCLUDED.teams").
		Set("finalized = EXCLUDED.finalized").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("simdb.UpsertAllStars: %w", err)
	}
	return nil
}

// InsertEvent stores an event log entry.
func (r *Impl) InsertEvent(ctx context.Context, db bun.IDB, ev *Event) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(ev).Exec(ctx); err != nil {
		return fmt.Errorf("simdb.InsertEvent: %w", err)
	}
	return nil
}

// ListEvents returns the newest events of a season.
func (r *Impl) ListEvents(ctx context.Context, db bun.IDB, season, limit int) ([]Event, error) {
	db = r.resolveDB(db)
	var events []Event
	err := db.NewSelect().
		Model(&events).
		Where("season = ?", season).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.ListEvents: %w", err)
	}
	return events, nil
}
