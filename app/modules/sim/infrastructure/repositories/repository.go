package simdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new league repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// notFound maps sql.ErrNoRows to sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

func checkAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// GetLeagueState returns the league_state row.
func (r *Impl) GetLeagueState(ctx context.Context, db bun.IDB) (*LeagueState, error) {
	db = r.resolveDB(db)
	state := new(LeagueState)
	err := db.NewSelect().
		Model(state).
		Where("id = ?", leagueStateID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.GetLeagueState: %w", notFound(err, ErrNotFound))
	}
	return state, nil
}

// SaveLeagueState inserts or replaces the league_state row.
func (r *Impl) SaveLeagueState(ctx context.Context, db bun.IDB, state *LeagueState) error {
	db = r.resolveDB(db)
	state.ID = leagueStateID
	state.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(state).
		On("CONFLICT (id) DO UPDATE").
		Set("league_id = EXCLUDED.league_id").
		Set("season = EXCLUDED.season").
		Set("starting_season = EXCLUDED.starting_season").
		Set("phase = EXCLUDED.phase").
		Set("user_tids = EXCLUDED.user_tids").
		Set("next_gid = EXCLUDED.next_gid").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("simdb.SaveLeagueState: %w", err)
	}
	return nil
}

// AllocateGameIDs reserves n consecutive game ids and returns the first.
func (r *Impl) AllocateGameIDs(ctx context.Context, db bun.IDB, n int) (int, error) {
	db = r.resolveDB(db)
	state, err := r.GetLeagueState(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("simdb.AllocateGameIDs: %w", err)
	}
	first := state.NextGID
	res, err := db.NewUpdate().
		Model((*LeagueState)(nil)).
		Set("next_gid = ?", first+n).
		Where("id = ?", leagueStateID).
		Where("next_gid = ?", first).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("simdb.AllocateGameIDs: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return 0, fmt.Errorf("simdb.AllocateGameIDs: concurrent allocation: %w", err)
	}
	return first, nil
}
