package simdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// GetSchedule returns every unplayed game ordered by day.
func (r *Impl) GetSchedule(ctx context.Context, db bun.IDB) ([]ScheduleGame, error) {
	db = r.resolveDB(db)
	var games []ScheduleGame
	err := db.NewSelect().
		Model(&games).
		Order("day ASC", "gid ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.GetSchedule: %w", err)
	}
	return games, nil
}

// GetTodaySchedule returns the games of the earliest remaining day.
func (r *Impl) GetTodaySchedule(ctx context.Context, db bun.IDB) ([]ScheduleGame, error) {
	db = r.resolveDB(db)
	firstDay := db.NewSelect().
		Model((*ScheduleGame)(nil)).
		ColumnExpr("MIN(day)")
	var games []ScheduleGame
	err := db.NewSelect().
		Model(&games).
		Where("day = (?)", firstDay).
		Order("gid ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("simdb.GetTodaySchedule: %w", err)
	}
	return games, nil
}

// InsertSchedule adds games to the schedule.
func (r *Impl) InsertSchedule(ctx context.Context, db bun.IDB, games []ScheduleGame) error {
	if len(games) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(&games).Exec(ctx); err != nil {
		return fmt.Errorf("simdb.InsertSchedule: %w", err)
	}
	return nil
}

// DeleteScheduleGame removes a played game.
func (r *Impl) DeleteScheduleGame(ctx context.Context, db bun.IDB, gid int) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*ScheduleGame)(nil)).
		Where("gid = ?", gid).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("simdb.DeleteScheduleGame: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("simdb.DeleteScheduleGame(%d): %w", gid, err)
	}
	return nil
}

// SetForcedWinner sets or clears the forced winner of a scheduled game.
func (r *Impl) SetForcedWinner(ctx context.Context, db bun.IDB, gid int, tid *int) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*ScheduleGame)(nil)).
		Set("forced_winner_tid = ?", tid).
		Where("gid = ?", gid).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("simdb.SetForcedWinner: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("simdb.SetForcedWinner(%d): %w", gid, ErrNotFound)
	}
	return nil
}
