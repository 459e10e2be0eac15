package simmigrations

import (
	"context"
	"fmt"
	"slices"

	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating league tables...")
		if err := CreateSchema(ctx, db); err != nil {
			return err
		}
		fmt.Println("League tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping league tables...")
		models := slices.Clone(simdb.AllModels())
		slices.Reverse(models)
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table: %w", err)
			}
		}
		fmt.Println("League tables dropped successfully!")
		return nil
	})
}

// CreateSchema creates every league table and its indexes. It is idempotent and works on
// both postgres and sqlite.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range simdb.AllModels() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		model  any
		name   string
		column string
	}{
		{(*simdb.PlayerStats)(nil), "idx_player_stats_pid", "pid"},
		{(*simdb.PlayerStats)(nil), "idx_player_stats_season", "season"},
		{(*simdb.Player)(nil), "idx_players_tid", "tid"},
		{(*simdb.ScheduleGame)(nil), "idx_schedule_day", "day"},
		{(*simdb.Game)(nil), "idx_games_season", "season"},
		{(*simdb.Event)(nil), "idx_events_season", "season"},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}
