package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	simmigrations "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/league-sim/db/bundb"
	"github.com/Black-And-White-Club/league-sim/integration_tests/containers"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
)

// TestEnvironment holds the containers shared by one integration test package.
type TestEnvironment struct {
	Ctx           context.Context
	PgContainer   *postgres.PostgresContainer
	NatsContainer testcontainers.Container
	DB            *bun.DB
	DSN           string
	NatsURL       string
	Logger        *slog.Logger
}

// NewTestEnvironment starts Postgres and NATS and creates the league tables.
func NewTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	env := &TestEnvironment{
		Ctx:    ctx,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer, env.DSN = pgContainer, dsn

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer, env.NatsURL = natsContainer, natsURL

	db, err := bundb.OpenPostgres(ctx, dsn, env.Logger)
	if err != nil {
		env.Cleanup()
		return nil, err
	}
	env.DB = db

	if err := simmigrations.CreateSchema(ctx, db); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return env, nil
}

// ResetDB empties every league table between tests.
func (env *TestEnvironment) ResetDB() error {
	_, err := env.DB.ExecContext(env.Ctx, `TRUNCATE league_state, teams, team_seasons, team_stats, players,
		player_stats, schedule, games, playoff_series, all_stars, events`)
	return err
}

// Cleanup closes connections and terminates containers.
func (env *TestEnvironment) Cleanup() {
	if env.DB != nil {
		_ = env.DB.Close()
	}
	if env.NatsContainer != nil {
		_ = env.NatsContainer.Terminate(env.Ctx)
	}
	if env.PgContainer != nil {
		_ = env.PgContainer.Terminate(env.Ctx)
	}
}
