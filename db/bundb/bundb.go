// Package bundb opens the league database for either supported backend.
package bundb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/league-sim/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

// Open connects to the configured backend and pings it.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*bun.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return OpenSQLite(ctx, cfg.Database.SQLitePath, logger)
	default:
		return OpenPostgres(ctx, cfg.Postgres.DSN, logger)
	}
}

// OpenPostgres connects with pgdriver.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.InfoContext(ctx, "Connected to postgres")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// OpenSQLite opens a file database. Use ":memory:" for a throwaway database; it is held
// on a single connection so every query sees the same tables.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*bun.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	logger.InfoContext(ctx, "Opened sqlite database", slog.String("path", path))
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}
