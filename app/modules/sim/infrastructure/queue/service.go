// Package simqueue runs play-days requests as background jobs, through River on Postgres or
// in process for single-file leagues.
package simqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	"github.com/Black-And-White-Club/league-sim/pkg/simmetrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

const queueName = "sim"

// Dispatcher accepts play-days requests and runs them in the background.
type Dispatcher interface {
	// EnqueuePlayDays returns the run id the job will log under.
	EnqueuePlayDays(ctx context.Context, req simservice.PlayRequest) (string, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Ensure implementations satisfy Dispatcher
var (
	_ Dispatcher = (*Service)(nil)
	_ Dispatcher = (*InlineDispatcher)(nil)
)

// Service dispatches play-days jobs through River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics simmetrics.Metrics
}

// NewService creates a River-backed queue on dsn. Only one job runs at a time since runs
// are serialized by the simulation lock anyway.
func NewService(ctx context.Context, dsn string, svc simservice.Service, logger *slog.Logger, metrics simmetrics.Metrics) (*Service, error) {
	ctxLogger := logger.With(
		slog.String("operation", "new_sim_queue_service"),
		slog.String("component", "river_queue"),
	)
	ctxLogger.InfoContext(ctx, "Initializing sim queue service")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewPlayDaysWorker(svc, ctxLogger))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			queueName: {MaxWorkers: 1},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &Service{
		client:  client,
		pool:    pool,
		logger:  ctxLogger,
		metrics: metrics,
	}, nil
}

// Migrate brings River's own tables up to date.
func Migrate(ctx context.Context, dsn string, logger *slog.Logger) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("failed to migrate River tables: %w", err)
	}
	for _, v := range res.Versions {
		logger.InfoContext(ctx, "Applied River migration", slog.Int("version", v.Version))
	}
	return nil
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Sim queue service started")
	return nil
}

// Stop waits for the running job, then closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Sim queue service stopped")
	return nil
}

// EnqueuePlayDays inserts a play-days job.
func (s *Service) EnqueuePlayDays(ctx context.Context, req simservice.PlayRequest) (string, error) {
	const op = "enqueue_play_days"
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, op)

	runID := uuid.NewString()
	res, err := s.client.Insert(ctx, PlayDaysArgs{
		NumDays:    req.NumDays,
		Start:      req.Start,
		LiveGameID: req.LiveGameID,
		Source:     req.Source,
		RunID:      runID,
	}, nil)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, op)
		return "", fmt.Errorf("failed to insert play days job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, op)
	s.metrics.RecordOperationDuration(ctx, op, time.Since(start))
	s.logger.InfoContext(ctx, "Play days job enqueued",
		slog.Int64("job_id", res.Job.ID),
		slog.String("run_id", runID),
		slog.Int("num_days", req.NumDays),
	)
	return runID, nil
}
