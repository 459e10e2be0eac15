// Package simautoplay simulates days on a fixed cadence without anyone asking.
package simautoplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	"github.com/go-co-op/gocron/v2"
)

// Source is the PlayRequest source of auto-play runs.
const Source = "autoplay"

// AutoPlayer runs Play every interval. A tick that finds a run in progress or a pending stop
// is skipped.
type AutoPlayer struct {
	s           gocron.Scheduler
	svc         simservice.Service
	interval    time.Duration
	daysPerTick int
	logger      *slog.Logger
}

// NewAutoPlayer creates an AutoPlayer. Nothing runs until Start.
func NewAutoPlayer(svc simservice.Service, interval time.Duration, daysPerTick int, logger *slog.Logger) (*AutoPlayer, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("autoplay interval must be positive, got %s", interval)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &AutoPlayer{
		s:           s,
		svc:         svc,
		interval:    interval,
		daysPerTick: max(daysPerTick, 1),
		logger:      logger,
	}, nil
}

// Start registers the job and starts the scheduler.
func (a *AutoPlayer) Start(ctx context.Context) error {
	_, err := a.s.NewJob(
		gocron.DurationJob(a.interval),
		gocron.NewTask(a.Tick, context.WithoutCancel(ctx)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create autoplay job: %w", err)
	}
	a.s.Start()
	a.logger.InfoContext(ctx, "Autoplay started",
		slog.Duration("interval", a.interval),
		slog.Int("days_per_tick", a.daysPerTick),
	)
	return nil
}

// Stop shuts the scheduler down, waiting for a running tick.
func (a *AutoPlayer) Stop() error {
	return a.s.Shutdown()
}

// Tick plays one batch of days. While a stop is pending the tick does nothing, so only a
// run someone starts by hand clears it.
func (a *AutoPlayer) Tick(ctx context.Context) {
	status, err := a.svc.Status(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "Autoplay could not read status", slog.Any("error", err))
		return
	}
	if status.StopRequested {
		a.logger.DebugContext(ctx, "Autoplay paused, stop requested")
		return
	}

	result, err := a.svc.Play(ctx, simservice.PlayRequest{
		NumDays: a.daysPerTick,
		Start:   true,
		Source:  Source,
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "Autoplay run failed", slog.Any("error", err))
		return
	}
	if result.IsFailure() {
		failure := *result.Failure
		if errors.Is(failure, simservice.ErrSimulationLocked) {
			a.logger.DebugContext(ctx, "Autoplay skipped, run in progress")
			return
		}
		a.logger.WarnContext(ctx, "Autoplay run rejected", slog.Any("reason", failure))
		return
	}
	a.logger.InfoContext(ctx, "Autoplay run completed",
		slog.Int("days_played", result.Success.DaysPlayed),
		slog.Int("games_played", result.Success.GamesPlayed),
	)
}
