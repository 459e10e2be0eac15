package simqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	"github.com/riverqueue/river"
)

// lockedSnooze is how long a job waits when another run holds the simulation lock.
const lockedSnooze = 30 * time.Second

// PlayDaysArgs is a queued request to simulate days.
type PlayDaysArgs struct {
	NumDays    int    `json:"num_days"`
	Start      bool   `json:"start"`
	LiveGameID *int   `json:"live_game_id,omitempty"`
	Source     string `json:"source"`
	RunID      string `json:"run_id"`
}

// Kind returns the job kind for River.
func (PlayDaysArgs) Kind() string { return "sim_play_days" }

// InsertOpts returns the default insert options for play-days jobs.
func (PlayDaysArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       queueName,
		MaxAttempts: 3,
	}
}

// PlayDaysWorker runs queued play-days requests.
type PlayDaysWorker struct {
	river.WorkerDefaults[PlayDaysArgs]
	svc    simservice.Service
	logger *slog.Logger
}

// NewPlayDaysWorker creates a new PlayDaysWorker.
func NewPlayDaysWorker(svc simservice.Service, logger *slog.Logger) *PlayDaysWorker {
	return &PlayDaysWorker{
		svc:    svc,
		logger: logger,
	}
}

// Work executes the job.
func (w *PlayDaysWorker) Work(ctx context.Context, job *river.Job[PlayDaysArgs]) error {
	return w.play(ctx, job.Args)
}

// Timeout leaves room for long seasons.
func (w *PlayDaysWorker) Timeout(*river.Job[PlayDaysArgs]) time.Duration {
	return 30 * time.Minute
}

// play is the River-independent body of Work. A held lock snoozes the job; other soft
// failures cancel it since retrying cannot fix them.
func (w *PlayDaysWorker) play(ctx context.Context, args PlayDaysArgs) error {
	logger := w.logger.With(
		slog.String("run_id", args.RunID),
		slog.Int("num_days", args.NumDays),
		slog.String("source", args.Source),
	)
	logger.InfoContext(ctx, "Processing play days job")

	result, err := w.svc.Play(ctx, simservice.PlayRequest{
		NumDays:    args.NumDays,
		Start:      args.Start,
		LiveGameID: args.LiveGameID,
		Source:     args.Source,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Play days job failed", slog.Any("error", err))
		return fmt.Errorf("play days: %w", err)
	}
	if result.IsFailure() {
		failure := *result.Failure
		if errors.Is(failure, simservice.ErrSimulationLocked) {
			logger.InfoContext(ctx, "Simulation locked, snoozing job")
			return river.JobSnooze(lockedSnooze)
		}
		logger.WarnContext(ctx, "Play days job rejected", slog.Any("reason", failure))
		return river.JobCancel(failure)
	}

	summary := result.Success
	logger.InfoContext(ctx, "Play days job completed",
		slog.Int("days_played", summary.DaysPlayed),
		slog.Int("games_played", summary.GamesPlayed),
		slog.Bool("stopped", summary.Stopped),
	)
	return nil
}
