package simservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/Black-And-White-Club/league-sim/config"
	"github.com/Black-And-White-Club/league-sim/pkg/results"
	"github.com/Black-And-White-Club/league-sim/pkg/simmetrics"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SimService implements the Service interface.
type SimService struct {
	repo     simdb.Repository
	collab   Collaborators
	settings simdomain.Settings
	logger   *slog.Logger
	metrics  simmetrics.Metrics
	tracer   trace.Tracer
	db       *bun.DB
	rng      simdomain.Rand

	// runMu serializes runs inside this process; the Lock collaborator does it across processes.
	runMu sync.Mutex

	stateMu sync.RWMutex
	state   simdomain.SimState
}

// NewSimService creates a new SimService.
func NewSimService(
	repo simdb.Repository,
	collab Collaborators,
	settings simdomain.Settings,
	logger *slog.Logger,
	metrics simmetrics.Metrics,
	tracer trace.Tracer,
	db *bun.DB,
	rng simdomain.Rand,
) *SimService {
	return &SimService{
		repo:     repo,
		collab:   collab,
		settings: settings,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		db:       db,
		rng:      rng,
		state:    simdomain.SimStateIdle,
	}
}

// SettingsFromConfig copies the simulation knobs into the engine's settings.
func SettingsFromConfig(cfg config.SimulationConfig) simdomain.Settings {
	s := simdomain.Settings{
		NumGames:              cfg.NumGames,
		NumGamesPlayoffSeries: append([]int(nil), cfg.NumGamesPlayoffSeries...),
		PlayIn:                cfg.PlayIn,
		AllStarGame:           cfg.AllStarGame,
		TiesAllowed:           cfg.TiesAllowed,
		OTLAllowed:            cfg.OTLAllowed,
		StopOnInjury:          cfg.StopOnInjury,
		StopOnInjuryGames:     cfg.StopOnInjuryGames,
		TragicDeathRate:       cfg.TragicDeathRate,
		InjuryRate:            cfg.InjuryRate,
		Difficulty:            cfg.Difficulty,
		SalaryCap:             cfg.SalaryCap,
		DefaultSalaryCap:      cfg.DefaultSalaryCap,
		BudgetEnabled:         cfg.BudgetEnabled,
		MinRosterSize:         cfg.MinRosterSize,
		MaxRosterSize:         cfg.MaxRosterSize,
		GodMode:               cfg.GodMode,
		ForceWinAttempts:      cfg.ForceWinAttempts,
	}
	if len(cfg.PlayThroughInjuries) >= 2 {
		s.PlayThroughInjuries = [2]int{cfg.PlayThroughInjuries[0], cfg.PlayThroughInjuries[1]}
	}
	return s
}

// simRun carries the state of one Play call. It lives from lock acquisition to release.
type simRun struct {
	db   bun.IDB
	lc   *simdomain.LeagueContext
	live *int
	// numTeams is the league size used to scale injury durations.
	numTeams int
	// day is the DayKey of the schedule day being played, 0 on days without games.
	day int
	// events are published once the run's writes have committed.
	events []simdomain.Event
	// updates collects realtime update categories touched by the current day.
	updates map[string]bool
}

// countedToday reports whether p's injury already lost a game for the current schedule day,
// possibly in an earlier run that stopped partway through the day.
func (r *simRun) countedToday(p *simdb.Player) bool {
	return r.day != 0 && p.InjuryDay == r.day
}

func (r *simRun) touch(update string) {
	if r.updates == nil {
		r.updates = make(map[string]bool)
	}
	r.updates[update] = true
}

func (r *simRun) drainUpdates() []string {
	out := make([]string, 0, len(r.updates))
	for _, u := range []string{simdomain.UpdateGameSim, simdomain.UpdatePlayerMovement, simdomain.UpdateNewPhase} {
		if r.updates[u] {
			out = append(out, u)
		}
	}
	r.updates = nil
	return out
}

// emit stores the event when it should be saved and queues it for publishing.
func (s *SimService) emit(ctx context.Context, run *simRun, ev simdomain.Event) error {
	if ev.SaveToDB {
		if err := s.repo.InsertEvent(ctx, run.db, simdb.EventFromDomain(ev)); err != nil {
			return fmt.Errorf("failed to save %s event: %w", ev.Type, err)
		}
	}
	run.events = append(run.events, ev)
	return nil
}

func (s *SimService) publishEvents(ctx context.Context, run *simRun) {
	if s.collab.Events == nil {
		return
	}
	for _, ev := range run.events {
		s.collab.Events.LogEvent(ctx, ev)
	}
	run.events = nil
}

func (s *SimService) notify(ctx context.Context, update simdomain.RealtimeUpdate) {
	if s.collab.Notifier == nil {
		return
	}
	s.collab.Notifier.RealtimeUpdate(ctx, update)
}

func (s *SimService) setState(ctx context.Context, state simdomain.SimState) {
	s.stateMu.Lock()
	changed := s.state != state
	s.state = state
	s.stateMu.Unlock()
	if changed {
		s.notify(ctx, simdomain.RealtimeUpdate{Updates: []string{simdomain.UpdateStatus}, Status: state})
	}
}

// State returns the scheduler state.
func (s *SimService) State() simdomain.SimState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// loadLeagueContext reads the league row once per run.
func (s *SimService) loadLeagueContext(ctx context.Context, db bun.IDB) (*simdomain.LeagueContext, error) {
	state, err := s.repo.GetLeagueState(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to load league state: %w", err)
	}
	return &simdomain.LeagueContext{
		LeagueID: state.LeagueID,
		Season:   state.Season,
		Phase:    state.Phase,
		UserTIDs: append([]int(nil), state.UserTIDs...),
		Settings: s.settings,
	}, nil
}

// --- Generic Helpers ---

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *SimService,
	ctx context.Context,
	operationName string,
	source string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("source", source),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, operationName+" triggered",
		slog.String("operation", operationName),
		slog.String("source", source),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.String("operation", operationName),
				slog.Any("error", err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			slog.String("operation", operationName),
			slog.String("source", source),
			slog.Any("error", wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			slog.String("operation", operationName),
			slog.String("source", source),
			slog.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed successfully",
			slog.String("operation", operationName),
			slog.String("source", source),
		)
		s.metrics.RecordOperationSuccess(ctx, operationName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *SimService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
