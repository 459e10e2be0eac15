package simservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/Black-And-White-Club/league-sim/pkg/results"
	"github.com/uptrace/bun"
)

// dayOutcome is what one simulated day did.
type dayOutcome struct {
	games        int
	terminal     bool
	interrupted  bool
	playoffsOver bool
	newPhase     *simdomain.Phase
}

// Play simulates up to req.NumDays days inside one transaction; the commit at the end of the
// run is its only flush.
func (s *SimService) Play(ctx context.Context, req PlayRequest) (PlayResult, error) {
	source := req.Source
	if source == "" {
		source = "api"
	}
	return withTelemetry(s, ctx, "Play", source, func(ctx context.Context) (PlayResult, error) {
		if !s.runMu.TryLock() {
			return results.FailureResult[PlaySummary, error](ErrSimulationLocked), nil
		}
		defer s.runMu.Unlock()

		if req.Start {
			ok, err := s.collab.Lock.TryStartGames(ctx)
			if err != nil {
				return PlayResult{}, fmt.Errorf("failed to acquire simulation lock: %w", err)
			}
			if !ok {
				return results.FailureResult[PlaySummary, error](ErrSimulationLocked), nil
			}
			if err := s.collab.Lock.Set(ctx, simdomain.FlagStopGameSim, false); err != nil {
				return PlayResult{}, fmt.Errorf("failed to reset stop flag: %w", err)
			}
		}
		defer s.release(ctx)

		run := &simRun{live: req.LiveGameID}
		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (PlayResult, error) {
			run.db = db
			return s.playDays(ctx, run, req)
		})
		if err != nil {
			return PlayResult{}, err
		}
		s.publishEvents(ctx, run)
		return result, nil
	})
}

// release drops the simulation lock and returns to Idle. It runs even when ctx was canceled.
func (s *SimService) release(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	if err := s.collab.Lock.Set(ctx, simdomain.FlagGameSim, false); err != nil {
		s.logger.ErrorContext(ctx, "Failed to release simulation lock", slog.Any("error", err))
	}
	s.setState(ctx, simdomain.SimStateIdle)
}

func (s *SimService) playDays(ctx context.Context, run *simRun, req PlayRequest) (PlayResult, error) {
	lc, err := s.loadLeagueContext(ctx, run.db)
	if err != nil {
		return PlayResult{}, err
	}
	run.lc = lc

	if req.Start {
		violation, err := s.checkRosterSizes(ctx, run)
		if err != nil {
			return PlayResult{}, err
		}
		if violation != "" {
			ev := simdomain.NewEvent(simdomain.EventRosterError, lc.Season, violation)
			ev.TIDs = lc.UserTIDs
			ev.SaveToDB = false
			ev.ShowNotification = true
			ev.Persistent = true
			if s.collab.Events != nil {
				s.collab.Events.LogEvent(ctx, ev)
			}
			s.notify(ctx, simdomain.RealtimeUpdate{Updates: []string{simdomain.UpdateStatus}, Status: simdomain.SimStateIdle})
			return results.FailureResult[PlaySummary, error](fmt.Errorf("%w: %s", ErrRosterSize, violation)), nil
		}
	}

	var summary PlaySummary
	for numDays := req.NumDays; numDays > 0; numDays-- {
		stop, err := s.collab.Lock.Get(ctx, simdomain.FlagStopGameSim)
		if err != nil {
			return PlayResult{}, fmt.Errorf("failed to read stop flag: %w", err)
		}
		if stop {
			summary.Stopped = true
			break
		}

		s.setState(ctx, simdomain.SimStatePlayingDay)
		start := time.Now()
		day, err := s.playDay(ctx, run)
		if err != nil {
			return PlayResult{}, err
		}
		s.metrics.RecordDaySimulated(ctx, day.games, time.Since(start))

		summary.GamesPlayed += day.games
		if day.games > 0 {
			summary.DaysPlayed++
		}
		if day.newPhase != nil {
			summary.NewPhase = day.newPhase
		}
		summary.PlayoffsOver = summary.PlayoffsOver || day.playoffsOver

		if updates := run.drainUpdates(); len(updates) > 0 {
			s.notify(ctx, simdomain.RealtimeUpdate{Updates: updates, Status: simdomain.SimStatePlayingDay})
		}

		if day.interrupted {
			summary.Stopped = true
			break
		}
		if day.terminal {
			break
		}
	}

	s.setState(ctx, simdomain.SimStateSaving)
	s.logger.InfoContext(ctx, "Simulation run finished",
		slog.Int("days", summary.DaysPlayed),
		slog.Int("games", summary.GamesPlayed),
		slog.Bool("stopped", summary.Stopped),
	)
	return results.SuccessResult[PlaySummary, error](summary), nil
}

// playDay simulates today's schedule, or hands control to the phase manager when there is
// nothing left to play.
func (s *SimService) playDay(ctx context.Context, run *simRun) (dayOutcome, error) {
	lc := run.lc
	run.day = 0

	schedule, err := s.repo.GetTodaySchedule(ctx, run.db)
	if err != nil {
		return dayOutcome{}, fmt.Errorf("failed to load today's schedule: %w", err)
	}

	if len(schedule) == 0 {
		if !lc.Playoffs() {
			return s.noGames(ctx, run)
		}
		over, err := s.collab.Playoffs.NewSchedulePlayoffsDay(ctx, run.db, lc)
		if err != nil {
			return dayOutcome{}, fmt.Errorf("failed to schedule playoff day: %w", err)
		}
		if over {
			return s.changePhase(ctx, run, simdomain.PhaseDraftLottery, dayOutcome{terminal: true, playoffsOver: true})
		}
		schedule, err = s.repo.GetTodaySchedule(ctx, run.db)
		if err != nil {
			return dayOutcome{}, fmt.Errorf("failed to load today's schedule: %w", err)
		}
		if len(schedule) == 0 {
			return dayOutcome{}, ErrNoPlayoffGames
		}
	}

	run.day = simdomain.DayKey(lc.Season, lc.Playoffs(), schedule[0].Day)

	var tids []int
	for _, g := range schedule {
		for _, tid := range []int{g.HomeTID, g.AwayTID} {
			if !slices.Contains(tids, tid) {
				tids = append(tids, tid)
			}
		}
	}
	teams, err := s.loadTeams(ctx, run, tids)
	if err != nil {
		return dayOutcome{}, err
	}

	var series *simdomain.PlayoffSeries
	bracket, err := s.loadSeries(ctx, run)
	if err != nil {
		return dayOutcome{}, err
	}
	if lc.Playoffs() && bracket == nil {
		return dayOutcome{}, fmt.Errorf("playoffs season %d has no bracket", lc.Season)
	}

	var out dayOutcome
	for _, g := range schedule {
		entry := g.Entry()

		if lc.Playoffs() {
			series = bracket.Bracket.Clone()
		}

		result, err := s.simulateGame(ctx, run, entry, teams)
		if errors.Is(err, ErrForceWinExhausted) {
			s.logger.WarnContext(ctx, "Stopping day after forced win search failed", slog.Int("gid", entry.GID))
			out.interrupted = true
			run.touch(simdomain.UpdateGameSim)
			return out, nil
		}
		if err != nil {
			return dayOutcome{}, err
		}

		if _, err := s.writeResults(ctx, run, entry, result, teams, series); err != nil {
			return dayOutcome{}, err
		}
		if lc.Playoffs() && result.Kind == simdomain.GameKindNormal {
			if err := s.trackSeries(ctx, run, bracket, result, teams); err != nil {
				return dayOutcome{}, err
			}
		}
		if err := s.repo.DeleteScheduleGame(ctx, run.db, entry.GID); err != nil {
			return dayOutcome{}, fmt.Errorf("failed to remove game %d from schedule: %w", entry.GID, err)
		}

		s.metrics.RecordGameSimulated(ctx, lc.Playoffs())
		out.games++
		run.touch(simdomain.UpdateGameSim)

		if run.live != nil && *run.live == entry.GID {
			s.notify(ctx, simdomain.RealtimeUpdate{
				Updates:    []string{simdomain.UpdateGameSim},
				Status:     simdomain.SimStatePlayingDay,
				LiveGameID: run.live,
				PlayByPlay: result.PlayByPlay,
			})
		}
	}

	if err := s.dayBoundary(ctx, run); err != nil {
		return dayOutcome{}, err
	}
	return out, nil
}

// noGames handles an empty schedule outside the playoffs. The day boundary still runs once,
// then the phase manager decides what comes next.
func (s *SimService) noGames(ctx context.Context, run *simRun) (dayOutcome, error) {
	if err := s.dayBoundary(ctx, run); err != nil {
		return dayOutcome{}, err
	}
	if run.lc.Phase != simdomain.PhaseRegularSeason {
		return dayOutcome{terminal: true}, nil
	}
	return s.changePhase(ctx, run, simdomain.PhasePlayoffs, dayOutcome{terminal: true})
}

func (s *SimService) changePhase(ctx context.Context, run *simRun, phase simdomain.Phase, out dayOutcome) (dayOutcome, error) {
	conds := simdomain.Conditions{Source: "game-sim"}
	if err := s.collab.Phases.NewPhase(ctx, run.db, run.lc, phase, conds, run.live != nil); err != nil {
		return dayOutcome{}, fmt.Errorf("failed to start %s: %w", phase, err)
	}
	s.logger.InfoContext(ctx, "League entered new phase",
		slog.String("phase", phase.String()),
		slog.Int("season", run.lc.Season),
	)
	out.newPhase = &phase
	run.touch(simdomain.UpdateNewPhase)
	return out, nil
}

// simulateGame runs the generator once, or through the forced-win search when the game has
// a forced winner and God Mode is on.
func (s *SimService) simulateGame(
	ctx context.Context,
	run *simRun,
	entry simdomain.ScheduleEntry,
	teams map[int]*simdomain.TeamSimState,
) (*simdomain.GameResult, error) {
	pair := [2]*simdomain.TeamSimState{teams[entry.HomeTID], teams[entry.AwayTID]}
	if pair[0] == nil || pair[1] == nil {
		return nil, fmt.Errorf("game %d references unknown team (%d vs %d)", entry.GID, entry.HomeTID, entry.AwayTID)
	}

	kind := entry.Kind()
	opts := simdomain.SimOptions{
		Kind:             kind,
		Playoffs:         run.lc.Playoffs(),
		TiesAllowed:      run.lc.Settings.TiesAllowed && !run.lc.Playoffs(),
		RecordPlayByPlay: run.live != nil && *run.live == entry.GID,
		HomeCourtFactor:  1,
		InjuryRate:       run.lc.Settings.InjuryRate,
	}

	var (
		result *simdomain.GameResult
		err    error
	)
	if entry.ForcedWinnerTID != nil && run.lc.Settings.GodMode && kind == simdomain.GameKindNormal {
		result, err = s.forceWin(ctx, run, entry, pair, opts)
	} else {
		result, err = s.collab.Generator.Simulate(ctx, entry.GID, pair, opts)
		if err != nil {
			err = fmt.Errorf("failed to simulate game %d: %w", entry.GID, err)
		}
	}
	if err != nil {
		return nil, err
	}
	result.GID = entry.GID
	result.Kind = kind
	return result, nil
}

// checkRosterSizes returns a message describing the first user team with an illegal roster.
func (s *SimService) checkRosterSizes(ctx context.Context, run *simRun) (string, error) {
	settings := run.lc.Settings
	for _, tid := range run.lc.UserTIDs {
		n, err := s.repo.CountPlayersByTeam(ctx, run.db, tid)
		if err != nil {
			return "", fmt.Errorf("failed to count roster of team %d: %w", tid, err)
		}
		switch {
		case settings.MaxRosterSize > 0 && n > settings.MaxRosterSize:
			return fmt.Sprintf("Your team has %d players, more than the maximum of %d. Release or trade %d before playing games.",
				n, settings.MaxRosterSize, n-settings.MaxRosterSize), nil
		case n < settings.MinRosterSize:
			return fmt.Sprintf("Your team has %d players, fewer than the minimum of %d. Sign %d before playing games.",
				n, settings.MinRosterSize, settings.MinRosterSize-n), nil
		}
	}
	return "", nil
}

// Stop asks a running Play to halt before its next day.
func (s *SimService) Stop(ctx context.Context) error {
	if err := s.collab.Lock.Set(ctx, simdomain.FlagStopGameSim, true); err != nil {
		return fmt.Errorf("failed to set stop flag: %w", err)
	}
	s.logger.InfoContext(ctx, "Stop requested")
	return nil
}

// Status reports the scheduler state and where the league is.
func (s *SimService) Status(ctx context.Context) (StatusReport, error) {
	report := StatusReport{State: s.State()}
	state, err := s.repo.GetLeagueState(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("failed to load league state: %w", err)
	}
	report.Season = state.Season
	report.Phase = state.Phase.String()

	schedule, err := s.repo.GetSchedule(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("failed to load schedule: %w", err)
	}
	report.GamesScheduled = len(schedule)

	stop, err := s.collab.Lock.Get(ctx, simdomain.FlagStopGameSim)
	if err != nil {
		return report, fmt.Errorf("failed to read stop flag: %w", err)
	}
	report.StopRequested = stop
	return report, nil
}

// SetForcedWinner marks a scheduled game with the team that must win it.
func (s *SimService) SetForcedWinner(ctx context.Context, gid int, tid *int) (ForcedWinnerResult, error) {
	return withTelemetry(s, ctx, "SetForcedWinner", "api", func(ctx context.Context) (ForcedWinnerResult, error) {
		if !s.settings.GodMode {
			return results.FailureResult[ForcedWinner, error](ErrGodModeDisabled), nil
		}
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (ForcedWinnerResult, error) {
			schedule, err := s.repo.GetSchedule(ctx, db)
			if err != nil {
				return ForcedWinnerResult{}, fmt.Errorf("failed to load schedule: %w", err)
			}
			idx := slices.IndexFunc(schedule, func(g simdb.ScheduleGame) bool { return g.GID == gid })
			if idx < 0 {
				return results.FailureResult[ForcedWinner, error](fmt.Errorf("game %d: %w", gid, ErrGameNotScheduled)), nil
			}
			game := schedule[idx]
			if tid != nil && *tid != game.HomeTID && *tid != game.AwayTID {
				return results.FailureResult[ForcedWinner, error](fmt.Errorf("game %d, team %d: %w", gid, *tid, ErrInvalidForcedWinner)), nil
			}
			if err := s.repo.SetForcedWinner(ctx, db, gid, tid); err != nil {
				return ForcedWinnerResult{}, fmt.Errorf("failed to set forced winner: %w", err)
			}
			return results.SuccessResult[ForcedWinner, error](ForcedWinner{GID: gid, TID: tid}), nil
		})
	})
}
