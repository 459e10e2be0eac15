package simservice

import (
	"context"
	"fmt"
	"log/slog"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
)

const (
	// maxForceWinBias is the home-court factor reached on the last attempt.
	maxForceWinBias = 3.0
)

// ForceWinBias is the home-court factor for attempt i (0-based) out of budget. It holds at 1
// for the first quarter of the budget, then ramps linearly to 3 on the last attempt.
func ForceWinBias(i, budget int) float64 {
	hold := budget / 4
	if i < hold {
		return 1
	}
	span := budget - 1 - hold
	if span <= 0 {
		return maxForceWinBias
	}
	return 1 + (maxForceWinBias-1)*float64(i-hold)/float64(span)
}

// forceWin reruns the generator on fresh copies of both teams until the desired side wins.
// Exhausting the budget is not fatal: it logs a persistent error event, sets the stop flag
// and returns ErrForceWinExhausted.
func (s *SimService) forceWin(
	ctx context.Context,
	run *simRun,
	entry simdomain.ScheduleEntry,
	teams [2]*simdomain.TeamSimState,
	opts simdomain.SimOptions,
) (*simdomain.GameResult, error) {
	desired := *entry.ForcedWinnerTID
	if desired != entry.HomeTID && desired != entry.AwayTID {
		return nil, fmt.Errorf("game %d, team %d: %w", entry.GID, desired, ErrInvalidForcedWinner)
	}

	budget := max(run.lc.Settings.ForceWinAttempts, 1)
	for i := range budget {
		bias := ForceWinBias(i, budget)
		if desired == entry.AwayTID {
			bias = 1 / bias
		}
		opts.HomeCourtFactor = bias

		result, err := s.collab.Generator.Simulate(ctx, entry.GID, [2]*simdomain.TeamSimState{teams[0].Clone(), teams[1].Clone()}, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to simulate game %d: %w", entry.GID, err)
		}
		if tid, ok := result.WinnerTID(); ok && tid == desired {
			result.ForceWin = i + 1
			s.metrics.RecordForceWinAttempts(ctx, i+1, true)
			s.logger.InfoContext(ctx, "Forced win found",
				slog.Int("gid", entry.GID),
				slog.Int("tid", desired),
				slog.Int("attempts", i+1),
			)
			return result, nil
		}
	}

	s.metrics.RecordForceWinAttempts(ctx, budget, false)
	winner, loser := teams[0], teams[1]
	if desired == entry.AwayTID {
		winner, loser = teams[1], teams[0]
	}
	ev := simdomain.NewEvent(simdomain.EventGameSimError, run.lc.Season, fmt.Sprintf(
		"Could not find a simulation in %d tries where the %s beat the %s.", budget, winner.Name, loser.Name))
	ev.TIDs = []int{entry.HomeTID, entry.AwayTID}
	ev.GID = &entry.GID
	ev.ShowNotification = true
	ev.Persistent = true
	if err := s.emit(ctx, run, ev); err != nil {
		return nil, err
	}
	if err := s.collab.Lock.Set(ctx, simdomain.FlagStopGameSim, true); err != nil {
		return nil, fmt.Errorf("failed to set stop flag: %w", err)
	}
	return nil, fmt.Errorf("game %d: %w", entry.GID, ErrForceWinExhausted)
}
