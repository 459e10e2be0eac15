package simservice

import (
	"context"
	"fmt"
	"log/slog"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
)

// dayBoundary runs the once-per-day bookkeeping after a day's games: the free-agent market
// and AI trades outside the playoffs, a rare tragic death, and injury recovery for players
// whose injuries the results writer did not already count today.
func (s *SimService) dayBoundary(ctx context.Context, run *simRun) error {
	lc := run.lc
	if !lc.Playoffs() {
		if err := s.collab.FreeAgency.DecreaseDemands(ctx, run.db, lc); err != nil {
			return fmt.Errorf("failed to decrease free agent demands: %w", err)
		}
		if err := s.collab.FreeAgency.AutoSign(ctx, run.db, lc); err != nil {
			return fmt.Errorf("failed to auto sign free agents: %w", err)
		}
		if err := s.collab.Trades.BetweenAITeams(ctx, run.db, lc); err != nil {
			return fmt.Errorf("failed to run AI trades: %w", err)
		}
		run.touch(simdomain.UpdatePlayerMovement)
	}

	if lc.Settings.TragicDeathRate > 0 && s.rng.Float64() < lc.Settings.TragicDeathRate {
		if err := s.tragicDeath(ctx, run); err != nil {
			return err
		}
	}

	return s.recoverIdlePlayers(ctx, run)
}

// recoverIdlePlayers heals one day for injured players on teams that did not play and for
// free agents. Players the results writer already counted for this day are skipped.
func (s *SimService) recoverIdlePlayers(ctx context.Context, run *simRun) error {
	players, err := s.repo.ListRosteredPlayers(ctx, run.db)
	if err != nil {
		return fmt.Errorf("failed to list rostered players: %w", err)
	}
	freeAgents, err := s.repo.ListPlayersByTeam(ctx, run.db, simdomain.TIDFreeAgent)
	if err != nil {
		return fmt.Errorf("failed to list free agents: %w", err)
	}
	players = append(players, freeAgents...)

	for i := range players {
		p := &players[i]
		if p.Injury.GamesRemaining <= 0 || run.countedToday(p) {
			continue
		}
		if _, err := s.recoverInjury(ctx, run, p); err != nil {
			return err
		}
		if err := s.repo.UpsertPlayer(ctx, run.db, p); err != nil {
			return fmt.Errorf("failed to save player %d: %w", p.PID, err)
		}
	}
	return nil
}

// tragicDeath retires a random rostered player.
func (s *SimService) tragicDeath(ctx context.Context, run *simRun) error {
	players, err := s.repo.ListRosteredPlayers(ctx, run.db)
	if err != nil {
		return fmt.Errorf("failed to list rostered players: %w", err)
	}
	if len(players) == 0 {
		return nil
	}
	p := players[s.rng.IntN(len(players))]
	tid := p.TID

	p.TID = simdomain.TIDRetired
	p.DiedYear = run.lc.Season
	p.Injury = simdomain.Healthy()
	if err := s.repo.UpsertPlayer(ctx, run.db, &p); err != nil {
		return fmt.Errorf("failed to retire player %d: %w", p.PID, err)
	}

	team, err := s.repo.GetTeam(ctx, run.db, tid)
	if err != nil {
		return fmt.Errorf("failed to load team %d: %w", tid, err)
	}
	userTeam := run.lc.IsUserTeam(tid)
	ev := simdomain.NewEvent(simdomain.EventTragicDeath, run.lc.Season, fmt.Sprintf(
		"%s of the %s died at age %d.", p.Name(), team.FullName(), p.Age(run.lc.Season)))
	ev.TIDs = []int{tid}
	ev.PIDs = []int{p.PID}
	ev.ShowNotification = true
	ev.Persistent = userTeam
	ev.Score = 20
	if err := s.emit(ctx, run, ev); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Player died",
		slog.Int("pid", p.PID),
		slog.Int("tid", tid),
	)
	run.touch(simdomain.UpdatePlayerMovement)
	return nil
}
