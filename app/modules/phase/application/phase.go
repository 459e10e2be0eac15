package phaseservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	phasedomain "github.com/Black-And-White-Club/league-sim/app/modules/phase/domain"
	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// NewPhase moves the league to phase, doing the setup the new phase needs first. It is the
// only place lc.Phase changes.
func (s *PhaseService) NewPhase(
	ctx context.Context,
	db bun.IDB,
	lc *simdomain.LeagueContext,
	phase simdomain.Phase,
	conds simdomain.Conditions,
	isLiveGame bool,
) error {
	from := lc.Phase

	switch phase {
	case simdomain.PhaseRegularSeason:
		if err := s.startRegularSeason(ctx, db, lc); err != nil {
			return err
		}
	case simdomain.PhasePlayoffs:
		if err := s.startPlayoffs(ctx, db, lc); err != nil {
			return err
		}
	}

	state, err := s.repo.GetLeagueState(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to load league state: %w", err)
	}
	state.Phase = phase
	if err := s.repo.SaveLeagueState(ctx, db, state); err != nil {
		return fmt.Errorf("failed to save league state: %w", err)
	}
	lc.Phase = phase

	s.logger.InfoContext(ctx, "Phase changed",
		slog.String("from", from.String()),
		slog.String("to", phase.String()),
		slog.Int("season", lc.Season),
		slog.String("source", conds.Source),
		slog.Bool("live_game", isLiveGame),
	)
	return nil
}

// startRegularSeason opens a season row for every team and writes the round robin.
func (s *PhaseService) startRegularSeason(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error {
	teams, err := s.repo.ListTeams(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to list teams: %w", err)
	}

	tids := make([]int, 0, len(teams))
	for i := range teams {
		team := &teams[i]
		tids = append(tids, team.TID)
		_, err := s.repo.GetTeamSeason(ctx, db, team.TID, lc.Season)
		if err == nil {
			continue
		}
		if !errors.Is(err, simdb.ErrTeamSeasonNotFound) {
			return fmt.Errorf("failed to load season of team %d: %w", team.TID, err)
		}
		if err := s.repo.UpsertTeamSeason(ctx, db, &simdb.TeamSeason{
			TID:              team.TID,
			Season:           lc.Season,
			Hype:             0.5,
			Pop:              team.Pop,
			PlayoffRoundsWon: -1,
		}); err != nil {
			return fmt.Errorf("failed to open season of team %d: %w", team.TID, err)
		}
	}

	days := phasedomain.RoundRobin(tids, lc.Settings.NumGames)
	if lc.Settings.AllStarGame && len(days) > 0 {
		at := phasedomain.AllStarDay(len(days))
		allStars := []phasedomain.Pairing{{Home: simdomain.TIDAllStarsA, Away: simdomain.TIDAllStarsB}}
		days = append(days[:at], append([][]phasedomain.Pairing{allStars}, days[at:]...)...)
	}

	n := 0
	for _, day := range days {
		n += len(day)
	}
	if n == 0 {
		return nil
	}
	gid, err := s.repo.AllocateGameIDs(ctx, db, n)
	if err != nil {
		return fmt.Errorf("failed to allocate game ids: %w", err)
	}

	games := make([]simdb.ScheduleGame, 0, n)
	for d, day := range days {
		for _, p := range day {
			games = append(games, simdb.ScheduleGame{GID: gid, Day: d + 1, HomeTID: p.Home, AwayTID: p.Away})
			gid++
		}
	}
	if err := s.repo.InsertSchedule(ctx, db, games); err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	s.logger.InfoContext(ctx, "Regular season scheduled",
		slog.Int("season", lc.Season),
		slog.Int("days", len(days)),
		slog.Int("games", n),
	)
	return nil
}
