package simservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
)

// loadSeries returns the season's bracket, or nil when there is none yet.
func (s *SimService) loadSeries(ctx context.Context, run *simRun) (*simdb.PlayoffSeries, error) {
	series, err := s.repo.GetPlayoffSeries(ctx, run.db, run.lc.Season)
	if errors.Is(err, simdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load playoff series: %w", err)
	}
	return series, nil
}

// trackSeries records a playoff game in the bracket. It never moves the bracket to the next
// round; that belongs to the playoff schedule generator.
func (s *SimService) trackSeries(
	ctx context.Context,
	run *simRun,
	series *simdb.PlayoffSeries,
	result *simdomain.GameResult,
	teams map[int]*simdomain.TeamSimState,
) error {
	tids := [2]int{result.Teams[0].TID, result.Teams[1].TID}
	pts := [2]int{result.Teams[0].Pts, result.Teams[1].Pts}

	update, err := series.Bracket.RecordGame(result.GID, tids, pts)
	if err != nil {
		return fmt.Errorf("failed to record playoff game %d: %w", result.GID, err)
	}

	if update.Decided {
		if err := s.seriesDecided(ctx, run, series, update, result, teams); err != nil {
			return err
		}
	}

	if update.Spliced {
		ts, err := s.repo.GetTeamSeason(ctx, run.db, update.Winner.TID, run.lc.Season)
		if err != nil {
			return fmt.Errorf("failed to load season of play-in winner %d: %w", update.Winner.TID, err)
		}
		ts.PlayoffRoundsWon = 0
		if err := s.repo.UpsertTeamSeason(ctx, run.db, ts); err != nil {
			return fmt.Errorf("failed to save season of play-in winner %d: %w", update.Winner.TID, err)
		}
		s.logger.InfoContext(ctx, "Play-in winner joined the bracket",
			slog.Int("tid", update.Winner.TID),
			slog.Int("seed", update.Winner.Seed),
		)
	}

	if err := s.repo.UpsertPlayoffSeries(ctx, run.db, series); err != nil {
		return fmt.Errorf("failed to save playoff series: %w", err)
	}
	return nil
}

func (s *SimService) seriesDecided(
	ctx context.Context,
	run *simRun,
	series *simdb.PlayoffSeries,
	update simdomain.SeriesUpdate,
	result *simdomain.GameResult,
	teams map[int]*simdomain.TeamSimState,
) error {
	bracket := &series.Bracket
	numRounds := bracket.NumRounds()
	roundName := simdomain.RoundName(update.Round, numRounds, bracket.NumGroups())

	winPts, losePts := result.Teams[0].Pts, result.Teams[1].Pts
	if result.Teams[1].TID == update.Winner.TID {
		winPts, losePts = losePts, winPts
	}
	text := simdomain.SeriesDecidedText(
		teamName(teams, update.Winner.TID), teamName(teams, update.Loser.TID), roundName, update, winPts, losePts)

	ev := simdomain.NewEvent(simdomain.EventSeriesDecided, run.lc.Season, text)
	ev.TIDs = []int{update.Winner.TID, update.Loser.TID}
	ev.GID = &result.GID
	ev.ShowNotification = run.lc.AnyUserTeam(ev.TIDs)
	switch {
	case update.Round == numRounds-1:
		ev.Score = 20
	case update.Round >= 0:
		ev.Score = 10
	}
	return s.emit(ctx, run, ev)
}
