package phaseservice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	phasedomain "github.com/Black-And-White-Club/league-sim/app/modules/phase/domain"
	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// startPlayoffs seeds the bracket from the regular season standings. Direct qualifiers get
// playoffRoundsWon 0; everyone else, play-in teams included, stays at -1.
func (s *PhaseService) startPlayoffs(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error {
	teams, err := s.repo.ListTeams(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to list teams: %w", err)
	}
	seasons, err := s.repo.ListTeamSeasons(ctx, db, lc.Season)
	if err != nil {
		return fmt.Errorf("failed to list team seasons: %w", err)
	}
	bySeason := make(map[int]*simdb.TeamSeason, len(seasons))
	for i := range seasons {
		bySeason[seasons[i].TID] = &seasons[i]
	}

	standings := make([]phasedomain.Standing, 0, len(teams))
	for _, team := range teams {
		st := phasedomain.Standing{TID: team.TID, Group: team.Cid}
		if ts, ok := bySeason[team.TID]; ok {
			st.WinPct = ts.WinPct()
			st.Won = ts.Won
		}
		standings = append(standings, st)
	}

	seeding, err := phasedomain.SeedBracket(lc.Season, standings, lc.Settings.NumGamesPlayoffSeries, lc.Settings.PlayIn)
	if err != nil {
		return fmt.Errorf("failed to seed playoffs: %w", err)
	}

	for i := range seasons {
		ts := &seasons[i]
		want := -1
		if slices.Contains(seeding.Direct, ts.TID) {
			want = 0
		}
		if ts.PlayoffRoundsWon == want {
			continue
		}
		ts.PlayoffRoundsWon = want
		if err := s.repo.UpsertTeamSeason(ctx, db, ts); err != nil {
			return fmt.Errorf("failed to save season of team %d: %w", ts.TID, err)
		}
	}

	if err := s.repo.UpsertPlayoffSeries(ctx, db, &simdb.PlayoffSeries{Season: lc.Season, Bracket: seeding.Bracket}); err != nil {
		return fmt.Errorf("failed to save playoff series: %w", err)
	}
	s.logger.InfoContext(ctx, "Playoffs seeded",
		slog.Int("season", lc.Season),
		slog.Int("direct", len(seeding.Direct)),
		slog.Int("play_in", len(seeding.PlayIn)),
	)
	return nil
}

// NewSchedulePlayoffsDay writes the next playoff day. It adds the final play-in game of
// each group once the first two are decided, advances the bracket when a round is
// complete, and reports over when the finals are decided.
func (s *PhaseService) NewSchedulePlayoffsDay(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) (bool, error) {
	row, err := s.repo.GetPlayoffSeries(ctx, db, lc.Season)
	if err != nil {
		return false, fmt.Errorf("failed to load playoff series: %w", err)
	}
	ps := &row.Bracket

	if ps.CurrentRound == simdomain.PlayInRound {
		for g := range ps.PlayIns {
			if third, ok := phasedomain.ThirdPlayInGame(ps.PlayIns[g]); ok {
				ps.PlayIns[g] = append(ps.PlayIns[g], third)
			}
		}
		if ps.RoundComplete(simdomain.PlayInRound) {
			ps.CurrentRound = 0
			s.logger.InfoContext(ctx, "Play-in complete", slog.Int("season", lc.Season))
		}
	} else if ps.RoundComplete(ps.CurrentRound) {
		if err := s.creditRound(ctx, db, lc, ps); err != nil {
			return false, err
		}
		if ps.CurrentRound >= ps.NumRounds()-1 {
			if err := s.repo.UpsertPlayoffSeries(ctx, db, row); err != nil {
				return false, fmt.Errorf("failed to save playoff series: %w", err)
			}
			s.logger.InfoContext(ctx, "Playoffs over", slog.Int("season", lc.Season))
			return true, nil
		}
		cur := ps.CurrentRound
		next, err := phasedomain.NextRound(ps.Rounds[cur], simdomain.WinsNeeded(ps.NumGamesInRound(cur)))
		if err != nil {
			return false, fmt.Errorf("failed to advance round %d: %w", cur, err)
		}
		ps.Rounds = append(ps.Rounds[:cur+1], next)
		ps.CurrentRound++
		s.logger.InfoContext(ctx, "Playoff round advanced",
			slog.Int("season", lc.Season),
			slog.Int("round", ps.CurrentRound),
		)
	}

	pairings := pendingGames(ps)
	if len(pairings) > 0 {
		gid, err := s.repo.AllocateGameIDs(ctx, db, len(pairings))
		if err != nil {
			return false, fmt.Errorf("failed to allocate game ids: %w", err)
		}
		ps.Day++
		games := make([]simdb.ScheduleGame, 0, len(pairings))
		for _, p := range pairings {
			games = append(games, simdb.ScheduleGame{GID: gid, Day: ps.Day, HomeTID: p.Home, AwayTID: p.Away})
			gid++
		}
		if err := s.repo.InsertSchedule(ctx, db, games); err != nil {
			return false, fmt.Errorf("failed to save playoff schedule: %w", err)
		}
	}

	if err := s.repo.UpsertPlayoffSeries(ctx, db, row); err != nil {
		return false, fmt.Errorf("failed to save playoff series: %w", err)
	}
	return false, nil
}

// creditRound bumps playoffRoundsWon for every winner of the current round.
func (s *PhaseService) creditRound(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext, ps *simdomain.PlayoffSeries) error {
	cur := ps.CurrentRound
	threshold := simdomain.WinsNeeded(ps.NumGamesInRound(cur))
	for _, m := range ps.Rounds[cur] {
		winner, _, ok := m.Winner(threshold)
		if !ok {
			continue
		}
		ts, err := s.repo.GetTeamSeason(ctx, db, winner.TID, lc.Season)
		if err != nil {
			return fmt.Errorf("failed to load season of team %d: %w", winner.TID, err)
		}
		if ts.PlayoffRoundsWon >= cur+1 {
			continue
		}
		ts.PlayoffRoundsWon = cur + 1
		if err := s.repo.UpsertTeamSeason(ctx, db, ts); err != nil {
			return fmt.Errorf("failed to save season of team %d: %w", winner.TID, err)
		}
	}
	return nil
}

// pendingGames returns one game for every undecided matchup of the current round.
func pendingGames(ps *simdomain.PlayoffSeries) []phasedomain.Pairing {
	var matchups []simdomain.Matchup
	if ps.CurrentRound == simdomain.PlayInRound {
		for _, g := range ps.PlayIns {
			matchups = append(matchups, g...)
		}
	} else if ps.CurrentRound >= 0 && ps.CurrentRound < len(ps.Rounds) {
		matchups = ps.Rounds[ps.CurrentRound]
	}

	threshold := simdomain.WinsNeeded(ps.NumGamesInRound(ps.CurrentRound))
	var out []phasedomain.Pairing
	for _, m := range matchups {
		if _, _, decided := m.Winner(threshold); decided {
			continue
		}
		p := phasedomain.Pairing{Home: m.Home.TID, Away: m.Away.TID}
		if !phasedomain.HomeHosts(len(m.GIDs)) {
			p.Home, p.Away = p.Away, p.Home
		}
		out = append(out, p)
	}
	return out
}
