package simservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
)

// writeResults folds one finished game into league state: player stats, then team stats and
// finances, then the box score and narrative. seriesBefore is the bracket as it stood before
// this game; it is nil outside the playoffs. It reports whether an injury asked to stop.
func (s *SimService) writeResults(
	ctx context.Context,
	run *simRun,
	entry simdomain.ScheduleEntry,
	result *simdomain.GameResult,
	teams map[int]*simdomain.TeamSimState,
	seriesBefore *simdomain.PlayoffSeries,
) (bool, error) {
	if result.Kind == simdomain.GameKindExhibition {
		return false, s.writeExhibition(ctx, run, entry, result, teams)
	}

	stop := false
	for side := range 2 {
		stopPlay, err := s.writePlayerStats(ctx, run, result, side, teams[result.Teams[side].TID])
		if err != nil {
			return false, err
		}
		stop = stop || stopPlay
	}

	attendance := 0
	for side := range 2 {
		att, err := s.writeTeamStats(ctx, run, result, side)
		if err != nil {
			return false, err
		}
		if side == 0 {
			attendance = att
		}
	}

	if err := s.writeNarrative(ctx, run, entry, result, teams, attendance, seriesBefore); err != nil {
		return false, err
	}

	if stop {
		if err := s.collab.Lock.Set(ctx, simdomain.FlagStopGameSim, true); err != nil {
			return false, fmt.Errorf("failed to set stop flag: %w", err)
		}
	}
	return stop, nil
}

// --- Player folding ---

func (s *SimService) writePlayerStats(
	ctx context.Context,
	run *simRun,
	result *simdomain.GameResult,
	side int,
	team *simdomain.TeamSimState,
) (bool, error) {
	lc := run.lc
	tr := result.Teams[side]

	appeared := make(map[int]simdomain.PlayerGameResult, len(tr.Players))
	for _, pgr := range tr.Players {
		appeared[pgr.PID] = pgr
	}
	leader := passingLeader(tr.Players)
	creditKey := qbCreditKey(result, side)

	roster, err := s.repo.ListPlayersByTeam(ctx, run.db, tr.TID)
	if err != nil {
		return false, fmt.Errorf("failed to load roster of team %d: %w", tr.TID, err)
	}

	healthRank := 1
	if team != nil {
		healthRank = team.HealthRank
	}

	stop := false
	for i := range roster {
		p := &roster[i]
		pgr, played := appeared[p.PID]
		dirty := false

		if played {
			delta := pgr.Stats.Clone()
			if p.PID == leader {
				delta[creditKey]++
			}
			if err := s.foldPlayerStats(ctx, run, p, delta); err != nil {
				return false, err
			}
			dirty = true
		}

		ratingsLoss := false
		switch {
		case played && pgr.Injured:
			out, err := s.injure(ctx, run, p, result.GID, healthRank, run.numTeams)
			if err != nil {
				return false, err
			}
			ratingsLoss = out.RatingsLoss
			stop = stop || out.StopPlay
			dirty = true
		case p.Injury.GamesRemaining > 0 && !run.countedToday(p):
			if _, err := s.recoverInjury(ctx, run, p); err != nil {
				return false, err
			}
			dirty = true
		}

		// Ratings cannot change during the playoffs unless an injury just lowered them.
		if played && (!lc.Playoffs() || ratingsLoss) {
			p.Value = simdomain.PlayerValue(p.Ratings, p.Age(lc.Season))
		}

		if dirty {
			if err := s.repo.UpsertPlayer(ctx, run.db, p); err != nil {
				return false, fmt.Errorf("failed to save player %d: %w", p.PID, err)
			}
		}
	}
	return stop, nil
}

// foldPlayerStats adds delta to the player's current stats row, opening a new row when the
// latest one belongs to another team, season or phase.
func (s *SimService) foldPlayerStats(ctx context.Context, run *simRun, p *simdb.Player, delta simdomain.StatLine) error {
	playoffs := run.lc.Playoffs()
	row, err := s.repo.GetLatestPlayerStats(ctx, run.db, p.PID)
	if err != nil && !errors.Is(err, simdb.ErrNotFound) {
		return fmt.Errorf("failed to load stats of player %d: %w", p.PID, err)
	}
	if row == nil || !row.Matches(p.TID, run.lc.Season, playoffs) {
		row = &simdb.PlayerStats{PID: p.PID, TID: p.TID, Season: run.lc.Season, Playoffs: playoffs}
	}
	if row.Stats == nil {
		row.Stats = simdomain.StatLine{}
	}
	row.Stats.Fold(delta)
	if err := s.repo.SavePlayerStats(ctx, run.db, row); err != nil {
		return fmt.Errorf("failed to save stats of player %d: %w", p.PID, err)
	}
	return nil
}

// passingLeader is the player with the most pass attempts, or -1 when nobody threw.
func passingLeader(players []simdomain.PlayerGameResult) int {
	leader, most := -1, 0
	for _, pgr := range players {
		if n := pgr.Stats[simdomain.StatPss]; n > most {
			leader, most = pgr.PID, n
		}
	}
	return leader
}

func qbCreditKey(result *simdomain.GameResult, side int) string {
	switch result.WinnerIndex() {
	case side:
		return simdomain.StatQBW
	case -1:
		return simdomain.StatQBT
	default:
		return simdomain.StatQBL
	}
}

// --- Team folding ---

// writeTeamStats folds one side's stats and, outside the playoffs, its record and
// finances. It returns the attendance when side is home.
func (s *SimService) writeTeamStats(ctx context.Context, run *simRun, result *simdomain.GameResult, side int) (int, error) {
	lc := run.lc
	playoffs := lc.Playoffs()
	tr, opp := result.Teams[side], result.Teams[1-side]

	own := tr.Stats.Clone()
	own[simdomain.StatPts] = tr.Pts
	against := opp.Stats.Clone()
	against[simdomain.StatPts] = opp.Pts

	stats, err := s.repo.GetTeamStats(ctx, run.db, tr.TID, lc.Season, playoffs)
	if err != nil && !errors.Is(err, simdb.ErrNotFound) {
		return 0, fmt.Errorf("failed to load stats of team %d: %w", tr.TID, err)
	}
	if stats == nil {
		stats = &simdb.TeamStats{TID: tr.TID, Season: lc.Season, Playoffs: playoffs}
	}
	if stats.Stats == nil {
		stats.Stats = simdomain.StatLine{}
	}
	stats.Stats.FoldTeam(own, against)
	stats.Stats[simdomain.StatGP]++
	if err := s.repo.UpsertTeamStats(ctx, run.db, stats); err != nil {
		return 0, fmt.Errorf("failed to save stats of team %d: %w", tr.TID, err)
	}

	season, err := s.repo.GetTeamSeason(ctx, run.db, tr.TID, lc.Season)
	if err != nil {
		return 0, fmt.Errorf("failed to load season of team %d: %w", tr.TID, err)
	}

	// Playoff wins and losses belong to the series tracker.
	if playoffs {
		return 0, nil
	}

	outcome := simdomain.GameOutcomes([2]int{result.Teams[0].Pts, result.Teams[1].Pts}, result.Overtimes > 0, lc.Settings.OTLAllowed)[side]
	switch outcome {
	case simdomain.OutcomeWin:
		season.Won++
	case simdomain.OutcomeLoss:
		season.Lost++
	case simdomain.OutcomeTie:
		season.Tied++
	case simdomain.OutcomeOTL:
		season.OTL++
	}
	season.LastTen = simdomain.PushLastTen(season.LastTen, outcome)
	season.Streak = simdomain.NextStreak(season.Streak, outcome)

	attendance, err := s.accrueFinances(ctx, run, season, side == 0)
	if err != nil {
		return 0, err
	}
	season.Hype = simdomain.NextHype(season.Hype, outcome)

	if err := s.repo.UpsertTeamSeason(ctx, run.db, season); err != nil {
		return 0, fmt.Errorf("failed to save season of team %d: %w", tr.TID, err)
	}
	return attendance, nil
}

// accrueFinances books one game's revenue and expenses on the team season and the team's
// cash balance.
func (s *SimService) accrueFinances(ctx context.Context, run *simRun, season *simdb.TeamSeason, home bool) (int, error) {
	lc := run.lc
	team, err := s.repo.GetTeam(ctx, run.db, season.TID)
	if err != nil {
		return 0, fmt.Errorf("failed to load team %d: %w", season.TID, err)
	}
	roster, err := s.repo.ListPlayersByTeam(ctx, run.db, season.TID)
	if err != nil {
		return 0, fmt.Errorf("failed to load roster of team %d: %w", season.TID, err)
	}

	pop := season.Pop
	if pop == 0 {
		pop = team.Pop
	}
	difficulty := 0.0
	if lc.IsUserTeam(season.TID) {
		difficulty = lc.Settings.Difficulty
	}
	fin := simdomain.ComputeGameFinances(simdomain.GameFinanceInput{
		Home:          home,
		Hype:          season.Hype,
		Pop:           pop,
		Budget:        team.Budget,
		Payroll:       payroll(roster),
		NumGames:      lc.Settings.NumGames,
		Scale:         lc.Settings.SalaryCapScale(),
		BudgetEnabled: lc.Settings.BudgetEnabled,
		Noise:         s.rng.Float64(),
		Difficulty:    difficulty,
	})

	if season.Revenues == nil {
		season.Revenues = simdomain.Ledger{}
	}
	if season.Expenses == nil {
		season.Expenses = simdomain.Ledger{}
	}
	for item, amount := range fin.Revenues {
		season.Revenues.Add(item, amount)
	}
	for item, amount := range fin.Expenses {
		season.Expenses.Add(item, amount)
	}
	if home {
		season.GPHome++
		season.Attendance += int64(fin.Attendance)
	}

	team.Cash = team.Cash.Add(fin.Revenues.Total()).Sub(fin.Expenses.Total())
	if err := s.repo.UpsertTeam(ctx, run.db, team); err != nil {
		return 0, fmt.Errorf("failed to save team %d: %w", team.TID, err)
	}
	return fin.Attendance, nil
}

// --- Narrative ---

func newBoxScore(run *simRun, entry simdomain.ScheduleEntry, result *simdomain.GameResult, attendance int) *simdb.Game {
	game := &simdb.Game{
		GID:            result.GID,
		Season:         run.lc.Season,
		Day:            entry.Day,
		Playoffs:       run.lc.Playoffs(),
		Kind:           result.Kind.String(),
		Overtimes:      result.Overtimes,
		ForceWin:       result.ForceWin,
		Attendance:     attendance,
		Teams:          result.Teams[:],
		ScoringSummary: result.ScoringSummary,
	}
	w := result.WinnerIndex()
	if w < 0 {
		game.Tie = true
		w = 0
	}
	game.WonTID, game.WonPts = result.Teams[w].TID, result.Teams[w].Pts
	game.LostTID, game.LostPts = result.Teams[1-w].TID, result.Teams[1-w].Pts
	return game
}

func (s *SimService) writeNarrative(
	ctx context.Context,
	run *simRun,
	entry simdomain.ScheduleEntry,
	result *simdomain.GameResult,
	teams map[int]*simdomain.TeamSimState,
	attendance int,
	seriesBefore *simdomain.PlayoffSeries,
) error {
	lc := run.lc
	game := newBoxScore(run, entry, result, attendance)
	if err := s.repo.InsertGame(ctx, run.db, game); err != nil {
		return fmt.Errorf("failed to save box score %d: %w", result.GID, err)
	}

	for side := range 2 {
		tr, opp := result.Teams[side], result.Teams[1-side]
		if !lc.IsUserTeam(tr.TID) {
			continue
		}
		for _, pgr := range tr.Players {
			feats := simdomain.Feats(pgr.Stats)
			if len(feats) == 0 {
				continue
			}
			ev := simdomain.NewEvent(simdomain.EventPlayerFeat, lc.Season, fmt.Sprintf(
				"%s had %s in a %d-%d %s against the %s.",
				pgr.Name, strings.Join(feats, " and "), tr.Pts, opp.Pts,
				gameOutcomeWord(result, side), teamName(teams, opp.TID)))
			ev.TIDs = []int{tr.TID}
			ev.PIDs = []int{pgr.PID}
			ev.GID = &game.GID
			if err := s.emit(ctx, run, ev); err != nil {
				return err
			}
		}
	}

	if lc.Playoffs() && seriesBefore != nil && !game.Tie {
		if err := s.writePlayoffSummary(ctx, run, game, teams, seriesBefore); err != nil {
			return err
		}
	}
	return nil
}

// writePlayoffSummary adds a news item for games in the last two rounds, told from the
// series standing before this game.
func (s *SimService) writePlayoffSummary(
	ctx context.Context,
	run *simRun,
	game *simdb.Game,
	teams map[int]*simdomain.TeamSimState,
	seriesBefore *simdomain.PlayoffSeries,
) error {
	round := seriesBefore.CurrentRound
	numRounds := seriesBefore.NumRounds()
	if !simdomain.InFinalTwoRounds(round, numRounds) {
		return nil
	}
	m, _, _, err := seriesBefore.Locate(game.WonTID, game.LostTID)
	if err != nil {
		// The series tracker reports this as fatal right after.
		return nil
	}
	winsBefore, lossesBefore := m.Standing(game.WonTID)
	roundName := simdomain.RoundName(round, numRounds, seriesBefore.NumGroups())
	text := simdomain.PlayoffGameSummary(
		teamName(teams, game.WonTID), teamName(teams, game.LostTID), roundName,
		game.WonPts, game.LostPts, winsBefore, lossesBefore, seriesBefore.NumGamesInRound(round))

	ev := simdomain.NewEvent(simdomain.EventPlayoffs, run.lc.Season, text)
	ev.TIDs = []int{game.WonTID, game.LostTID}
	ev.GID = &game.GID
	ev.ShowNotification = run.lc.AnyUserTeam(ev.TIDs)
	ev.Score = 10
	if round == numRounds-1 {
		ev.Score = 20
	}
	return s.emit(ctx, run, ev)
}

// writeExhibition stores the box score of an all-star game. Exhibition stats do not count
// toward any season totals.
func (s *SimService) writeExhibition(
	ctx context.Context,
	run *simRun,
	entry simdomain.ScheduleEntry,
	result *simdomain.GameResult,
	teams map[int]*simdomain.TeamSimState,
) error {
	game := newBoxScore(run, entry, result, 0)
	if err := s.repo.InsertGame(ctx, run.db, game); err != nil {
		return fmt.Errorf("failed to save box score %d: %w", result.GID, err)
	}
	text := fmt.Sprintf("%s defeated %s %d-%d in the All-Star Game.",
		teamName(teams, game.WonTID), teamName(teams, game.LostTID), game.WonPts, game.LostPts)
	if game.Tie {
		text = fmt.Sprintf("%s and %s tied %d-%d in the All-Star Game.",
			teamName(teams, game.WonTID), teamName(teams, game.LostTID), game.WonPts, game.LostPts)
	}
	ev := simdomain.NewEvent(simdomain.EventExhibition, run.lc.Season, text)
	ev.GID = &game.GID
	ev.Score = 10
	return s.emit(ctx, run, ev)
}

func gameOutcomeWord(result *simdomain.GameResult, side int) string {
	switch result.WinnerIndex() {
	case side:
		return "win"
	case -1:
		return "tie"
	default:
		return "loss"
	}
}

func teamName(teams map[int]*simdomain.TeamSimState, tid int) string {
	if t, ok := teams[tid]; ok && t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("team %d", tid)
}
