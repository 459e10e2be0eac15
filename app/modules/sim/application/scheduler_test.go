package simservice

import (
	"context"
	"strings"
	"testing"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestPlay_SingleGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 5)
	h.schedule(t, simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1})

	result, err := h.svc.Play(ctx, PlayRequest{NumDays: 1, Start: true})
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	assert.Equal(t, 1, result.Success.DaysPlayed)
	assert.Equal(t, 1, result.Success.GamesPlayed)
	assert.False(t, result.Success.Stopped)

	home, err := h.repo.GetTeamSeason(ctx, nil, 0, 2025)
	require.NoError(t, err)
	away, err := h.repo.GetTeamSeason(ctx, nil, 1, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, home.Won)
	assert.Equal(t, 0, home.Lost)
	assert.Equal(t, 1, away.Lost)
	assert.Equal(t, []simdomain.Outcome{simdomain.OutcomeWin}, home.LastTen)
	assert.Equal(t, 1, home.GPHome)
	assert.Positive(t, home.Attendance)

	stats, err := h.repo.GetTeamStats(ctx, nil, 0, 2025, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stats[simdomain.StatGP])
	assert.Equal(t, 101, stats.Stats[simdomain.StatPts])
	assert.Equal(t, 98, stats.Stats["oppPts"])

	game, err := h.repo.GetGame(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, game.WonTID)
	assert.Equal(t, 101, game.WonPts)
	assert.Equal(t, 98, game.LostPts)
	assert.False(t, game.Tie)

	qb, err := h.repo.GetLatestPlayerStats(ctx, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, qb.Stats[simdomain.StatGP])
	assert.Equal(t, 1, qb.Stats[simdomain.StatQBW])
	loser, err := h.repo.GetLatestPlayerStats(ctx, nil, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, loser.Stats[simdomain.StatQBL])

	schedule, err := h.repo.GetSchedule(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, schedule)

	running, _ := h.lock.Get(ctx, simdomain.FlagGameSim)
	assert.False(t, running, "lock released after the run")
	assert.Equal(t, simdomain.SimStateIdle, h.svc.State())
}

func TestPlay_ForcedWinSucceeds(t *testing.T) {
	ctx := context.Background()
	settings := testSettings()
	settings.GodMode = true
	h := newHarness(t, settings)
	h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 5)
	h.schedule(t, simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1, ForcedWinnerTID: intPtr(1)})

	// The away side only wins once the bias has grown past 2.
	h.gen.SimulateFunc = func(gid int, teams [2]*simdomain.TeamSimState, opts simdomain.SimOptions) (*simdomain.GameResult, error) {
		if opts.HomeCourtFactor < 0.5 {
			return boxScore(gid, teams, 90, 100), nil
		}
		return boxScore(gid, teams, 101, 98), nil
	}

	result, err := h.svc.Play(ctx, PlayRequest{NumDays: 1})
	require.NoError(t, err)
	require.True(t, result.IsSuccess())

	game, err := h.repo.GetGame(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, game.WonTID)
	assert.Equal(t, 7, game.ForceWin)
	assert.Equal(t, 7, h.gen.Calls)
	assert.Empty(t, h.events.OfType(simdomain.EventGameSimError))
}

func TestPlay_ForcedWinExhausted(t *testing.T) {
	ctx := context.Background()
	settings := testSettings()
	settings.GodMode = true
	h := newHarness(t, settings)
	h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 5)
	h.schedule(t,
		simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1, ForcedWinnerTID: intPtr(1)},
		simdb.ScheduleGame{GID: 2, Day: 2, HomeTID: 1, AwayTID: 0},
	)

	result, err := h.svc.Play(ctx, PlayRequest{NumDays: 2})
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	assert.True(t, result.Success.Stopped)
	assert.Zero(t, result.Success.GamesPlayed)
	assert.Equal(t, 10, h.gen.Calls)

	errs := h.events.OfType(simdomain.EventGameSimError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Could not find a simulation in 10 tries where the City Bears beat the City Hawks.", errs[0].Text)
	assert.True(t, errs[0].Persistent)

	stored, err := h.repo.ListEvents(ctx, nil, 2025, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	stop, _ := h.lock.Get(ctx, simdomain.FlagStopGameSim)
	assert.True(t, stop)

	_, err = h.repo.GetGame(ctx, nil, 1)
	assert.ErrorIs(t, err, simdb.ErrNotFound)
	schedule, err := h.repo.GetSchedule(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, schedule, 2)

	// The interrupted day never reached the day boundary.
	assert.Zero(t, h.fa.AutoSignCalls)
}

func TestPlay_ResumedDayCountsInjuriesOnce(t *testing.T) {
	ctx := context.Background()
	settings := testSettings()
	settings.GodMode = true
	h := newHarness(t, settings)
	h.seedLeague(t, simdomain.PhaseRegularSeason, 4, 4)
	h.schedule(t,
		simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1},
		simdb.ScheduleGame{GID: 2, Day: 1, HomeTID: 2, AwayTID: 3, ForcedWinnerTID: intPtr(3)},
	)
	h.injurePlayer(t, 2, 5)   // team 0 plays before the interruption
	h.injurePlayer(t, 202, 5) // team 2 plays after the resume

	games := func(pid int) int {
		t.Helper()
		p, err := h.repo.GetPlayer(ctx, nil, pid)
		require.NoError(t, err)
		return p.Injury.GamesRemaining
	}

	result, err := h.svc.Play(ctx, PlayRequest{NumDays: 1, Start: true})
	require.NoError(t, err)
	require.True(t, result.Success.Stopped)
	assert.Equal(t, 1, result.Success.GamesPlayed)
	assert.Equal(t, 4, games(2))
	assert.Equal(t, 5, games(202))

	require.NoError(t, h.repo.SetForcedWinner(ctx, nil, 2, nil))
	result, err = h.svc.Play(ctx, PlayRequest{NumDays: 1, Start: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success.GamesPlayed)

	assert.Equal(t, 4, games(2), "the resumed day already counted this injury")
	assert.Equal(t, 4, games(202))
	assert.Equal(t, 1, h.fa.AutoSignCalls)
}

func TestPlay_FailedDayRollsBackRun(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhaseRegularSeason, 3, 4)
	h.schedule(t,
		simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1},
		simdb.ScheduleGame{GID: 2, Day: 2, HomeTID: 2, AwayTID: 0},
	)
	_, err := h.db.NewDelete().Model((*simdb.TeamSeason)(nil)).Where("tid = ?", 2).Exec(ctx)
	require.NoError(t, err)

	_, err = h.svc.Play(ctx, PlayRequest{NumDays: 2})
	require.ErrorIs(t, err, simdb.ErrTeamSeasonNotFound)

	_, err = h.repo.GetGame(ctx, nil, 1)
	assert.ErrorIs(t, err, simdb.ErrNotFound, "day one was rolled back with day two")
	schedule, err := h.repo.GetSchedule(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, schedule, 2)
	ts, err := h.repo.GetTeamSeason(ctx, nil, 0, 2025)
	require.NoError(t, err)
	assert.Zero(t, ts.Won)
	_, err = h.repo.GetLatestPlayerStats(ctx, nil, 0)
	assert.ErrorIs(t, err, simdb.ErrNotFound)

	assert.Empty(t, h.events.Events)
	running, _ := h.lock.Get(ctx, simdomain.FlagGameSim)
	assert.False(t, running)
	assert.Equal(t, simdomain.SimStateIdle, h.svc.State())
}

func TestForceWinBias(t *testing.T) {
	assert.Equal(t, 1.0, ForceWinBias(0, 2000))
	assert.Equal(t, 1.0, ForceWinBias(499, 2000))
	assert.Equal(t, 1.0, ForceWinBias(500, 2000))
	assert.InDelta(t, 3.0, ForceWinBias(1999, 2000), 1e-9)
	assert.InDelta(t, 2.0, ForceWinBias(5, 9), 1e-9)
	assert.Equal(t, 3.0, ForceWinBias(0, 1))

	prev := 0.0
	for i := range 2000 {
		b := ForceWinBias(i, 2000)
		assert.GreaterOrEqual(t, b, prev)
		prev = b
	}
}

func TestPlay_InjuriesDecayOncePerDay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhaseRegularSeason, 5, 4)
	h.schedule(t,
		simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1},
		simdb.ScheduleGame{GID: 2, Day: 2, HomeTID: 1, AwayTID: 0},
	)
	h.injurePlayer(t, 2, 2)   // plays both days
	h.injurePlayer(t, 400, 3) // team 4 never plays

	_, err := h.svc.Play(ctx, PlayRequest{NumDays: 1})
	require.NoError(t, err)

	onTeam, err := h.repo.GetPlayer(ctx, nil, 2)
	require.NoError(t, err)
	idle, err := h.repo.GetPlayer(ctx, nil, 400)
	require.NoError(t, err)
	assert.Equal(t, 1, onTeam.Injury.GamesRemaining)
	assert.Equal(t, 2, idle.Injury.GamesRemaining)

	_, err = h.svc.Play(ctx, PlayRequest{NumDays: 1})
	require.NoError(t, err)

	onTeam, err = h.repo.GetPlayer(ctx, nil, 2)
	require.NoError(t, err)
	idle, err = h.repo.GetPlayer(ctx, nil, 400)
	require.NoError(t, err)
	assert.True(t, onTeam.Injury.IsHealthy())
	assert.Equal(t, simdomain.InjuryHealthy, onTeam.Injury.Type)
	assert.Equal(t, 1, idle.Injury.GamesRemaining)

	healed := h.events.OfType(simdomain.EventHealed)
	require.Len(t, healed, 1)
	assert.Equal(t, []int{2}, healed[0].PIDs)
}

func TestPlay_DayBoundaryRunsOncePerDay(t *testing.T) {
	ctx := context.Background()

	t.Run("three games", func(t *testing.T) {
		h := newHarness(t, testSettings())
		h.seedLeague(t, simdomain.PhaseRegularSeason, 6, 3)
		h.schedule(t,
			simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1},
			simdb.ScheduleGame{GID: 2, Day: 1, HomeTID: 2, AwayTID: 3},
			simdb.ScheduleGame{GID: 3, Day: 1, HomeTID: 4, AwayTID: 5},
		)

		result, err := h.svc.Play(ctx, PlayRequest{NumDays: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Success.GamesPlayed)
		assert.Equal(t, 1, h.fa.DecreaseCalls)
		assert.Equal(t, 1, h.fa.AutoSignCalls)
		assert.Equal(t, 1, h.trades.Calls)
	})

	t.Run("no games ends the regular season", func(t *testing.T) {
		h := newHarness(t, testSettings())
		h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 3)

		result, err := h.svc.Play(ctx, PlayRequest{NumDays: 5})
		require.NoError(t, err)
		assert.Zero(t, result.Success.DaysPlayed)
		require.NotNil(t, result.Success.NewPhase)
		assert.Equal(t, simdomain.PhasePlayoffs, *result.Success.NewPhase)
		assert.Equal(t, []simdomain.Phase{simdomain.PhasePlayoffs}, h.phases.Phases)
		assert.Equal(t, 1, h.fa.AutoSignCalls)
		assert.Equal(t, 1, h.trades.Calls)
	})
}

func seedBracket(t *testing.T, h *harness, bracket simdomain.PlayoffSeries) {
	t.Helper()
	require.NoError(t, h.repo.UpsertPlayoffSeries(context.Background(), nil, &simdb.PlayoffSeries{
		Season:  2025,
		Bracket: bracket,
	}))
}

func TestPlay_BestOfSevenDecidedAtFourTwo(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhasePlayoffs, 2, 5)
	seedBracket(t, h, simdomain.PlayoffSeries{
		Season:   2025,
		NumGames: []int{7},
		Rounds: [][]simdomain.Matchup{{{
			Home: simdomain.SeriesSide{TID: 0, Seed: 1, Won: 3},
			Away: simdomain.SeriesSide{TID: 1, Seed: 2, Won: 2},
		}}},
	})
	h.schedule(t, simdb.ScheduleGame{GID: 10, Day: 1, HomeTID: 0, AwayTID: 1})

	_, err := h.svc.Play(ctx, PlayRequest{NumDays: 1})
	require.NoError(t, err)

	series, err := h.repo.GetPlayoffSeries(ctx, nil, 2025)
	require.NoError(t, err)
	m := series.Bracket.Rounds[0][0]
	assert.Equal(t, 4, m.Home.Won)
	assert.Equal(t, 2, m.Away.Won)
	assert.Equal(t, []int{10}, m.GIDs)

	decided := h.events.OfType(simdomain.EventSeriesDecided)
	require.Len(t, decided, 1)
	assert.True(t, strings.Contains(decided[0].Text, "4-2"), decided[0].Text)
	assert.Equal(t, 20, decided[0].Score)

	summary := h.events.OfType(simdomain.EventPlayoffs)
	require.Len(t, summary, 1)
	assert.Contains(t, summary[0].Text, "game 6 of the finals, winning the series 4-2")

	// Records stay untouched in the playoffs; stats go to the playoff row.
	ts, err := h.repo.GetTeamSeason(ctx, nil, 0, 2025)
	require.NoError(t, err)
	assert.Zero(t, ts.Won)
	stats, err := h.repo.GetTeamStats(ctx, nil, 0, 2025, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stats[simdomain.StatGP])

	t.Run("a further game in the decided series is rejected", func(t *testing.T) {
		h.schedule(t, simdb.ScheduleGame{GID: 11, Day: 2, HomeTID: 1, AwayTID: 0})

		_, err := h.svc.Play(ctx, PlayRequest{NumDays: 1})
		require.ErrorIs(t, err, simdomain.ErrSeriesDecided)

		schedule, err := h.repo.GetSchedule(ctx, nil)
		require.NoError(t, err)
		require.Len(t, schedule, 1, "the failed day rolled back")
		_, err = h.repo.GetGame(ctx, nil, 11)
		assert.ErrorIs(t, err, simdb.ErrNotFound)
	})
}

func TestPlay_PlayInWinnerJoinsBracket(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhasePlayoffs, 8, 3)
	seedBracket(t, h, simdomain.PlayoffSeries{
		Season:       2025,
		CurrentRound: simdomain.PlayInRound,
		NumGames:     []int{7},
		PlayIns: [][]simdomain.Matchup{{{
			Home: simdomain.SeriesSide{TID: 6, Seed: 7},
			Away: simdomain.SeriesSide{TID: 7, Seed: 8},
		}}},
		Rounds: [][]simdomain.Matchup{{{
			Home: simdomain.SeriesSide{TID: 1, Seed: 2},
			Away: simdomain.SeriesSide{TID: -1, Seed: 7, PendingPlayIn: true},
		}}},
	})
	h.schedule(t, simdb.ScheduleGame{GID: 20, Day: 1, HomeTID: 6, AwayTID: 7})

	_, err := h.svc.Play(ctx, PlayRequest{NumDays: 1})
	require.NoError(t, err)

	ts, err := h.repo.GetTeamSeason(ctx, nil, 6, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, ts.PlayoffRoundsWon)
	loser, err := h.repo.GetTeamSeason(ctx, nil, 7, 2025)
	require.NoError(t, err)
	assert.Equal(t, -1, loser.PlayoffRoundsWon)

	series, err := h.repo.GetPlayoffSeries(ctx, nil, 2025)
	require.NoError(t, err)
	slot := series.Bracket.Rounds[0][0].Away
	assert.Equal(t, 6, slot.TID)
	assert.False(t, slot.PendingPlayIn)

	decided := h.events.OfType(simdomain.EventSeriesDecided)
	require.Len(t, decided, 1)
	assert.Contains(t, decided[0].Text, "101-98 in the play-in tournament")
}

func TestPlay_PlayoffsOver(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhasePlayoffs, 2, 3)
	h.playoffs.Over = true

	result, err := h.svc.Play(ctx, PlayRequest{NumDays: 3})
	require.NoError(t, err)
	assert.True(t, result.Success.PlayoffsOver)
	assert.Equal(t, 1, h.playoffs.Calls)
	assert.Equal(t, []simdomain.Phase{simdomain.PhaseDraftLottery}, h.phases.Phases)
}

func TestPlay_PlayoffDayScheduledOnDemand(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhasePlayoffs, 2, 3)
	seedBracket(t, h, simdomain.PlayoffSeries{
		Season:   2025,
		NumGames: []int{7},
		Rounds: [][]simdomain.Matchup{{{
			Home: simdomain.SeriesSide{TID: 0, Seed: 1},
			Away: simdomain.SeriesSide{TID: 1, Seed: 2},
		}}},
	})
	h.playoffs.NewScheduleFunc = func(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) (bool, error) {
		return false, h.repo.InsertSchedule(ctx, db, []simdb.ScheduleGame{{GID: 30, Day: 1, HomeTID: 0, AwayTID: 1}})
	}

	result, err := h.svc.Play(ctx, PlayRequest{NumDays: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success.GamesPlayed)
	assert.Equal(t, 1, h.playoffs.Calls)
}

func TestPlay_RosterViolation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 2)
	h.schedule(t, simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1})

	result, err := h.svc.Play(ctx, PlayRequest{NumDays: 1, Start: true})
	require.NoError(t, err)
	require.True(t, result.IsFailure())
	assert.ErrorIs(t, *result.Failure, ErrRosterSize)
	assert.Zero(t, h.gen.Calls)

	rosterErrs := h.events.OfType(simdomain.EventRosterError)
	require.Len(t, rosterErrs, 1)
	assert.False(t, rosterErrs[0].SaveToDB)
	assert.True(t, rosterErrs[0].Persistent)
	stored, err := h.repo.ListEvents(ctx, nil, 2025, 10)
	require.NoError(t, err)
	assert.Empty(t, stored)

	require.NotEmpty(t, h.notifier.Updates)
	assert.Contains(t, h.notifier.Updates, simdomain.RealtimeUpdate{
		Updates: []string{simdomain.UpdateStatus},
		Status:  simdomain.SimStateIdle,
	})

	running, _ := h.lock.Get(ctx, simdomain.FlagGameSim)
	assert.False(t, running)
}

func TestPlay_LockHeld(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 3)
	h.schedule(t, simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1})
	held := false
	h.lock.CanStart = &held

	result, err := h.svc.Play(ctx, PlayRequest{NumDays: 1, Start: true})
	require.NoError(t, err)
	require.True(t, result.IsFailure())
	assert.ErrorIs(t, *result.Failure, ErrSimulationLocked)
	assert.Zero(t, h.gen.Calls)
}

func TestPlay_Additive(t *testing.T) {
	ctx := context.Background()
	seed := func(t *testing.T) *harness {
		h := newHarness(t, testSettings())
		h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 4)
		h.schedule(t,
			simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1},
			simdb.ScheduleGame{GID: 2, Day: 2, HomeTID: 1, AwayTID: 0},
		)
		return h
	}

	together := seed(t)
	_, err := together.svc.Play(ctx, PlayRequest{NumDays: 2})
	require.NoError(t, err)

	split := seed(t)
	_, err = split.svc.Play(ctx, PlayRequest{NumDays: 1})
	require.NoError(t, err)
	_, err = split.svc.Play(ctx, PlayRequest{NumDays: 1})
	require.NoError(t, err)

	for tid := range 2 {
		a, err := together.repo.GetTeamSeason(ctx, nil, tid, 2025)
		require.NoError(t, err)
		b, err := split.repo.GetTeamSeason(ctx, nil, tid, 2025)
		require.NoError(t, err)
		assert.Equal(t, 1, a.Won)
		assert.Equal(t, 1, a.Lost)
		assert.Equal(t, a.Won, b.Won)
		assert.Equal(t, a.Lost, b.Lost)
		assert.Equal(t, a.Streak, b.Streak)

		sa, err := together.repo.GetTeamStats(ctx, nil, tid, 2025, false)
		require.NoError(t, err)
		sb, err := split.repo.GetTeamStats(ctx, nil, tid, 2025, false)
		require.NoError(t, err)
		assert.Equal(t, sa.Stats, sb.Stats)
	}
}

func TestPlay_StopRequested(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 3)
	h.schedule(t, simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1})

	require.NoError(t, h.svc.Stop(ctx))
	result, err := h.svc.Play(ctx, PlayRequest{NumDays: 3})
	require.NoError(t, err)
	assert.True(t, result.Success.Stopped)
	assert.Zero(t, h.gen.Calls)
}

func TestPlay_StopOnUserInjury(t *testing.T) {
	ctx := context.Background()
	settings := testSettings()
	settings.StopOnInjury = true
	h := newHarness(t, settings)
	h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 4)
	h.schedule(t,
		simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1},
		simdb.ScheduleGame{GID: 2, Day: 2, HomeTID: 1, AwayTID: 0},
	)
	h.gen.SimulateFunc = func(gid int, teams [2]*simdomain.TeamSimState, opts simdomain.SimOptions) (*simdomain.GameResult, error) {
		result := boxScore(gid, teams, 101, 98)
		for side := range 2 {
			if result.Teams[side].TID == 0 {
				result.Teams[side].Players[0].Injured = true
			}
		}
		return result, nil
	}

	result, err := h.svc.Play(ctx, PlayRequest{NumDays: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success.GamesPlayed)
	assert.True(t, result.Success.Stopped)

	p, err := h.repo.GetPlayer(ctx, nil, 0)
	require.NoError(t, err)
	assert.Positive(t, p.Injury.GamesRemaining)
	require.Len(t, p.Injuries, 1)
	assert.NotEmpty(t, h.events.OfType(simdomain.EventInjured))
}

func TestPlay_LiveGamePlayByPlay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 3)
	h.schedule(t, simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1})
	h.gen.SimulateFunc = func(gid int, teams [2]*simdomain.TeamSimState, opts simdomain.SimOptions) (*simdomain.GameResult, error) {
		result := boxScore(gid, teams, 101, 98)
		if opts.RecordPlayByPlay {
			result.PlayByPlay = []simdomain.PlayByPlayEvent{{Quarter: 1, TID: 0, Text: "Kickoff"}}
		}
		return result, nil
	}

	_, err := h.svc.Play(ctx, PlayRequest{NumDays: 1, LiveGameID: intPtr(1)})
	require.NoError(t, err)

	var live *simdomain.RealtimeUpdate
	for i := range h.notifier.Updates {
		if h.notifier.Updates[i].LiveGameID != nil {
			live = &h.notifier.Updates[i]
		}
	}
	require.NotNil(t, live)
	assert.Equal(t, 1, *live.LiveGameID)
	assert.Len(t, live.PlayByPlay, 1)
}

func TestPlay_AllStarGame(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 3)
	h.allStars.Assemble = func(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error {
		return h.repo.UpsertAllStars(ctx, db, &simdb.AllStars{
			Season:    lc.Season,
			Teams:     [][]int{{0, 1}, {100, 999}},
			Finalized: true,
		})
	}
	h.schedule(t, simdb.ScheduleGame{GID: 5, Day: 1, HomeTID: simdomain.TIDAllStarsA, AwayTID: simdomain.TIDAllStarsB})
	captain, err := h.repo.GetPlayer(ctx, nil, 100)
	require.NoError(t, err)
	captain.LastName = "Okafor"
	require.NoError(t, h.repo.UpsertPlayer(ctx, nil, captain))

	_, err = h.svc.Play(ctx, PlayRequest{NumDays: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, h.allStars.Calls)
	assert.Equal(t, simdomain.GameKindExhibition, h.gen.LastOpts.Kind)

	game, err := h.repo.GetGame(ctx, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, "exhibition", game.Kind)

	ex := h.events.OfType(simdomain.EventExhibition)
	require.Len(t, ex, 1)
	assert.Equal(t, "Team A defeated Team Okafor 101-98 in the All-Star Game.", ex[0].Text)

	ts, err := h.repo.GetTeamSeason(ctx, nil, 0, 2025)
	require.NoError(t, err)
	assert.Zero(t, ts.Won+ts.Lost)
	_, err = h.repo.GetLatestPlayerStats(ctx, nil, 0)
	assert.ErrorIs(t, err, simdb.ErrNotFound)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testSettings())
	h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 3)
	h.schedule(t,
		simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1},
		simdb.ScheduleGame{GID: 2, Day: 2, HomeTID: 1, AwayTID: 0},
	)

	report, err := h.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReport{
		State:          simdomain.SimStateIdle,
		Season:         2025,
		Phase:          "regular season",
		GamesScheduled: 2,
	}, report)
}

func TestSetForcedWinner(t *testing.T) {
	ctx := context.Background()

	t.Run("requires god mode", func(t *testing.T) {
		h := newHarness(t, testSettings())
		h.seedLeague(t, simdomain.PhaseRegularSeason, 2, 3)
		h.schedule(t, simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1})

		result, err := h.svc.SetForcedWinner(ctx, 1, intPtr(1))
		require.NoError(t, err)
		require.True(t, result.IsFailure())
		assert.ErrorIs(t, *result.Failure, ErrGodModeDisabled)
	})

	settings := testSettings()
	settings.GodMode = true
	h := newHarness(t, settings)
	h.seedLeague(t, simdomain.PhaseRegularSeason, 3, 3)
	h.schedule(t, simdb.ScheduleGame{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1})

	tests := []struct {
		name    string
		gid     int
		tid     *int
		wantErr error
	}{
		{"unknown game", 9, intPtr(0), ErrGameNotScheduled},
		{"team not in game", 1, intPtr(2), ErrInvalidForcedWinner},
		{"sets winner", 1, intPtr(1), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.svc.SetForcedWinner(ctx, tt.gid, tt.tid)
			require.NoError(t, err)
			if tt.wantErr != nil {
				require.True(t, result.IsFailure())
				assert.ErrorIs(t, *result.Failure, tt.wantErr)
				return
			}
			require.True(t, result.IsSuccess())
			schedule, err := h.repo.GetSchedule(ctx, nil)
			require.NoError(t, err)
			require.NotNil(t, schedule[0].ForcedWinnerTID)
			assert.Equal(t, 1, *schedule[0].ForcedWinnerTID)
		})
	}
}
