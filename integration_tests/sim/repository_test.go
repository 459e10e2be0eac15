package sim_integration_tests

import (
	"context"
	"testing"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/Black-And-White-Club/league-sim/integration_tests/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_PostgresRoundTrip(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testEnv.ResetDB())

	repo := simdb.NewRepository(testEnv.DB)
	gen := testutils.NewTestDataGenerator(42)

	team := gen.GenerateTeam(3, 1)
	require.NoError(t, repo.UpsertTeam(ctx, nil, team))

	qb := gen.GeneratePlayer(10, team.TID, simdomain.PosQB)
	qb.Injury = simdomain.Injury{Type: "Torn ACL", GamesRemaining: 40}
	require.NoError(t, repo.UpsertPlayer(ctx, nil, qb))
	require.NoError(t, repo.UpsertPlayer(ctx, nil, gen.GeneratePlayer(11, team.TID, simdomain.PosK)))

	gotTeam, err := repo.GetTeam(ctx, nil, team.TID)
	require.NoError(t, err)
	assert.Equal(t, team.Region, gotTeam.Region)
	assert.True(t, team.Cash.Equal(gotTeam.Cash))

	gotQB, err := repo.GetPlayer(ctx, nil, qb.PID)
	require.NoError(t, err)
	assert.Equal(t, qb.Ratings.Ovr, gotQB.Ratings.Ovr)
	assert.Equal(t, 40, gotQB.Injury.GamesRemaining)
	assert.True(t, qb.Contract.Amount.Equal(gotQB.Contract.Amount))

	n, err := repo.CountPlayersByTeam(ctx, nil, team.TID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.GetPlayer(ctx, nil, 999)
	assert.ErrorIs(t, err, simdb.ErrNotFound)
}

func TestRepository_ForcedWinnerOnSchedule(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testEnv.ResetDB())

	repo := simdb.NewRepository(testEnv.DB)
	require.NoError(t, repo.InsertSchedule(ctx, nil, []simdb.ScheduleGame{
		{GID: 1, Day: 1, HomeTID: 0, AwayTID: 1},
		{GID: 2, Day: 2, HomeTID: 1, AwayTID: 0},
	}))

	winner := 1
	require.NoError(t, repo.SetForcedWinner(ctx, nil, 1, &winner))

	today, err := repo.GetTodaySchedule(ctx, nil)
	require.NoError(t, err)
	require.Len(t, today, 1)
	require.NotNil(t, today[0].ForcedWinnerTID)
	assert.Equal(t, 1, *today[0].ForcedWinnerTID)

	require.NoError(t, repo.DeleteScheduleGame(ctx, nil, 1))
	today, err = repo.GetTodaySchedule(ctx, nil)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, 2, today[0].GID)
}
