package phaseservice

import (
	"context"
	"testing"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecreaseDemands(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.addPlayer(t, 1, simdomain.TIDFreeAgent, 50, 1000)
	f.addPlayer(t, 2, simdomain.TIDFreeAgent, 40, 510)
	f.addPlayer(t, 3, 1, 60, 1000)

	require.NoError(t, f.svc.DecreaseDemands(ctx, nil, f.lc))

	p1, err := f.repo.GetPlayer(ctx, nil, 1)
	require.NoError(t, err)
	assert.True(t, p1.Contract.Amount.Equal(decimal.NewFromInt(975)), p1.Contract.Amount.String())

	p2, err := f.repo.GetPlayer(ctx, nil, 2)
	require.NoError(t, err)
	assert.True(t, p2.Contract.Amount.Equal(decimal.NewFromInt(500)), p2.Contract.Amount.String())

	rostered, err := f.repo.GetPlayer(ctx, nil, 3)
	require.NoError(t, err)
	assert.True(t, rostered.Contract.Amount.Equal(decimal.NewFromInt(1000)))
}

func TestAutoSign(t *testing.T) {
	t.Run("ai team signs the best affordable free agent", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, &scriptedRand{floats: []float64{0.1}})
		f.addTeams(t, 2)
		f.addPlayer(t, 10, 1, 60, 199000)
		f.addPlayer(t, 1, simdomain.TIDFreeAgent, 80, 5000)
		f.addPlayer(t, 2, simdomain.TIDFreeAgent, 70, 900)

		require.NoError(t, f.svc.AutoSign(ctx, nil, f.lc))

		best, err := f.repo.GetPlayer(ctx, nil, 1)
		require.NoError(t, err)
		assert.Equal(t, simdomain.TIDFreeAgent, best.TID, "over the cap")

		signed, err := f.repo.GetPlayer(ctx, nil, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, signed.TID)
		assert.Equal(t, 1, signed.RosterOrder)
		assert.Equal(t, 2026, signed.Contract.Exp)
	})

	t.Run("user teams never sign", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, &scriptedRand{})
		f.addTeams(t, 1)
		f.addPlayer(t, 1, simdomain.TIDFreeAgent, 80, 500)

		require.NoError(t, f.svc.AutoSign(ctx, nil, f.lc))

		p, err := f.repo.GetPlayer(ctx, nil, 1)
		require.NoError(t, err)
		assert.Equal(t, simdomain.TIDFreeAgent, p.TID)
	})

	t.Run("full roster skips the team", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, &scriptedRand{})
		f.addTeams(t, 2)
		for pid := 10; pid < 13; pid++ {
			f.addPlayer(t, pid, 1, 50, 500)
		}
		f.addPlayer(t, 1, simdomain.TIDFreeAgent, 80, 500)

		require.NoError(t, f.svc.AutoSign(ctx, nil, f.lc))

		p, err := f.repo.GetPlayer(ctx, nil, 1)
		require.NoError(t, err)
		assert.Equal(t, simdomain.TIDFreeAgent, p.TID)
	})
}

func TestBetweenAITeams(t *testing.T) {
	t.Run("no trade most days", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, &scriptedRand{floats: []float64{0.9}})
		f.addTeams(t, 3)
		f.addPlayer(t, 100, 1, 50, 500)
		f.addPlayer(t, 200, 2, 52, 500)

		require.NoError(t, f.svc.BetweenAITeams(ctx, nil, f.lc))

		p, err := f.repo.GetPlayer(ctx, nil, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, p.TID)
	})

	t.Run("comparable players swap teams", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, &scriptedRand{floats: []float64{0.01}})
		f.addTeams(t, 3)
		f.addPlayer(t, 100, 1, 50, 500)
		f.addPlayer(t, 101, 1, 90, 500)
		f.addPlayer(t, 200, 2, 53, 500)

		require.NoError(t, f.svc.BetweenAITeams(ctx, nil, f.lc))

		// IntN always returns 0, so the shuffle turns [1 2] into [2 1] and team 2 offers first.
		offered, err := f.repo.GetPlayer(ctx, nil, 200)
		require.NoError(t, err)
		assert.Equal(t, 1, offered.TID)

		taken, err := f.repo.GetPlayer(ctx, nil, 100)
		require.NoError(t, err)
		assert.Equal(t, 2, taken.TID)

		kept, err := f.repo.GetPlayer(ctx, nil, 101)
		require.NoError(t, err)
		assert.Equal(t, 1, kept.TID, "value gap too large")
	})
}

func TestAssembleAllStars(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.addTeams(t, 2)
	for i := range 30 {
		f.addPlayer(t, 100+i, i%2, float64(100-i), 500)
	}
	hurt, err := f.repo.GetPlayer(ctx, nil, 100)
	require.NoError(t, err)
	hurt.Injury = simdomain.Injury{Type: "Sprained Ankle", GamesRemaining: 2}
	require.NoError(t, f.repo.UpsertPlayer(ctx, nil, hurt))

	require.NoError(t, f.svc.AssembleAllStars(ctx, nil, f.lc))

	as, err := f.repo.GetAllStars(ctx, nil, f.lc.Season)
	require.NoError(t, err)
	assert.True(t, as.Finalized)
	require.Len(t, as.Teams, 2)
	assert.Len(t, as.Teams[0], 12)
	assert.Len(t, as.Teams[1], 12)
	assert.Equal(t, []int{101, 104, 105}, as.Teams[0][:3])
	assert.Equal(t, []int{102, 103, 106}, as.Teams[1][:3])
	assert.NotContains(t, as.Teams[0], 100)
	assert.NotContains(t, as.Teams[1], 100)
}
