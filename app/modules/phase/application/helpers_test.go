package phaseservice

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	simmigrations "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/league-sim/db/bundb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var (
	_ simservice.PhaseManager      = (*PhaseService)(nil)
	_ simservice.ScheduleGenerator = (*PhaseService)(nil)
	_ simservice.FreeAgency        = (*PhaseService)(nil)
	_ simservice.TradeBroker       = (*PhaseService)(nil)
	_ simservice.DraftAssembler    = (*PhaseService)(nil)
)

// scriptedRand replays fixed values. IntN always returns 0.
type scriptedRand struct {
	floats []float64
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptedRand) IntN(int) int { return 0 }

type fixture struct {
	db   *bun.DB
	repo simdb.Repository
	svc  *PhaseService
	lc   *simdomain.LeagueContext
}

func newFixture(t *testing.T, rng simdomain.Rand) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := bundb.OpenSQLite(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, simmigrations.CreateSchema(ctx, db))

	if rng == nil {
		rng = rand.New(rand.NewPCG(3, 4))
	}
	repo := simdb.NewRepository(db)
	f := &fixture{
		db:   db,
		repo: repo,
		svc:  NewPhaseService(repo, logger, rng),
		lc: &simdomain.LeagueContext{
			LeagueID: "test",
			Season:   2025,
			Phase:    simdomain.PhasePreseason,
			UserTIDs: []int{0},
			Settings: simdomain.Settings{
				NumGames:              6,
				NumGamesPlayoffSeries: []int{3, 3},
				SalaryCap:             200000,
				DefaultSalaryCap:      200000,
				MinRosterSize:         1,
				MaxRosterSize:         3,
			},
		},
	}
	require.NoError(t, repo.SaveLeagueState(ctx, nil, &simdb.LeagueState{
		LeagueID:       "test",
		Season:         2025,
		StartingSeason: 2025,
		Phase:          simdomain.PhasePreseason,
		UserTIDs:       []int{0},
		NextGID:        1,
	}))
	return f
}

// addTeams creates n teams in group 0.
func (f *fixture) addTeams(t *testing.T, n int) {
	t.Helper()
	for tid := range n {
		require.NoError(t, f.repo.UpsertTeam(context.Background(), nil, &simdb.Team{
			TID:    tid,
			Region: "Town",
			Name:   string(rune('A' + tid)),
			Abbrev: string(rune('A' + tid)),
			Pop:    1,
		}))
	}
}

// addRecord stores a season record for tid.
func (f *fixture) addRecord(t *testing.T, tid, won, lost int) {
	t.Helper()
	require.NoError(t, f.repo.UpsertTeamSeason(context.Background(), nil, &simdb.TeamSeason{
		TID:              tid,
		Season:           f.lc.Season,
		Won:              won,
		Lost:             lost,
		Hype:             0.5,
		Pop:              1,
		PlayoffRoundsWon: -1,
	}))
}

func (f *fixture) addPlayer(t *testing.T, pid, tid int, value float64, amount int64) {
	t.Helper()
	require.NoError(t, f.repo.UpsertPlayer(context.Background(), nil, &simdb.Player{
		PID:       pid,
		TID:       tid,
		FirstName: "P",
		LastName:  string(rune('A' + pid%26)),
		Born:      2000,
		Injury:    simdomain.Injury{Type: simdomain.InjuryHealthy},
		Value:     value,
		Contract:  simdb.Contract{Amount: decimal.NewFromInt(amount), Exp: 2026},
	}))
}
