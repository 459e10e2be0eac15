package sim_integration_tests

import (
	"context"
	"math/rand/v2"
	"testing"

	phaseservice "github.com/Black-And-White-Club/league-sim/app/modules/phase/application"
	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	"github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/gamesim"
	simlock "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/lock"
	simnotify "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/notify"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	simseed "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/seed"
	"github.com/Black-And-White-Club/league-sim/pkg/simmetrics"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

const season = 2030

func testSettings() simdomain.Settings {
	return simdomain.Settings{
		NumGames:              6,
		NumGamesPlayoffSeries: []int{1, 1},
		PlayThroughInjuries:   [2]int{0, 4},
		InjuryRate:            0.0025,
		SalaryCap:             200000,
		DefaultSalaryCap:      200000,
		MinRosterSize:         45,
		MaxRosterSize:         53,
		ForceWinAttempts:      200,
	}
}

type league struct {
	repo    simdb.Repository
	service *simservice.SimService
}

// newLeague seeds a four-team league into a clean database, schedules its regular season
// and returns a scheduler over it.
func newLeague(t *testing.T, lock simservice.Lock) *league {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, testEnv.ResetDB())

	logger := testEnv.Logger
	repo := simdb.NewRepository(testEnv.DB)
	settings := testSettings()

	require.NoError(t, simseed.NewSeeder(repo, 11, logger).Seed(ctx, nil, simseed.Options{
		LeagueID:   "it",
		Season:     season,
		Teams:      4,
		FreeAgents: 10,
		UserTIDs:   []int{0},
	}))

	phases := phaseservice.NewPhaseService(repo, logger, rand.New(rand.NewPCG(1, 2)))
	lc := &simdomain.LeagueContext{LeagueID: "it", Season: season, UserTIDs: []int{0}, Settings: settings}
	require.NoError(t, phases.NewPhase(ctx, testEnv.DB, lc, simdomain.PhaseRegularSeason, simdomain.Conditions{Source: "test"}, false))

	if lock == nil {
		lock = simlock.NewMemoryLock()
	}
	bus := simnotify.NewPubSub(logger)
	t.Cleanup(func() { _ = bus.Close() })

	service := simservice.NewSimService(
		repo,
		simservice.Collaborators{
			Generator:  gamesim.NewGenerator(rand.New(rand.NewPCG(3, 4))),
			Phases:     phases,
			Playoffs:   phases,
			AllStars:   phases,
			FreeAgency: phases,
			Trades:     phases,
			Lock:       lock,
			Events:     simnotify.NewEventLog(bus, logger),
			Notifier:   simnotify.NewNotifier(bus, nil, logger),
		},
		settings,
		logger,
		simmetrics.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		testEnv.DB,
		rand.New(rand.NewPCG(5, 6)),
	)
	return &league{repo: repo, service: service}
}

func (l *league) countGames(t *testing.T) int {
	t.Helper()
	n, err := testEnv.DB.NewSelect().Model((*simdb.Game)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}
