package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	phaseservice "github.com/Black-And-White-Club/league-sim/app/modules/phase/application"
	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	simautoplay "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/autoplay"
	simexport "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/export"
	"github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/gamesim"
	simhandlers "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/handlers"
	simnotify "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/notify"
	simqueue "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/queue"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	simrouter "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/router"
	"github.com/Black-And-White-Club/league-sim/config"
	"github.com/Black-And-White-Club/league-sim/pkg/simmetrics"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// realtimeInterval is the minimum gap between throttled realtime updates.
const realtimeInterval = 250 * time.Millisecond

// Module represents the simulation module.
type Module struct {
	config     *config.Config
	service    *simservice.SimService
	exporter   *simexport.Exporter
	dispatcher simqueue.Dispatcher
	autoPlayer *simautoplay.AutoPlayer
	cancelFunc context.CancelFunc
	logger     *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewModule wires the scheduler, its collaborators and the control API. A nil httpRouter
// skips route registration, which is how the CLI uses it.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics simmetrics.Metrics,
	db *bun.DB,
	lock simservice.Lock,
	bus *gochannel.GoChannel,
	httpRouter chi.Router,
	tokens simhandlers.TokenValidator,
) (*Module, error) {
	logger.InfoContext(ctx, "Initializing sim module")

	repo := simdb.NewRepository(db)
	phases := phaseservice.NewPhaseService(repo, logger, newRand())

	collab := simservice.Collaborators{
		Generator:  gamesim.NewGenerator(newRand()),
		Phases:     phases,
		Playoffs:   phases,
		AllStars:   phases,
		FreeAgency: phases,
		Trades:     phases,
		Lock:       lock,
		Events:     simnotify.NewEventLog(bus, logger),
		Notifier:   simnotify.NewNotifier(bus, rate.NewLimiter(rate.Every(realtimeInterval), 1), logger),
	}

	service := simservice.NewSimService(
		repo,
		collab,
		simservice.SettingsFromConfig(cfg.Simulation),
		logger,
		metrics,
		tracer,
		db,
		newRand(),
	)

	var dispatcher simqueue.Dispatcher
	if cfg.Database.Driver == "postgres" {
		q, err := simqueue.NewService(ctx, cfg.Postgres.DSN, service, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create sim queue: %w", err)
		}
		dispatcher = q
	} else {
		dispatcher = simqueue.NewInlineDispatcher(service, logger)
	}

	var autoPlayer *simautoplay.AutoPlayer
	if cfg.AutoPlay.Enabled {
		ap, err := simautoplay.NewAutoPlayer(service, cfg.AutoPlay.Interval, cfg.AutoPlay.DaysPerTick, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create autoplay: %w", err)
		}
		autoPlayer = ap
	}

	exporter := simexport.NewExporter(repo, logger)

	if httpRouter != nil {
		handlers := simhandlers.NewSimHandlers(service, dispatcher, exporter, bus, logger, tracer)
		limiter := simhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateLimitBurst)
		simrouter.NewRouter(handlers, tokens, limiter).Configure(httpRouter)
	}

	return &Module{
		config:     cfg,
		service:    service,
		exporter:   exporter,
		dispatcher: dispatcher,
		autoPlayer: autoPlayer,
		logger:     logger,
	}, nil
}

// Run starts the queue and, when enabled, auto-play. It blocks until ctx is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting sim module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.dispatcher.Start(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to start sim queue", slog.Any("error", err))
		return
	}

	if m.autoPlayer != nil {
		if err := m.autoPlayer.Start(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Failed to start autoplay", slog.Any("error", err))
			return
		}
	}

	m.logger.InfoContext(ctx, "Sim module started", slog.Bool("autoplay", m.autoPlayer != nil))

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Sim module goroutine stopped")
}

// Close stops auto-play first so nothing new is enqueued, then the queue. Later calls
// return the first call's result.
func (m *Module) Close() error {
	m.closeOnce.Do(func() { m.closeErr = m.close() })
	return m.closeErr
}

func (m *Module) close() error {
	m.logger.Info("Stopping sim module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	var firstErr error
	if m.autoPlayer != nil {
		if err := m.autoPlayer.Stop(); err != nil {
			m.logger.Error("Error stopping autoplay", slog.Any("error", err))
			firstErr = err
		}
	}
	if err := m.dispatcher.Stop(context.Background()); err != nil {
		m.logger.Error("Error stopping sim queue", slog.Any("error", err))
		if firstErr == nil {
			firstErr = fmt.Errorf("error stopping queue: %w", err)
		}
	}

	m.logger.Info("Sim module stopped")
	return firstErr
}

// GetService returns the scheduler for the CLI.
func (m *Module) GetService() simservice.Service {
	return m.service
}

// GetExporter returns the report exporter for the CLI.
func (m *Module) GetExporter() *simexport.Exporter {
	return m.exporter
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
