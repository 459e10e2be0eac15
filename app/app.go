// Package app wires configuration, storage, messaging and the simulation module into one
// process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Black-And-White-Club/league-sim/app/modules/sim"
	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	simlock "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/lock"
	simnotify "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/notify"
	"github.com/Black-And-White-Club/league-sim/config"
	"github.com/Black-And-White-Club/league-sim/db/bundb"
	"github.com/Black-And-White-Club/league-sim/pkg/jwt"
	"github.com/Black-And-White-Club/league-sim/pkg/simmetrics"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Black-And-White-Club/league-sim"

// App holds every long-lived dependency.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *bun.DB
	NATS     *nats.Conn
	Bus      *gochannel.GoChannel
	Registry *prometheus.Registry
	Metrics  simmetrics.Metrics
	Tracer   trace.Tracer
	Router   chi.Router
	Tokens   jwt.Service

	SimModule *sim.Module

	closeOnce sync.Once
	closeErr  error
}

// NewApp connects to storage and messaging and builds the sim module. withHTTP registers the
// control API routes; the CLI leaves it off.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, withHTTP bool) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
		Tracer: otel.Tracer(tracerName),
		Tokens: jwt.NewService(cfg.JWT.Secret, cfg.JWT.DefaultTTL),
	}

	db, err := bundb.Open(ctx, *cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.DB = db

	app.Registry = prometheus.NewRegistry()
	metrics, err := simmetrics.NewPrometheusMetrics(app.Registry)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	app.Metrics = metrics

	lock, err := app.openLock(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Bus = simnotify.NewPubSub(logger)

	var httpRouter chi.Router
	if withHTTP {
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		app.Router = r
		httpRouter = r
	}

	module, err := sim.NewModule(ctx, cfg, logger, app.Tracer, app.Metrics, db, lock, app.Bus, httpRouter, app.Tokens)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to initialize sim module: %w", err)
	}
	app.SimModule = module

	return app, nil
}

// openLock uses the JetStream bucket when NATS is configured, otherwise an in-process lock
// that only guards this process.
func (app *App) openLock(ctx context.Context) (simservice.Lock, error) {
	if app.Config.NATS.URL == "" {
		app.Logger.WarnContext(ctx, "NATS not configured, using in-process simulation lock")
		return simlock.NewMemoryLock(), nil
	}
	nc, err := nats.Connect(app.Config.NATS.URL, nats.Name("league-sim"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	app.NATS = nc
	lock, err := simlock.OpenKVLock(ctx, nc, app.Config.NATS.LockKV, app.Config.NATS.LeagueID, app.Logger)
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// Close releases everything NewApp opened, in reverse order. It is safe to call twice.
func (app *App) Close() error {
	app.closeOnce.Do(func() { app.closeErr = app.close() })
	return app.closeErr
}

func (app *App) close() error {
	var errs []error
	if app.SimModule != nil {
		errs = append(errs, app.SimModule.Close())
	}
	if app.Bus != nil {
		errs = append(errs, app.Bus.Close())
	}
	if app.NATS != nil {
		app.NATS.Close()
	}
	if app.DB != nil {
		errs = append(errs, app.DB.Close())
	}
	return errors.Join(errs...)
}
