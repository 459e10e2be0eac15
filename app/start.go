package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Start serves the control API and metrics and runs the sim module until ctx is done.
func (app *App) Start(ctx context.Context) error {
	if app.Router == nil {
		return errors.New("app was built without HTTP routes")
	}

	servers := []*http.Server{{
		Addr:              app.Config.HTTP.Address,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if addr := app.Config.Observability.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
		servers = append(servers, &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			app.Logger.InfoContext(ctx, "HTTP server listening", slog.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server on %s: %w", srv.Addr, err)
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go app.SimModule.Run(ctx, &wg)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	app.WaitForShutdown(servers)
	wg.Wait()
	return runErr
}
