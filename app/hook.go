package app

import (
	"context"
	"log/slog"
	"net/http"
)

// WaitForShutdown drains the HTTP servers and closes the app.
func (app *App) WaitForShutdown(servers []*http.Server) {
	app.Logger.Info("Shutting down application")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			app.Logger.Error("HTTP server shutdown failed", slog.String("address", srv.Addr), slog.Any("error", err))
		}
	}

	if err := app.Close(); err != nil {
		app.Logger.Error("Error during shutdown", slog.Any("error", err))
		return
	}
	app.Logger.Info("Application shut down gracefully")
}
