package simhandlers

import (
	"context"
	"net/http"

	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	"github.com/Black-And-White-Club/league-sim/pkg/jwt"
)

// Handlers serves the control API.
type Handlers interface {
	HandlePlay(w http.ResponseWriter, r *http.Request)
	HandleStop(w http.ResponseWriter, r *http.Request)
	HandleStatus(w http.ResponseWriter, r *http.Request)
	HandleSetForcedWinner(w http.ResponseWriter, r *http.Request)
	HandleExportStats(w http.ResponseWriter, r *http.Request)
	HandleExportStandings(w http.ResponseWriter, r *http.Request)
	HandleUpdates(w http.ResponseWriter, r *http.Request)
}

// Dispatcher hands a play request to the background queue.
type Dispatcher interface {
	EnqueuePlayDays(ctx context.Context, req simservice.PlayRequest) (string, error)
}

// Exporter renders downloadable reports.
type Exporter interface {
	SeasonStatsXLSX(ctx context.Context, season int, playoffs bool) ([]byte, error)
	StandingsPNG(ctx context.Context, season int) ([]byte, error)
}

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}
