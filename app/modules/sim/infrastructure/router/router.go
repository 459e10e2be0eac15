package simrouter

import (
	simhandlers "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/handlers"
	"github.com/Black-And-White-Club/league-sim/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

// Router mounts the control API on a chi mux.
type Router struct {
	handlers simhandlers.Handlers
	tokens   simhandlers.TokenValidator
	limiter  *simhandlers.IPRateLimiter
}

// NewRouter creates a new Router.
func NewRouter(handlers simhandlers.Handlers, tokens simhandlers.TokenValidator, limiter *simhandlers.IPRateLimiter) *Router {
	return &Router{
		handlers: handlers,
		tokens:   tokens,
		limiter:  limiter,
	}
}

// Configure registers every /sim route. Reads need a viewer token; anything that changes
// the league needs a commissioner token.
func (rt *Router) Configure(mux chi.Router) {
	mux.Route("/sim", func(r chi.Router) {
		r.Use(simhandlers.RateLimitMiddleware(rt.limiter))
		r.Use(simhandlers.BearerAuth(rt.tokens))

		r.Group(func(r chi.Router) {
			r.Use(simhandlers.RequireRole(jwt.RoleViewer))
			r.Get("/status", rt.handlers.HandleStatus)
			r.Get("/updates", rt.handlers.HandleUpdates)
			r.Get("/export/stats.xlsx", rt.handlers.HandleExportStats)
			r.Get("/export/standings.png", rt.handlers.HandleExportStandings)
		})

		r.Group(func(r chi.Router) {
			r.Use(simhandlers.RequireRole(jwt.RoleCommissioner))
			r.Post("/play", rt.handlers.HandlePlay)
			r.Post("/stop", rt.handlers.HandleStop)
			r.Put("/games/{gid}/forced-winner", rt.handlers.HandleSetForcedWinner)
		})
	})
}
