// Package phaseservice implements the collaborators the simulation engine hands control to:
// phase changes, playoff scheduling, the free-agent market, AI trades and the all-star draft.
package phaseservice

import (
	"log/slog"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
)

// PhaseService runs inside the caller's transaction. Every method takes the caller's bun.IDB.
type PhaseService struct {
	repo   simdb.Repository
	logger *slog.Logger
	rng    simdomain.Rand
}

// NewPhaseService creates a new PhaseService.
func NewPhaseService(repo simdb.Repository, logger *slog.Logger, rng simdomain.Rand) *PhaseService {
	return &PhaseService{
		repo:   repo,
		logger: logger,
		rng:    rng,
	}
}
