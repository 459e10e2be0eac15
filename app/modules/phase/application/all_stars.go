package phaseservice

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// allStarRosterSize is the number of players picked across both sides.
const allStarRosterSize = 24

// AssembleAllStars picks the best healthy players and snake-drafts them into two sides.
func (s *PhaseService) AssembleAllStars(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error {
	players, err := s.repo.ListRosteredPlayers(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to list rostered players: %w", err)
	}

	healthy := slices.DeleteFunc(players, func(p simdb.Player) bool {
		return p.Injury.GamesRemaining > 0
	})
	slices.SortStableFunc(healthy, func(a, b simdb.Player) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.PID, b.PID)
	})
	if len(healthy) > allStarRosterSize {
		healthy = healthy[:allStarRosterSize]
	}

	teams := [][]int{{}, {}}
	for i, p := range healthy {
		// A B B A A B B A ...
		side := 0
		if r := i % 4; r == 1 || r == 2 {
			side = 1
		}
		teams[side] = append(teams[side], p.PID)
	}

	if err := s.repo.UpsertAllStars(ctx, db, &simdb.AllStars{
		Season:    lc.Season,
		Teams:     teams,
		Finalized: true,
	}); err != nil {
		return fmt.Errorf("failed to save all-stars: %w", err)
	}
	s.logger.InfoContext(ctx, "All-stars selected",
		slog.Int("season", lc.Season),
		slog.Int("players", len(healthy)),
	)
	return nil
}
