package phaseservice

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	"github.com/uptrace/bun"
)

const (
	// tradeChance is the per-day chance two AI teams make a deal.
	tradeChance = 0.05
	// maxTradeValueGap is the largest value difference both sides will accept.
	maxTradeValueGap = 5.0
)

// BetweenAITeams occasionally swaps two comparable players between computer-run teams.
func (s *PhaseService) BetweenAITeams(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error {
	if s.rng.Float64() >= tradeChance {
		return nil
	}

	teams, err := s.repo.ListTeams(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to list teams: %w", err)
	}
	var ai []int
	for _, t := range teams {
		if !t.Disabled && !lc.IsUserTeam(t.TID) {
			ai = append(ai, t.TID)
		}
	}
	if len(ai) < 2 {
		return nil
	}
	s.shuffle(ai)
	tidA, tidB := ai[0], ai[1]

	rosterA, err := s.repo.ListPlayersByTeam(ctx, db, tidA)
	if err != nil {
		return fmt.Errorf("failed to list roster of team %d: %w", tidA, err)
	}
	rosterB, err := s.repo.ListPlayersByTeam(ctx, db, tidB)
	if err != nil {
		return fmt.Errorf("failed to list roster of team %d: %w", tidB, err)
	}
	if len(rosterA) == 0 || len(rosterB) == 0 {
		return nil
	}

	a := &rosterA[s.rng.IntN(len(rosterA))]
	for i := range rosterB {
		b := &rosterB[i]
		if math.Abs(a.Value-b.Value) > maxTradeValueGap {
			continue
		}
		a.TID, b.TID = tidB, tidA
		a.RosterOrder, b.RosterOrder = b.RosterOrder, a.RosterOrder
		if err := s.repo.UpsertPlayer(ctx, db, a); err != nil {
			return fmt.Errorf("failed to move player %d: %w", a.PID, err)
		}
		if err := s.repo.UpsertPlayer(ctx, db, b); err != nil {
			return fmt.Errorf("failed to move player %d: %w", b.PID, err)
		}
		s.logger.InfoContext(ctx, "AI trade completed",
			slog.Int("tid_a", tidA),
			slog.Int("pid_a", a.PID),
			slog.Int("tid_b", tidB),
			slog.Int("pid_b", b.PID),
		)
		return nil
	}
	return nil
}
