package phaseservice

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

const (
	// demandDecay is applied to every free agent's asking amount once a day.
	demandDecay = 0.975
	// minContract is the salary floor before cap scaling.
	minContract = 500
	// autoSignChance is the per-day chance an AI team looks at the market.
	autoSignChance = 0.5
)

// minContractAmount is the league minimum for lc's cap.
func minContractAmount(lc *simdomain.LeagueContext) decimal.Decimal {
	return decimal.NewFromFloat(minContract * lc.Settings.SalaryCapScale()).Round(2)
}

// DecreaseDemands lowers every free agent's asking amount, never below the minimum contract.
func (s *PhaseService) DecreaseDemands(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error {
	players, err := s.repo.ListPlayersByTeam(ctx, db, simdomain.TIDFreeAgent)
	if err != nil {
		return fmt.Errorf("failed to list free agents: %w", err)
	}

	floor := minContractAmount(lc)
	factor := decimal.NewFromFloat(demandDecay)
	changed := 0
	for i := range players {
		p := &players[i]
		amount := decimal.Max(p.Contract.Amount.Mul(factor).Round(2), floor)
		if amount.Equal(p.Contract.Amount) {
			continue
		}
		p.Contract.Amount = amount
		if err := s.repo.UpsertPlayer(ctx, db, p); err != nil {
			return fmt.Errorf("failed to save free agent %d: %w", p.PID, err)
		}
		changed++
	}

	s.logger.DebugContext(ctx, "Free agent demands decreased", slog.Int("players", changed))
	return nil
}

// AutoSign lets each AI team, in random order, sign at most one free agent it can afford.
func (s *PhaseService) AutoSign(ctx context.Context, db bun.IDB, lc *simdomain.LeagueContext) error {
	freeAgents, err := s.repo.ListPlayersByTeam(ctx, db, simdomain.TIDFreeAgent)
	if err != nil {
		return fmt.Errorf("failed to list free agents: %w", err)
	}
	if len(freeAgents) == 0 {
		return nil
	}
	slices.SortStableFunc(freeAgents, func(a, b simdb.Player) int {
		return cmp.Compare(b.Value, a.Value)
	})

	teams, err := s.repo.ListTeams(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to list teams: %w", err)
	}
	order := make([]int, 0, len(teams))
	for _, t := range teams {
		if !t.Disabled && !lc.IsUserTeam(t.TID) {
			order = append(order, t.TID)
		}
	}
	s.shuffle(order)

	capAmount := decimal.NewFromInt(lc.Settings.SalaryCap)
	floor := minContractAmount(lc)
	signed := make(map[int]bool)

	for _, tid := range order {
		if s.rng.Float64() >= autoSignChance {
			continue
		}
		roster, err := s.repo.ListPlayersByTeam(ctx, db, tid)
		if err != nil {
			return fmt.Errorf("failed to list roster of team %d: %w", tid, err)
		}
		if len(roster) >= lc.Settings.MaxRosterSize {
			continue
		}
		payroll := decimal.Zero
		for _, p := range roster {
			payroll = payroll.Add(p.Contract.Amount)
		}

		for i := range freeAgents {
			p := &freeAgents[i]
			if signed[p.PID] {
				continue
			}
			fits := payroll.Add(p.Contract.Amount).LessThanOrEqual(capAmount)
			if !fits && !p.Contract.Amount.LessThanOrEqual(floor) {
				continue
			}
			p.TID = tid
			p.RosterOrder = len(roster)
			p.Contract.Exp = lc.Season + 1 + s.rng.IntN(3)
			if err := s.repo.UpsertPlayer(ctx, db, p); err != nil {
				return fmt.Errorf("failed to sign player %d: %w", p.PID, err)
			}
			signed[p.PID] = true
			s.logger.InfoContext(ctx, "Free agent signed",
				slog.Int("pid", p.PID),
				slog.Int("tid", tid),
				slog.String("amount", p.Contract.Amount.String()),
				slog.Int("exp", p.Contract.Exp),
			)
			break
		}
	}
	return nil
}

// shuffle is a Fisher-Yates pass driven by the service's random source.
func (s *PhaseService) shuffle(xs []int) {
	for i := len(xs) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}
