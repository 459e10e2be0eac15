package simservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/shopspring/decimal"
)

// loadTeams builds a simulation-ready state for every requested team. Exhibition sides are
// loaded from the all-star rosters.
func (s *SimService) loadTeams(ctx context.Context, run *simRun, tids []int) (map[int]*simdomain.TeamSimState, error) {
	teams := make(map[int]*simdomain.TeamSimState, len(tids))

	var exhibition []int
	var league []int
	for _, tid := range tids {
		if tid < 0 {
			exhibition = append(exhibition, tid)
		} else {
			league = append(league, tid)
		}
	}

	if len(league) > 0 {
		ranks, err := s.healthRanks(ctx, run)
		if err != nil {
			return nil, err
		}
		for _, tid := range league {
			team, err := s.loadTeam(ctx, run, tid, ranks[tid])
			if err != nil {
				return nil, err
			}
			teams[tid] = team
		}
	}

	if len(exhibition) > 0 {
		sides, err := s.loadAllStars(ctx, run)
		if err != nil {
			return nil, err
		}
		for _, tid := range exhibition {
			teams[tid] = sides[tid]
		}
	}
	return teams, nil
}

// healthRanks ranks teams by health spending. Without budgets every team spends the same.
func (s *SimService) healthRanks(ctx context.Context, run *simRun) (map[int]int, error) {
	all, err := s.repo.ListTeams(ctx, run.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	run.numTeams = len(all)
	spending := make(map[int]float64, len(all))
	for _, t := range all {
		if run.lc.Settings.BudgetEnabled {
			spending[t.TID] = t.Budget.Health.InexactFloat64()
		} else {
			spending[t.TID] = 0
		}
	}
	return simdomain.HealthRanks(spending), nil
}

func (s *SimService) loadTeam(ctx context.Context, run *simRun, tid, healthRank int) (*simdomain.TeamSimState, error) {
	team, err := s.repo.GetTeam(ctx, run.db, tid)
	if err != nil {
		return nil, fmt.Errorf("failed to load team %d: %w", tid, err)
	}
	season, err := s.repo.GetTeamSeason(ctx, run.db, tid, run.lc.Season)
	if err != nil {
		return nil, fmt.Errorf("failed to load season %d for team %d: %w", run.lc.Season, tid, err)
	}
	players, err := s.repo.ListPlayersByTeam(ctx, run.db, tid)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster of team %d: %w", tid, err)
	}

	limit := run.lc.Settings.PlayThroughLimit(run.lc.Playoffs())
	state := &simdomain.TeamSimState{
		TID:        tid,
		Name:       team.FullName(),
		Won:        season.Won,
		Lost:       season.Lost,
		Tied:       season.Tied,
		OTL:        season.OTL,
		HealthRank: healthRank,
	}
	for i := range players {
		p := &players[i]
		if p.Injury.GamesRemaining > limit {
			continue
		}
		state.Players = append(state.Players, playerSimState(p, run.lc.Season))
	}
	state.Finalize(team.Depth)
	return state, nil
}

// loadAllStars builds both exhibition sides, drafting them first if needed.
func (s *SimService) loadAllStars(ctx context.Context, run *simRun) (map[int]*simdomain.TeamSimState, error) {
	allStars, err := s.repo.GetAllStars(ctx, run.db, run.lc.Season)
	if err != nil && !errors.Is(err, simdb.ErrNotFound) {
		return nil, fmt.Errorf("failed to load all-stars: %w", err)
	}
	if allStars == nil || !allStars.Finalized {
		if err := s.collab.AllStars.AssembleAllStars(ctx, run.db, run.lc); err != nil {
			return nil, fmt.Errorf("failed to assemble all-stars: %w", err)
		}
		allStars, err = s.repo.GetAllStars(ctx, run.db, run.lc.Season)
		if err != nil {
			return nil, fmt.Errorf("failed to load all-stars: %w", err)
		}
	}

	sides := map[int]*simdomain.TeamSimState{}
	for i, tid := range []int{simdomain.TIDAllStarsA, simdomain.TIDAllStarsB} {
		state := &simdomain.TeamSimState{TID: tid, HealthRank: 1}
		var captain string
		if i < len(allStars.Teams) {
			for _, pid := range allStars.Teams[i] {
				p, err := s.repo.GetPlayer(ctx, run.db, pid)
				if errors.Is(err, simdb.ErrNotFound) {
					s.logger.WarnContext(ctx, "Skipping missing all-star",
						slog.Int("pid", pid),
						slog.Int("season", run.lc.Season),
					)
					continue
				}
				if err != nil {
					return nil, fmt.Errorf("failed to load all-star %d: %w", pid, err)
				}
				if captain == "" {
					captain = p.LastName
				}
				state.Players = append(state.Players, playerSimState(p, run.lc.Season))
			}
		}
		state.Name = "All-Stars"
		if captain != "" {
			state.Name = "Team " + captain
		}
		state.Finalize(nil)
		sides[tid] = state
	}
	return sides, nil
}

// playerSimState derives a player's game-day state. Composite ratings are scaled by how
// hurt the player is.
func playerSimState(p *simdb.Player, season int) *simdomain.PlayerSimState {
	factor := simdomain.PlayThroughFactor(p.Injury.GamesRemaining)
	return &simdomain.PlayerSimState{
		PID:          p.PID,
		Name:         p.Name(),
		Pos:          p.Ratings.Pos,
		Age:          p.Age(season),
		Ovr:          p.Ratings.Ovr,
		Ovrs:         p.Ratings.Ovrs,
		Injury:       p.Injury,
		InjuryFactor: factor,
		Composite:    simdomain.CompositeRatings(p.Ratings.Attrs, factor),
		Stats:        simdomain.StatLine{},
	}
}

// payroll sums the contracts of a team's roster.
func payroll(players []simdb.Player) decimal.Decimal {
	total := decimal.Zero
	for _, p := range players {
		total = total.Add(p.Contract.Amount)
	}
	return total
}
