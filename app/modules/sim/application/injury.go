package simservice

import (
	"context"
	"fmt"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
)

// injure gives a player who got hurt in game gid a new injury, or extends the one being
// played through. It may permanently lower physical ratings.
func (s *SimService) injure(
	ctx context.Context,
	run *simRun,
	p *simdb.Player,
	gid, healthRank, numTeams int,
) (simdomain.InjuryOutcome, error) {
	var out simdomain.InjuryOutcome
	lc := run.lc

	prior := p.Injury
	reaggravated := false
	if prior.GamesRemaining > 0 && s.rng.Float64() < simdomain.ReaggravationChance {
		p.Injury = simdomain.Reaggravate(s.rng, prior)
		reaggravated = true
	} else {
		p.Injury = simdomain.DrawInjury(s.rng, healthRank, numTeams)
	}

	normalized := simdomain.NormalizedGames(p.Injury.GamesRemaining, lc.Settings.NumGames)
	p.Injury.Score = simdomain.SeverityScore(p.Ratings.Ovr, lc.Playoffs(), normalized)
	s.metrics.RecordInjury(ctx, p.Injury.GamesRemaining)

	entry := simdb.InjuryLogEntry{Type: p.Injury.Type, Season: lc.Season, Games: p.Injury.GamesRemaining}
	if s.rng.Float64() < simdomain.RegressionProbability(normalized) {
		oldPot := p.Ratings.Pot
		entry.OvrDrop = simdomain.ApplyRatingsLoss(s.rng, &p.Ratings, p.Age(lc.Season))
		entry.PotDrop = oldPot - p.Ratings.Pot
		out.RatingsLoss = true
	}
	p.Injuries = append(p.Injuries, entry)
	p.InjuryDay = run.day

	userTeam := lc.IsUserTeam(p.TID)
	if userTeam && lc.Settings.StopOnInjury && p.Injury.GamesRemaining > lc.Settings.StopOnInjuryGames {
		out.StopPlay = true
	}

	verb := "was injured"
	if reaggravated {
		verb = "aggravated his injury"
	}
	ev := simdomain.NewEvent(simdomain.EventInjured, lc.Season, fmt.Sprintf(
		"%s %s! (%s, out for %d %s)", p.Name(), verb, p.Injury.Type, p.Injury.GamesRemaining, plural(p.Injury.GamesRemaining, "game")))
	ev.TIDs = []int{p.TID}
	ev.PIDs = []int{p.PID}
	ev.GID = &gid
	ev.Score = p.Injury.Score
	ev.ShowNotification = userTeam
	if err := s.emit(ctx, run, ev); err != nil {
		return out, err
	}

	if out.RatingsLoss && entry.OvrDrop > 0 {
		loss := simdomain.NewEvent(simdomain.EventRatingsLoss, lc.Season, fmt.Sprintf(
			"%s suffered a permanent ratings loss from his %s (-%d ovr).", p.Name(), p.Injury.Type, entry.OvrDrop))
		loss.TIDs = []int{p.TID}
		loss.PIDs = []int{p.PID}
		loss.ShowNotification = userTeam
		loss.Score = p.Injury.Score
		if err := s.emit(ctx, run, loss); err != nil {
			return out, err
		}
	}
	return out, nil
}

// recoverInjury counts one day off a player's injury and announces it when he is healthy
// again on a user team.
func (s *SimService) recoverInjury(ctx context.Context, run *simRun, p *simdb.Player) (bool, error) {
	injuryType := p.Injury.Type
	p.InjuryDay = run.day
	if !p.Injury.Decrement() {
		return false, nil
	}
	if run.lc.IsUserTeam(p.TID) {
		ev := simdomain.NewEvent(simdomain.EventHealed, run.lc.Season,
			fmt.Sprintf("%s has recovered from his %s.", p.Name(), injuryType))
		ev.TIDs = []int{p.TID}
		ev.PIDs = []int{p.PID}
		ev.ShowNotification = true
		if err := s.emit(ctx, run, ev); err != nil {
			return true, err
		}
	}
	return true, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
