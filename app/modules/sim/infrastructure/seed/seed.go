// Package simseed generates a random league so a fresh database has something to play.
package simseed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// rosterTemplate is how many players of each position a generated team carries.
var rosterTemplate = map[simdomain.Position]int{
	simdomain.PosQB: 3,
	simdomain.PosRB: 4,
	simdomain.PosWR: 6,
	simdomain.PosTE: 3,
	simdomain.PosOL: 9,
	simdomain.PosDL: 7,
	simdomain.PosLB: 6,
	simdomain.PosCB: 5,
	simdomain.PosS:  4,
	simdomain.PosK:  1,
	simdomain.PosP:  1,
}

// RosterSize is the number of players a generated team starts with.
func RosterSize() int {
	n := 0
	for _, c := range rosterTemplate {
		n += c
	}
	return n
}

// Options describes the league to generate.
type Options struct {
	LeagueID   string
	Season     int
	Teams      int
	Groups     int
	FreeAgents int
	UserTIDs   []int
	// Scale multiplies budgets and contracts, usually Settings.SalaryCapScale().
	Scale float64
}

// Seeder writes generated leagues.
type Seeder struct {
	repo   simdb.Repository
	faker  *gofakeit.Faker
	logger *slog.Logger
}

// NewSeeder creates a Seeder. The same seed always yields the same league.
func NewSeeder(repo simdb.Repository, seed uint64, logger *slog.Logger) *Seeder {
	return &Seeder{
		repo:   repo,
		faker:  gofakeit.New(seed),
		logger: logger,
	}
}

// Seed writes the league state, teams, rosters and free agents. The league starts in the
// preseason; moving it to the regular season is the phase manager's job.
func (s *Seeder) Seed(ctx context.Context, db bun.IDB, opts Options) error {
	if opts.Teams < 2 {
		return fmt.Errorf("a league needs at least 2 teams, got %d", opts.Teams)
	}
	if opts.Groups < 1 {
		opts.Groups = 1
	}
	if opts.Scale == 0 {
		opts.Scale = 1
	}

	if err := s.repo.SaveLeagueState(ctx, db, &simdb.LeagueState{
		LeagueID:       opts.LeagueID,
		Season:         opts.Season,
		StartingSeason: opts.Season,
		Phase:          simdomain.PhasePreseason,
		UserTIDs:       opts.UserTIDs,
	}); err != nil {
		return fmt.Errorf("failed to save league state: %w", err)
	}

	pid := 0
	for tid := range opts.Teams {
		team := s.team(tid, tid%opts.Groups, opts.Scale)
		if err := s.repo.UpsertTeam(ctx, db, team); err != nil {
			return fmt.Errorf("failed to save team %d: %w", tid, err)
		}
		order := 0
		for _, pos := range simdomain.Positions {
			for range rosterTemplate[pos] {
				p := s.player(pid, tid, pos, opts.Season, opts.Scale)
				p.RosterOrder = order
				if err := s.repo.UpsertPlayer(ctx, db, p); err != nil {
					return fmt.Errorf("failed to save player %d: %w", pid, err)
				}
				pid++
				order++
			}
		}
	}

	for range opts.FreeAgents {
		pos := simdomain.Positions[s.faker.IntRange(0, len(simdomain.Positions)-1)]
		p := s.player(pid, simdomain.TIDFreeAgent, pos, opts.Season, opts.Scale)
		if err := s.repo.UpsertPlayer(ctx, db, p); err != nil {
			return fmt.Errorf("failed to save free agent %d: %w", pid, err)
		}
		pid++
	}

	s.logger.InfoContext(ctx, "League seeded",
		slog.String("league_id", opts.LeagueID),
		slog.Int("season", opts.Season),
		slog.Int("teams", opts.Teams),
		slog.Int("players", pid),
	)
	return nil
}

func (s *Seeder) team(tid, cid int, scale float64) *simdb.Team {
	region := s.faker.City()
	name := capitalize(s.faker.Animal()) + "s"
	return &simdb.Team{
		TID:    tid,
		Cid:    cid,
		Region: region,
		Name:   name,
		Abbrev: abbrev(region, tid),
		Pop:    s.faker.Float64Range(1, 10),
		Budget: simdomain.DefaultBudget(scale),
		Cash:   decimal.NewFromFloat(10000 * scale).Round(2),
	}
}

func (s *Seeder) player(pid, tid int, pos simdomain.Position, season int, scale float64) *simdb.Player {
	base := s.faker.IntRange(35, 75)
	attrs := make(map[string]int, len(simdomain.RatingKeys))
	for _, k := range simdomain.RatingKeys {
		attrs[k] = min(100, max(0, base+s.faker.IntRange(-15, 15)))
	}
	r := simdomain.Ratings{Season: season, Pos: pos, Attrs: attrs}
	r.Rederive()
	r.Pot = min(100, r.Ovr+s.faker.IntRange(0, 15))

	born := season - s.faker.IntRange(21, 34)
	value := simdomain.PlayerValue(r, season-born)
	amount := decimal.NewFromFloat(max(500, (value-40)*150) * scale).Round(2)

	return &simdb.Player{
		PID:       pid,
		TID:       tid,
		FirstName: s.faker.FirstName(),
		LastName:  s.faker.LastName(),
		Born:      born,
		Ratings:   r,
		Injury:    simdomain.Healthy(),
		Value:     value,
		Contract: simdb.Contract{
			Amount: amount,
			Exp:    season + s.faker.IntRange(0, 3),
		},
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// abbrev is the first three letters of the region, suffixed with the tid so it stays unique.
func abbrev(region string, tid int) string {
	letters := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, region)
	if len(letters) > 3 {
		letters = letters[:3]
	}
	return fmt.Sprintf("%s%d", letters, tid)
}
