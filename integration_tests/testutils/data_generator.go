package testutils

import (
	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// TestDataGenerator builds individual rows for repository tests.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a generator. A fixed seed gives reproducible rows.
func NewTestDataGenerator(seed uint64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// GenerateTeam returns a team in group cid.
func (g *TestDataGenerator) GenerateTeam(tid, cid int) *simdb.Team {
	return &simdb.Team{
		TID:    tid,
		Cid:    cid,
		Region: g.faker.City(),
		Name:   g.faker.Animal(),
		Abbrev: g.faker.LetterN(3),
		Pop:    g.faker.Float64Range(1, 10),
		Budget: simdomain.DefaultBudget(1),
		Cash:   decimal.NewFromInt(int64(g.faker.IntRange(1000, 20000))),
	}
}

// GeneratePlayer returns a healthy player at pos on tid.
func (g *TestDataGenerator) GeneratePlayer(pid, tid int, pos simdomain.Position) *simdb.Player {
	attrs := make(map[string]int, len(simdomain.RatingKeys))
	for _, k := range simdomain.RatingKeys {
		attrs[k] = g.faker.IntRange(30, 90)
	}
	r := simdomain.Ratings{Season: 2030, Pos: pos, Attrs: attrs}
	r.Rederive()
	r.Pot = r.Ovr
	return &simdb.Player{
		PID:       pid,
		TID:       tid,
		FirstName: g.faker.FirstName(),
		LastName:  g.faker.LastName(),
		Born:      2030 - g.faker.IntRange(21, 35),
		Ratings:   r,
		Injury:    simdomain.Healthy(),
		Value:     float64(r.Ovr),
		Contract: simdb.Contract{
			Amount: decimal.NewFromInt(int64(g.faker.IntRange(500, 20000))),
			Exp:    2030 + g.faker.IntRange(0, 4),
		},
	}
}
