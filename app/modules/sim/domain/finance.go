package simdomain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Ledger item names. Amounts are in thousands of dollars.
const (
	RevenueTicket     = "ticket"
	RevenueMerch      = "merch"
	RevenueSponsor    = "sponsor"
	RevenueNationalTV = "nationalTv"
	RevenueLocalTV    = "localTv"

	ExpenseSalary     = "salary"
	ExpenseScouting   = "scouting"
	ExpenseCoaching   = "coaching"
	ExpenseHealth     = "health"
	ExpenseFacilities = "facilities"
)

// Ledger accumulates revenue or expense items.
type Ledger map[string]decimal.Decimal

// Add accrues amount to item.
func (l Ledger) Add(item string, amount decimal.Decimal) {
	l[item] = l[item].Add(amount)
}

// Total sums every item.
func (l Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range l {
		total = total.Add(v)
	}
	return total
}

// Budget is a team's spending plan. Expense items are per season, in thousands.
type Budget struct {
	TicketPrice decimal.Decimal `json:"ticketPrice"`
	Scouting    decimal.Decimal `json:"scouting"`
	Coaching    decimal.Decimal `json:"coaching"`
	Health      decimal.Decimal `json:"health"`
	Facilities  decimal.Decimal `json:"facilities"`
}

const (
	defaultTicketPrice    = 35.0
	defaultBudgetItem     = 1500.0
	nationalTVPerSeason   = 150000.0
	stadiumCapacity       = 70000
	baseAttendance        = 20000.0
	attendancePerMillion  = 20000.0
	merchPerFan           = 1.5
	sponsorPerFan         = 5.0
	localTVPerFan         = 8.0
	defaultScaleDecimals  = 2
	hypePerGame           = 0.01
	attendanceNoiseRadius = 0.05
)

// DefaultBudget is the budget every team runs when budgets are disabled.
func DefaultBudget(scale float64) Budget {
	item := decimal.NewFromFloat(defaultBudgetItem * scale).Round(defaultScaleDecimals)
	return Budget{
		TicketPrice: decimal.NewFromFloat(defaultTicketPrice * scale).Round(defaultScaleDecimals),
		Scouting:    item,
		Coaching:    item,
		Health:      item,
		Facilities:  item,
	}
}

// GameFinanceInput is one team's side of a game for the finance formulas.
type GameFinanceInput struct {
	Home          bool
	Hype          float64
	Pop           float64
	Budget        Budget
	Payroll       decimal.Decimal
	NumGames      int
	Scale         float64
	BudgetEnabled bool
	// Noise is a uniform draw in [0, 1) used to jitter attendance.
	Noise float64
	// Difficulty scales revenue through DifficultyFudge. AI teams leave it at 0.
	Difficulty float64
}

// GameFinances is what one game adds to a team's ledgers.
type GameFinances struct {
	Attendance int
	Revenues   Ledger
	Expenses   Ledger
}

// Attendance is the crowd for a home game given hype, population (millions) and price.
func Attendance(hype, pop, ticketPrice, scale, noise float64) int {
	att := baseAttendance + (0.25+0.75*hype*hype)*pop*attendancePerMillion
	att *= 1 - attendanceNoiseRadius + 2*attendanceNoiseRadius*noise
	relPrice := ticketPrice
	if scale > 0 {
		relPrice = ticketPrice / scale
	}
	if relPrice > 0 {
		att *= math.Sqrt(defaultTicketPrice / relPrice)
	}
	return int(math.Round(math.Max(0, math.Min(att, stadiumCapacity))))
}

// DifficultyFudge is the revenue multiplier for a user team. Positive difficulty shrinks
// revenue and negative difficulty grows it; it never goes below zero.
func DifficultyFudge(difficulty float64) float64 {
	return math.Max(0, 1-difficulty)
}

// ComputeGameFinances accrues one regular-season game. Attendance-driven revenue goes to
// the home side only; both sides get national TV money and pay their expenses.
func ComputeGameFinances(in GameFinanceInput) GameFinances {
	out := GameFinances{Revenues: Ledger{}, Expenses: Ledger{}}
	numGames := decimal.NewFromInt(int64(max(in.NumGames, 1)))
	scale := decimal.NewFromFloat(in.Scale)

	budget := in.Budget
	if !in.BudgetEnabled {
		budget = DefaultBudget(in.Scale)
	}

	if in.Home {
		price, _ := budget.TicketPrice.Float64()
		out.Attendance = Attendance(in.Hype, in.Pop, price, in.Scale, in.Noise)
		fans := decimal.NewFromInt(int64(out.Attendance))
		thousand := decimal.NewFromInt(1000)
		out.Revenues.Add(RevenueTicket, fans.Mul(budget.TicketPrice).Div(thousand))
		out.Revenues.Add(RevenueMerch, fans.Mul(scale).Mul(decimal.NewFromFloat(merchPerFan)).Div(thousand))
		out.Revenues.Add(RevenueSponsor, fans.Mul(scale).Mul(decimal.NewFromFloat(sponsorPerFan)).Div(thousand))
		out.Revenues.Add(RevenueLocalTV, fans.Mul(scale).Mul(decimal.NewFromFloat(localTVPerFan)).Div(thousand))
	}
	out.Revenues.Add(RevenueNationalTV, decimal.NewFromFloat(nationalTVPerSeason).Mul(scale).Div(numGames))
	if fudge := DifficultyFudge(in.Difficulty); fudge != 1 {
		f := decimal.NewFromFloat(fudge)
		for k, v := range out.Revenues {
			out.Revenues[k] = v.Mul(f)
		}
	}

	out.Expenses.Add(ExpenseSalary, in.Payroll.Div(numGames))
	out.Expenses.Add(ExpenseScouting, budget.Scouting.Div(numGames))
	out.Expenses.Add(ExpenseCoaching, budget.Coaching.Div(numGames))
	out.Expenses.Add(ExpenseHealth, budget.Health.Div(numGames))
	out.Expenses.Add(ExpenseFacilities, budget.Facilities.Div(numGames))

	for k, v := range out.Revenues {
		out.Revenues[k] = v.Round(defaultScaleDecimals)
	}
	for k, v := range out.Expenses {
		out.Expenses[k] = v.Round(defaultScaleDecimals)
	}
	return out
}

// Outcome is a team's result in one game, as kept in the last-ten log.
type Outcome string

const (
	OutcomeWin  Outcome = "W"
	OutcomeLoss Outcome = "L"
	OutcomeTie  Outcome = "T"
	OutcomeOTL  Outcome = "OTL"
)

const lastTenSize = 10

// PushLastTen records o as the most recent game, keeping at most ten.
func PushLastTen(lastTen []Outcome, o Outcome) []Outcome {
	out := append([]Outcome{o}, lastTen...)
	if len(out) > lastTenSize {
		out = out[:lastTenSize]
	}
	return out
}

// NextStreak is positive for a win streak and negative for a losing streak. Ties reset it.
func NextStreak(streak int, o Outcome) int {
	switch o {
	case OutcomeWin:
		if streak > 0 {
			return streak + 1
		}
		return 1
	case OutcomeLoss, OutcomeOTL:
		if streak < 0 {
			return streak - 1
		}
		return -1
	default:
		return 0
	}
}

// NextHype nudges hype after a regular-season game, bounded to [0, 1].
func NextHype(hype float64, o Outcome) float64 {
	switch o {
	case OutcomeWin:
		hype += hypePerGame
	case OutcomeLoss, OutcomeOTL:
		hype -= hypePerGame
	}
	return math.Max(0, math.Min(1, hype))
}

// GameOutcomes resolves both sides' outcomes. ot reports whether the game went to overtime.
func GameOutcomes(pts [2]int, ot, otlAllowed bool) [2]Outcome {
	switch {
	case pts[0] > pts[1]:
		return [2]Outcome{OutcomeWin, lossOutcome(ot, otlAllowed)}
	case pts[1] > pts[0]:
		return [2]Outcome{lossOutcome(ot, otlAllowed), OutcomeWin}
	default:
		return [2]Outcome{OutcomeTie, OutcomeTie}
	}
}

func lossOutcome(ot, otlAllowed bool) Outcome {
	if ot && otlAllowed {
		return OutcomeOTL
	}
	return OutcomeLoss
}
