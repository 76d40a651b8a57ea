package risk

import "math"

// Budget expresses the rules as account-currency amounts for dashboards.
type Budget struct {
	ProfitTarget float64 `json:"profit_target"` // absolute gain required to pass

	// Equity at or below which each rule is breached.
	DailyLossFloor float64 `json:"daily_loss_floor"`
	TotalLossFloor float64 `json:"total_loss_floor"`

	// Distance from the current equity to each floor, never negative.
	DailyLossRemaining float64 `json:"daily_loss_remaining"`
	TotalLossRemaining float64 `json:"total_loss_remaining"`

	// Gain still needed to reach the target, never negative.
	ProfitRemaining float64 `json:"profit_remaining"`
}

// Budgets computes the loss floors and remaining room for an account.
func Budgets(acct Account, p Plan) (Budget, error) {
	if err := validate(acct, p); err != nil {
		return Budget{}, err
	}

	b := Budget{
		ProfitTarget:   ProfitTarget(acct, p),
		DailyLossFloor: acct.DailyStartingEquity * (100 - p.DailyLossLimitPercent) / 100,
		TotalLossFloor: acct.InitialBalance * (100 - p.MaxDrawdownPercent) / 100,
	}
	b.DailyLossRemaining = math.Max(0, acct.Equity-b.DailyLossFloor)
	b.TotalLossRemaining = math.Max(0, acct.Equity-b.TotalLossFloor)
	b.ProfitRemaining = math.Max(0, acct.InitialBalance+b.ProfitTarget-acct.Equity)
	return b, nil
}

// MaxLoss is the smaller of the two remaining loss budgets: the most the
// account can lose right now before a rule trips.
func (b Budget) MaxLoss() float64 {
	return math.Min(b.DailyLossRemaining, b.TotalLossRemaining)
}
