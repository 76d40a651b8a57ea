package risk

// Account is a point-in-time snapshot of a challenge account.
// The engine only reads it.
type Account struct {
	InitialBalance      float64 `json:"initial_balance" yaml:"initial_balance"`
	Equity              float64 `json:"equity" yaml:"equity"`
	DailyStartingEquity float64 `json:"daily_starting_equity" yaml:"daily_starting_equity"`
}

// Plan holds the challenge rules. All values are percentages of the
// initial balance, e.g. 10 means 10%.
type Plan struct {
	ProfitTargetPercent   float64 `json:"profit_target_percent" yaml:"profit_target_percent"`
	DailyLossLimitPercent float64 `json:"daily_loss_limit_percent" yaml:"daily_loss_limit_percent"`
	MaxDrawdownPercent    float64 `json:"max_drawdown_percent" yaml:"max_drawdown_percent"`
}

// DefaultPlan is the common two-phase prop firm rule set: 10% target,
// 5% daily loss, 10% max drawdown.
func DefaultPlan() Plan {
	return Plan{
		ProfitTargetPercent:   10,
		DailyLossLimitPercent: 5,
		MaxDrawdownPercent:    10,
	}
}

type Verdict string

const (
	Continue    Verdict = "CONTINUE"
	FailedDaily Verdict = "FAILED_DAILY"
	FailedTotal Verdict = "FAILED_TOTAL"
	Passed      Verdict = "PASSED"
)

// Failed reports whether a drawdown rule was breached.
func (v Verdict) Failed() bool {
	return v == FailedDaily || v == FailedTotal
}

// Terminal reports whether the challenge is decided.
func (v Verdict) Terminal() bool {
	return v.Failed() || v == Passed
}

// Result is the derived view of an account under a plan. It is never
// persisted.
type Result struct {
	ProfitAmount          float64 `json:"profit_amount"`
	ProfitProgressPercent float64 `json:"profit_progress_percent"`
	DailyDrawdownPercent  float64 `json:"daily_drawdown_percent"`
	TotalDrawdownPercent  float64 `json:"total_drawdown_percent"`
	Verdict               Verdict `json:"verdict"`
}
