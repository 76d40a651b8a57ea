package risk

import "math"

// Evaluate applies the challenge rules to a snapshot. It is a pure
// function: identical inputs always give identical results.
//
// Breach checks run before the profit target check, so an account that
// hits the target and a loss limit on the same snapshot fails. Both
// breach boundaries are inclusive.
func Evaluate(acct Account, p Plan) (Result, error) {
	if err := validate(acct, p); err != nil {
		return Result{}, err
	}

	var r Result
	r.ProfitAmount = acct.Equity - acct.InitialBalance
	target := ProfitTarget(acct, p)
	r.ProfitProgressPercent = clamp(r.ProfitAmount*100/target, 0, 100)
	r.DailyDrawdownPercent = pctChange(acct.Equity, acct.DailyStartingEquity)
	r.TotalDrawdownPercent = pctChange(acct.Equity, acct.InitialBalance)

	switch {
	case r.DailyDrawdownPercent <= -p.DailyLossLimitPercent:
		r.Verdict = FailedDaily
	case r.TotalDrawdownPercent <= -p.MaxDrawdownPercent:
		r.Verdict = FailedTotal
	case r.ProfitAmount >= target:
		r.Verdict = Passed
	default:
		r.Verdict = Continue
	}
	return r, nil
}

// ProfitTarget is the absolute gain required to pass.
func ProfitTarget(acct Account, p Plan) float64 {
	return acct.InitialBalance * p.ProfitTargetPercent / 100
}

func validate(acct Account, p Plan) error {
	if err := acct.Validate(); err != nil {
		return err
	}
	return p.Validate()
}

// Validate checks the snapshot can be evaluated.
func (a Account) Validate() error {
	switch {
	case !finite(a.InitialBalance) || a.InitialBalance <= 0:
		return &InvalidAccountError{Field: "initial_balance", Value: a.InitialBalance, Msg: "must be positive"}
	case !finite(a.Equity) || a.Equity < 0:
		return &InvalidAccountError{Field: "equity", Value: a.Equity, Msg: "must not be negative"}
	case !finite(a.DailyStartingEquity) || a.DailyStartingEquity <= 0:
		return &InvalidAccountError{Field: "daily_starting_equity", Value: a.DailyStartingEquity, Msg: "must be positive"}
	}
	return nil
}

// Validate checks every limit is a positive percentage.
func (p Plan) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"profit_target_percent", p.ProfitTargetPercent},
		{"daily_loss_limit_percent", p.DailyLossLimitPercent},
		{"max_drawdown_percent", p.MaxDrawdownPercent},
	}
	for _, f := range fields {
		if !finite(f.v) || f.v <= 0 {
			return &InvalidPlanError{Field: f.name, Value: f.v}
		}
	}
	return nil
}

// pctChange is (v - ref) / ref * 100, multiplied first so whole-number
// limits compare exactly.
func pctChange(v, ref float64) float64 {
	return (v - ref) * 100 / ref
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
