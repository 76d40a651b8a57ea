// Package sim plays a scripted equity path through the risk rules without
// touching a store. Daily resets follow the same rule as the journal: the
// first reading of a new day moves the daily reference to the previous
// reading.
package sim

import (
	"time"

	"github.com/rustyeddy/propfirm/risk"
)

// Tick is the state after one step.
type Tick struct {
	Step    int
	At      time.Time
	Account risk.Account
	Result  risk.Result
}

// Run evaluates every step in order and stops after the first decided
// verdict. loc sets where trading days start; nil means UTC.
func Run(s *Scenario, loc *time.Location) ([]Tick, error) {
	if loc == nil {
		loc = time.UTC
	}
	times, err := s.times()
	if err != nil {
		return nil, err
	}

	acct := risk.Account{
		InitialBalance:      s.InitialBalance,
		Equity:              s.InitialBalance,
		DailyStartingEquity: s.InitialBalance,
	}
	day := s.Start.In(loc).Format("2006-01-02")

	var ticks []Tick
	for i, st := range s.Steps {
		if d := times[i].In(loc).Format("2006-01-02"); d != day {
			acct.DailyStartingEquity = acct.Equity
			day = d
		}
		acct.Equity = st.Equity

		res, err := risk.Evaluate(acct, s.Plan)
		if err != nil {
			return ticks, err
		}
		ticks = append(ticks, Tick{Step: i, At: times[i], Account: acct, Result: res})
		if res.Verdict.Terminal() {
			break
		}
	}
	return ticks, nil
}
