package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/risk"
)

// The platform API is loose about numbers: the same field may arrive as
// 100000, 100000.0 or "100000.00". decimal accepts all of them.

type accountWire struct {
	InitialBalance      decimal.NullDecimal `json:"initialBalance"`
	Equity              decimal.NullDecimal `json:"equity"`
	CurrentBalance      decimal.NullDecimal `json:"currentBalance"`
	DailyStartingEquity decimal.NullDecimal `json:"dailyStartingEquity"`
	Status              string              `json:"status"`
}

type planWire struct {
	ProfitTargetPercent   decimal.NullDecimal `json:"profitTargetPercent"`
	DailyLossLimitPercent decimal.NullDecimal `json:"dailyLossLimitPercent"`
	MaxDrawdownPercent    decimal.NullDecimal `json:"maxDrawdownPercent"`
}

type challengeWire struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Status    string      `json:"status"`
	AdminNote string      `json:"admin_note"`
	UpdatedAt time.Time   `json:"updated_at"`
	Account   accountWire `json:"account"`
	Plan      planWire    `json:"plan"`
}

type statusUpdate struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note"`
}

// values maps the account as sent, without judging it. Null fields come
// back as zero.
func (w accountWire) values() risk.Account {
	// Older records only carry currentBalance.
	equity := w.Equity
	if !equity.Valid {
		equity = w.CurrentBalance
	}
	return risk.Account{
		InitialBalance:      w.InitialBalance.Decimal.InexactFloat64(),
		Equity:              equity.Decimal.InexactFloat64(),
		DailyStartingEquity: w.DailyStartingEquity.Decimal.InexactFloat64(),
	}
}

func (w accountWire) toAccount() (risk.Account, error) {
	if !w.InitialBalance.Valid {
		return risk.Account{}, &risk.InvalidAccountError{Field: "initial_balance", Msg: "is missing"}
	}
	if !w.Equity.Valid && !w.CurrentBalance.Valid {
		return risk.Account{}, &risk.InvalidAccountError{Field: "equity", Msg: "is missing"}
	}
	if !w.DailyStartingEquity.Valid {
		return risk.Account{}, &risk.InvalidAccountError{Field: "daily_starting_equity", Msg: "is missing"}
	}

	acct := w.values()
	if err := acct.Validate(); err != nil {
		return risk.Account{}, err
	}
	return acct, nil
}

func (w planWire) values() risk.Plan {
	return risk.Plan{
		ProfitTargetPercent:   w.ProfitTargetPercent.Decimal.InexactFloat64(),
		DailyLossLimitPercent: w.DailyLossLimitPercent.Decimal.InexactFloat64(),
		MaxDrawdownPercent:    w.MaxDrawdownPercent.Decimal.InexactFloat64(),
	}
}

func (w planWire) toPlan() (risk.Plan, error) {
	p := w.values()
	if err := p.Validate(); err != nil {
		return risk.Plan{}, err
	}
	return p, nil
}

// toChallenge keeps the account and plan exactly as the API holds them.
// Whether they can be evaluated is decided by risk.Evaluate, so a record
// with broken numbers can still have its status overridden.
func (w challengeWire) toChallenge(id string) (challenge.Challenge, error) {
	raw := w.Status
	if raw == "" {
		raw = w.Account.Status
	}
	status, err := challenge.ParseStatus(raw)
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("challenge %s: %w", id, err)
	}

	cid := w.ID
	if cid == "" {
		cid = id
	}
	return challenge.Challenge{
		ID:        cid,
		UserID:    w.UserID,
		Account:   w.Account.values(),
		Plan:      w.Plan.values(),
		Status:    status,
		AdminNote: strings.TrimSpace(w.AdminNote),
		UpdatedAt: w.UpdatedAt,
	}, nil
}
