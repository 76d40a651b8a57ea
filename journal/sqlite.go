package journal

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/pkg/id"
	"github.com/rustyeddy/propfirm/risk"
)

// SQLite is a challenge.Store backed by a local database file.
type SQLite struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

type Option func(*SQLite)

// WithLocation sets the zone that decides where a trading day starts.
// The default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(j *SQLite) { j.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(j *SQLite) { j.now = now }
}

func NewSQLite(path string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	j := &SQLite{db: db, loc: time.UTC, now: time.Now}
	for _, o := range opts {
		o(j)
	}
	return j, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// CreateChallenge inserts a new challenge. Missing fields are filled in:
// an id, equity equal to the initial balance, daily starting equity equal
// to equity, and ACTIVE status. A zero Equity or DailyStartingEquity counts
// as missing, so a challenge always starts with a positive balance; record
// a reading of 0 with RecordEquity instead.
func (j *SQLite) CreateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	if c.ID == "" {
		c.ID = id.New()
	}
	if c.Status == "" {
		c.Status = challenge.Active
	}
	if !c.Status.Valid() {
		return challenge.Challenge{}, fmt.Errorf("%w: %q", challenge.ErrUnknownStatus, c.Status)
	}
	if c.Account.Equity == 0 {
		c.Account.Equity = c.Account.InitialBalance
	}
	if c.Account.DailyStartingEquity == 0 {
		c.Account.DailyStartingEquity = c.Account.Equity
	}
	if err := c.Account.Validate(); err != nil {
		return challenge.Challenge{}, err
	}
	if err := c.Plan.Validate(); err != nil {
		return challenge.Challenge{}, err
	}

	now := j.now().UTC()
	c.UpdatedAt = now

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO challenges
		(id, user_id, initial_balance, equity, daily_starting_equity, trading_day,
		 profit_target_percent, daily_loss_limit_percent, max_drawdown_percent,
		 status, admin_note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Account.InitialBalance, c.Account.Equity, c.Account.DailyStartingEquity,
		now.In(j.loc).Format(dayLayout),
		c.Plan.ProfitTargetPercent, c.Plan.DailyLossLimitPercent, c.Plan.MaxDrawdownPercent,
		string(c.Status), c.AdminNote, now, now,
	)
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("insert challenge: %w", err)
	}
	return c, nil
}

func (j *SQLite) UpdateStatus(ctx context.Context, challengeID string, status challenge.Status, note string) error {
	res, err := j.db.ExecContext(ctx, `
		UPDATE challenges SET status = ?, admin_note = ?, updated_at = ?
		WHERE id = ?`,
		string(status), note, j.now().UTC(), challengeID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", challenge.ErrNotFound, challengeID)
	}
	return nil
}

// RecordStatusChange appends a history row. A zero At is stamped with the
// store clock, and a missing ID is derived from At.
func (j *SQLite) RecordStatusChange(ctx context.Context, sc challenge.StatusChange) error {
	if sc.At.IsZero() {
		sc.At = j.now().UTC()
	}
	if sc.ID == "" {
		sc.ID = id.At(sc.At)
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO status_changes
		(id, challenge_id, from_status, to_status, note, actor, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.ChallengeID, string(sc.From), string(sc.To), sc.Note, sc.Actor, sc.At.UTC(),
	)
	return err
}

// RecordEquity stores a new equity reading for a challenge. The first
// reading of a new trading day moves daily_starting_equity to the equity
// the day closed at, so the daily reference resets at most once per day.
// A day that closed at 0 keeps the previous reference.
func (j *SQLite) RecordEquity(ctx context.Context, challengeID string, equity float64, at time.Time) (challenge.Challenge, error) {
	if math.IsNaN(equity) || math.IsInf(equity, 0) || equity < 0 {
		return challenge.Challenge{}, &risk.InvalidAccountError{Field: "equity", Value: equity, Msg: "must be a finite number >= 0"}
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return challenge.Challenge{}, err
	}
	defer tx.Rollback()

	var (
		prevEquity float64
		dayStart   float64
		tradingDay string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT equity, daily_starting_equity, trading_day
		FROM challenges WHERE id = ?`, challengeID).Scan(&prevEquity, &dayStart, &tradingDay)
	if err == sql.ErrNoRows {
		return challenge.Challenge{}, fmt.Errorf("%w: %s", challenge.ErrNotFound, challengeID)
	}
	if err != nil {
		return challenge.Challenge{}, err
	}

	day := at.In(j.loc).Format(dayLayout)
	switch {
	case day < tradingDay:
		return challenge.Challenge{}, fmt.Errorf("%w: %s before %s", ErrStaleSnapshot, day, tradingDay)
	case day > tradingDay:
		if prevEquity > 0 {
			dayStart = prevEquity
		}
		tradingDay = day
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE challenges
		SET equity = ?, daily_starting_equity = ?, trading_day = ?, updated_at = ?
		WHERE id = ?`,
		equity, dayStart, tradingDay, j.now().UTC(), challengeID,
	); err != nil {
		return challenge.Challenge{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO equity (challenge_id, time, equity, daily_starting_equity)
		VALUES (?, ?, ?, ?)`,
		challengeID, at.UTC(), equity, dayStart,
	); err != nil {
		return challenge.Challenge{}, err
	}

	if err := tx.Commit(); err != nil {
		return challenge.Challenge{}, err
	}
	return j.GetChallenge(ctx, challengeID)
}
