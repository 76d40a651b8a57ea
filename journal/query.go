package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rustyeddy/propfirm/challenge"
)

const challengeColumns = `
	id, user_id, initial_balance, equity, daily_starting_equity,
	profit_target_percent, daily_loss_limit_percent, max_drawdown_percent,
	status, admin_note, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row scanner) (challenge.Challenge, error) {
	var (
		c      challenge.Challenge
		status string
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Account.InitialBalance,
		&c.Account.Equity,
		&c.Account.DailyStartingEquity,
		&c.Plan.ProfitTargetPercent,
		&c.Plan.DailyLossLimitPercent,
		&c.Plan.MaxDrawdownPercent,
		&status,
		&c.AdminNote,
		&c.UpdatedAt,
	)
	c.Status = challenge.Status(status)
	return c, err
}

// GetChallenge returns a single challenge by ID.
func (j *SQLite) GetChallenge(ctx context.Context, challengeID string) (challenge.Challenge, error) {
	row := j.db.QueryRowContext(ctx, `SELECT`+challengeColumns+`
		FROM challenges WHERE id = ?`, challengeID)

	c, err := scanChallenge(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return challenge.Challenge{}, fmt.Errorf("%w: %s", challenge.ErrNotFound, challengeID)
		}
		return challenge.Challenge{}, err
	}
	return c, nil
}

// ListChallenges returns challenges oldest first. An empty status lists
// every challenge.
func (j *SQLite) ListChallenges(ctx context.Context, status challenge.Status) ([]challenge.Challenge, error) {
	q := `SELECT` + challengeColumns + ` FROM challenges`
	var args []any
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY created_at ASC, id ASC`

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []challenge.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListStatusChanges returns a challenge's status history, oldest first.
func (j *SQLite) ListStatusChanges(ctx context.Context, challengeID string) ([]challenge.StatusChange, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, challenge_id, from_status, to_status, note, actor, at
		FROM status_changes
		WHERE challenge_id = ?
		ORDER BY at ASC, id ASC`, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []challenge.StatusChange
	for rows.Next() {
		var (
			sc       challenge.StatusChange
			from, to string
		)
		if err := rows.Scan(&sc.ID, &sc.ChallengeID, &from, &to, &sc.Note, &sc.Actor, &sc.At); err != nil {
			return nil, err
		}
		sc.From = challenge.Status(from)
		sc.To = challenge.Status(to)
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityBetween returns snapshots whose time is within [start, end).
func (j *SQLite) ListEquityBetween(ctx context.Context, challengeID string, start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT challenge_id, time, equity, daily_starting_equity
		FROM equity
		WHERE challenge_id = ? AND time >= ? AND time < ?
		ORDER BY time ASC`, challengeID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.ChallengeID, &e.Time, &e.Equity, &e.DailyStartingEquity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
