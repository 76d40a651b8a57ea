// Package journal persists challenges, their status history and equity
// snapshots in SQLite, and renders them as CSV or Org-mode text.
package journal

import (
	"errors"
	"time"
)

// ErrStaleSnapshot is returned when an equity snapshot belongs to a
// trading day earlier than the one the challenge is already in.
var ErrStaleSnapshot = errors.New("equity snapshot older than current trading day")

// EquitySnapshot is one recorded equity reading.
type EquitySnapshot struct {
	ChallengeID         string
	Time                time.Time
	Equity              float64
	DailyStartingEquity float64
}

const dayLayout = "2006-01-02"
