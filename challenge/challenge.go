package challenge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/propfirm/risk"
)

var (
	ErrNotFound      = errors.New("challenge not found")
	ErrUnknownStatus = errors.New("unknown challenge status")
)

type Status string

const (
	Active  Status = "ACTIVE"
	Passed  Status = "PASSED"
	Failed  Status = "FAILED"
	Funded  Status = "FUNDED"
	Pending Status = "PENDING"
)

// Statuses lists every status in display order.
var Statuses = []Status{Pending, Active, Passed, Failed, Funded}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus accepts any case and surrounding space.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Challenge is a user's simulated trading account together with the
// plan it is being judged against.
type Challenge struct {
	ID        string
	UserID    string
	Account   risk.Account
	Plan      risk.Plan
	Status    Status
	AdminNote string
	UpdatedAt time.Time
}

// StatusChange is one entry in a challenge's status history.
type StatusChange struct {
	ID          string
	ChallengeID string
	From        Status
	To          Status
	Note        string
	Actor       string
	At          time.Time
}

// Store is the persistence the service writes through. It may be the
// local SQLite journal or the remote REST API.
type Store interface {
	GetChallenge(ctx context.Context, id string) (Challenge, error)
	UpdateStatus(ctx context.Context, id string, status Status, note string) error
}

// HistoryRecorder is implemented by stores that keep status history.
type HistoryRecorder interface {
	RecordStatusChange(ctx context.Context, sc StatusChange) error
}

// StatusForVerdict maps a decided verdict to the status it implies.
func StatusForVerdict(v risk.Verdict) (Status, bool) {
	switch {
	case v.Failed():
		return Failed, true
	case v == risk.Passed:
		return Passed, true
	}
	return "", false
}
