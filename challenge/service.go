package challenge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/propfirm/pkg/id"
	"github.com/rustyeddy/propfirm/risk"
)

// ActorSystem marks status changes made by Reconcile.
const ActorSystem = "system"

type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ApplyStatusTransition sets a challenge's status and admin note. Any
// status may move to any other; this is the admin override path.
//
// The store is written first. If it fails the zero Challenge and the error
// are returned, so callers never show a status that was not saved.
func (s *Service) ApplyStatusTransition(ctx context.Context, challengeID string, to Status, note string) (Challenge, error) {
	return s.transition(ctx, challengeID, to, note, actorFrom(ctx))
}

func (s *Service) transition(ctx context.Context, challengeID string, to Status, note, actor string) (Challenge, error) {
	if !to.Valid() {
		return Challenge{}, fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}

	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return Challenge{}, fmt.Errorf("get challenge %s: %w", challengeID, err)
	}

	if err := s.store.UpdateStatus(ctx, challengeID, to, note); err != nil {
		return Challenge{}, fmt.Errorf("update status of %s: %w", challengeID, err)
	}

	from := c.Status
	c.Status = to
	c.AdminNote = note
	c.UpdatedAt = s.now().UTC()

	if hr, ok := s.store.(HistoryRecorder); ok {
		sc := StatusChange{
			ID:          id.At(c.UpdatedAt),
			ChallengeID: challengeID,
			From:        from,
			To:          to,
			Note:        note,
			Actor:       actor,
			At:          c.UpdatedAt,
		}
		// The status itself is saved; a missing history row is logged, not fatal.
		if err := hr.RecordStatusChange(ctx, sc); err != nil {
			s.log.Warn("record status change", "challenge", challengeID, "err", err)
		}
	}

	s.log.Info("challenge status changed",
		"challenge", challengeID, "from", from, "to", to, "actor", actor)
	return c, nil
}

// Evaluate loads the current snapshot and runs the risk rules on it.
func (s *Service) Evaluate(ctx context.Context, challengeID string) (Challenge, risk.Result, error) {
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return Challenge{}, risk.Result{}, fmt.Errorf("get challenge %s: %w", challengeID, err)
	}

	res, err := risk.Evaluate(c.Account, c.Plan)
	if err != nil {
		return c, risk.Result{}, fmt.Errorf("evaluate %s: %w", challengeID, err)
	}
	return c, res, nil
}

// Reconcile moves an ACTIVE challenge to PASSED or FAILED when the rules
// have decided it. Challenges in any other status belong to the admins and
// are returned unchanged. The bool reports whether a transition happened.
func (s *Service) Reconcile(ctx context.Context, challengeID string) (Challenge, risk.Result, bool, error) {
	c, res, err := s.Evaluate(ctx, challengeID)
	if err != nil {
		return c, res, false, err
	}

	to, decided := StatusForVerdict(res.Verdict)
	if c.Status != Active || !decided {
		s.log.Debug("reconcile: no change",
			"challenge", challengeID, "status", c.Status, "verdict", res.Verdict)
		return c, res, false, nil
	}

	note := fmt.Sprintf("auto: %s (daily %.2f%%, total %.2f%%)",
		res.Verdict, res.DailyDrawdownPercent, res.TotalDrawdownPercent)
	c, err = s.transition(ctx, challengeID, to, note, ActorSystem)
	if err != nil {
		return Challenge{}, res, false, err
	}
	return c, res, true, nil
}

type actorKey struct{}

// WithActor tags ctx with the admin performing a transition.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return "admin"
}
