package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/golfclub/internal/dependencies/clock"
	"github.com/mcoot/golfclub/internal/metrics"
	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage"
)

const (
	actionRegister = "register"
	actionWithdraw = "withdraw"
)

// Coordinator owns the member/tournament registration relation
type Coordinator struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewCoordinator creates a new registration Coordinator
func NewCoordinator(storage storage.Storage, clock clock.Clock, logger *slog.Logger, metrics *metrics.Metrics) *Coordinator {
	return &Coordinator{
		storage: storage,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Register links a member to a tournament. Eligibility is checked in order:
// capacity, member status, tournament status, existing registration.
func (c *Coordinator) Register(ctx context.Context, tid model.TournamentID, mid model.MemberID) (err error) {
	defer func() { c.metrics.Registration(actionRegister, err) }()

	t, m, err := c.load(ctx, tid, mid)
	if err != nil {
		return err
	}

	count, err := c.storage.CountRegistrations(ctx, tid)
	if err != nil {
		return err
	}
	if t.IsFull(count) {
		return fmt.Errorf("tournament %d has %d of %d: %w", tid, count, t.MaxParticipants, model.ErrTournamentFull)
	}
	if !m.IsActive() {
		return fmt.Errorf("member %d is %s: %w", mid, m.Status, model.ErrMemberInactive)
	}
	if t.Status != model.TournamentStatusScheduled {
		return fmt.Errorf("tournament %d is %s: %w", tid, t.Status, model.ErrRegistrationClosed)
	}

	if err := c.storage.AddRegistration(ctx, t, m, c.clock.Now()); err != nil {
		if errors.Is(err, model.ErrAlreadyRegistered) {
			return fmt.Errorf("member %d in tournament %d: %w", mid, tid, err)
		}
		return c.conflict(actionRegister, err)
	}

	c.logger.Info("member registered",
		slog.Int64("tournament_id", int64(tid)),
		slog.Int64("member_id", int64(mid)),
		slog.Int("participants", count+1),
	)
	return nil
}

// Withdraw removes a member from a tournament regardless of its status
func (c *Coordinator) Withdraw(ctx context.Context, tid model.TournamentID, mid model.MemberID) (err error) {
	defer func() { c.metrics.Registration(actionWithdraw, err) }()

	t, m, err := c.load(ctx, tid, mid)
	if err != nil {
		return err
	}

	if err := c.storage.RemoveRegistration(ctx, t, m); err != nil {
		if errors.Is(err, model.ErrNotRegistered) {
			return fmt.Errorf("member %d in tournament %d: %w", mid, tid, err)
		}
		return c.conflict(actionWithdraw, err)
	}

	c.logger.Info("member withdrawn",
		slog.Int64("tournament_id", int64(tid)),
		slog.Int64("member_id", int64(mid)),
	)
	return nil
}

// Participants returns the members registered for a tournament, ordered by ID
func (c *Coordinator) Participants(ctx context.Context, tid model.TournamentID) ([]*model.Member, error) {
	if _, err := c.storage.GetTournament(ctx, tid); err != nil {
		return nil, err
	}
	regs, err := c.storage.ListTournamentRegistrations(ctx, tid)
	if err != nil {
		return nil, err
	}

	members := make([]*model.Member, 0, len(regs))
	for _, r := range regs {
		m, err := c.storage.GetMember(ctx, r.MemberID)
		if errors.Is(err, model.ErrMemberNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

// MemberTournaments returns the tournaments a member is registered for, ordered by ID
func (c *Coordinator) MemberTournaments(ctx context.Context, mid model.MemberID) ([]*model.Tournament, error) {
	if _, err := c.storage.GetMember(ctx, mid); err != nil {
		return nil, err
	}
	regs, err := c.storage.ListMemberRegistrations(ctx, mid)
	if err != nil {
		return nil, err
	}

	tournaments := make([]*model.Tournament, 0, len(regs))
	for _, r := range regs {
		t, err := c.storage.GetTournament(ctx, r.TournamentID)
		if errors.Is(err, model.ErrTournamentNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, nil
}

func (c *Coordinator) load(ctx context.Context, tid model.TournamentID, mid model.MemberID) (*model.Tournament, *model.Member, error) {
	t, err := c.storage.GetTournament(ctx, tid)
	if err != nil {
		return nil, nil, err
	}
	m, err := c.storage.GetMember(ctx, mid)
	if err != nil {
		return nil, nil, err
	}
	return t, m, nil
}

func (c *Coordinator) conflict(op string, err error) error {
	if errors.Is(err, model.ErrVersionConflict) {
		c.metrics.Conflict(op)
		c.logger.Warn("version conflict", slog.String("operation", op), slog.String("error", err.Error()))
	}
	return model.AsConflictRetry(err)
}
