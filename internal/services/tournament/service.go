package tournament

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/golfclub/internal/dependencies/clock"
	"github.com/mcoot/golfclub/internal/metrics"
	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage"
)

// Definition is the caller-supplied part of a tournament. Zero capacity
// bounds take the club defaults.
type Definition struct {
	StartDate       time.Time
	EndDate         time.Time
	Location        string
	EntryFee        float64
	CashPrize       float64
	MinParticipants int
	MaxParticipants int
}

// Service manages tournaments and their status lifecycle
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a new tournament Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Create validates and stores a new SCHEDULED tournament
func (s *Service) Create(ctx context.Context, d Definition) (*model.Tournament, error) {
	now := s.clock.Now()
	t := &model.Tournament{Status: model.TournamentStatusScheduled, CreatedAt: now}
	apply(t, d)
	t.UpdatedAt = now

	if err := t.Validate(now); err != nil {
		return nil, err
	}
	if err := s.storage.CreateTournament(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("tournament created",
		slog.Int64("tournament_id", int64(t.ID)),
		slog.String("location", t.Location),
		slog.String("start_date", t.StartDate.Format(model.DateLayout)),
	)
	return t, nil
}

// Get retrieves a tournament by ID
func (s *Service) Get(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	return s.storage.GetTournament(ctx, id)
}

// List returns every tournament ordered by ID
func (s *Service) List(ctx context.Context) ([]*model.Tournament, error) {
	return s.storage.ListTournaments(ctx)
}

// Update replaces a tournament's definition, keeping its status and registrations
func (s *Service) Update(ctx context.Context, id model.TournamentID, d Definition) (*model.Tournament, error) {
	t, err := s.storage.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	apply(t, d)
	now := s.clock.Now()
	if err := t.Validate(now); err != nil {
		return nil, err
	}
	count, err := s.storage.CountRegistrations(ctx, id)
	if err != nil {
		return nil, err
	}
	if count > t.MaxParticipants {
		return nil, fmt.Errorf("%w: %d already registered, maximum %d", model.ErrInvalidCapacity, count, t.MaxParticipants)
	}
	t.UpdatedAt = now

	if err := s.storage.SaveTournament(ctx, t); err != nil {
		return nil, s.conflict("update_tournament", err)
	}
	return t, nil
}

// Delete removes a tournament and its registrations. Deleting a missing tournament is not an error.
func (s *Service) Delete(ctx context.Context, id model.TournamentID) error {
	if err := s.storage.DeleteTournament(ctx, id); err != nil {
		return s.conflict("delete_tournament", err)
	}
	s.logger.Info("tournament deleted", slog.Int64("tournament_id", int64(id)))
	return nil
}

// SetStatus moves a tournament to a new status. COMPLETED is terminal,
// starting requires the minimum field, and completing credits every
// registered member with one tournament played in the same atomic write.
// A missing tournament is ignored.
func (s *Service) SetStatus(ctx context.Context, id model.TournamentID, status model.TournamentStatus) error {
	t, err := s.storage.GetTournament(ctx, id)
	if errors.Is(err, model.ErrTournamentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if t.Status.IsTerminal() {
		return fmt.Errorf("tournament %d: %w", id, model.ErrTerminalState)
	}

	from := t.Status
	var participants []*model.Member

	switch status {
	case model.TournamentStatusInProgress:
		count, err := s.storage.CountRegistrations(ctx, id)
		if err != nil {
			return err
		}
		if !t.HasMinimum(count) {
			return fmt.Errorf("tournament %d has %d of %d: %w", id, count, t.MinParticipants, model.ErrInsufficientParticipants)
		}
	case model.TournamentStatusCompleted:
		participants, err = s.participants(ctx, id)
		if err != nil {
			return err
		}
		for _, m := range participants {
			m.IncrementTournamentsPlayed()
			m.UpdatedAt = s.clock.Now()
		}
	}

	t.Status = status
	t.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveTournamentWithMembers(ctx, t, participants); err != nil {
		return s.conflict("set_tournament_status", err)
	}

	s.metrics.TournamentTransition(string(status))
	s.logger.Info("tournament status changed",
		slog.Int64("tournament_id", int64(id)),
		slog.String("from", string(from)),
		slog.String("to", string(status)),
		slog.Int("credited_members", len(participants)),
	)
	return nil
}

// Revenue is entry fee times registered count. A missing tournament earns nothing.
func (s *Service) Revenue(ctx context.Context, id model.TournamentID) (float64, error) {
	t, err := s.storage.GetTournament(ctx, id)
	if errors.Is(err, model.ErrTournamentNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count, err := s.storage.CountRegistrations(ctx, id)
	if err != nil {
		return 0, err
	}
	return t.Revenue(count), nil
}

// TotalRevenue sums revenue over COMPLETED tournaments
func (s *Service) TotalRevenue(ctx context.Context) (float64, error) {
	tournaments, err := s.storage.ListTournaments(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, t := range tournaments {
		if t.Status != model.TournamentStatusCompleted {
			continue
		}
		count, err := s.storage.CountRegistrations(ctx, t.ID)
		if err != nil {
			return 0, err
		}
		total += t.Revenue(count)
	}
	return total, nil
}

// RegisteredCount returns how many members are registered
func (s *Service) RegisteredCount(ctx context.Context, id model.TournamentID) (int, error) {
	if _, err := s.storage.GetTournament(ctx, id); err != nil {
		return 0, err
	}
	return s.storage.CountRegistrations(ctx, id)
}

// participants loads the registered members, skipping any deleted since
func (s *Service) participants(ctx context.Context, id model.TournamentID) ([]*model.Member, error) {
	regs, err := s.storage.ListTournamentRegistrations(ctx, id)
	if err != nil {
		return nil, err
	}
	members := make([]*model.Member, 0, len(regs))
	for _, r := range regs {
		m, err := s.storage.GetMember(ctx, r.MemberID)
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

func (s *Service) conflict(op string, err error) error {
	if errors.Is(err, model.ErrVersionConflict) {
		s.metrics.Conflict(op)
		s.logger.Warn("version conflict", slog.String("operation", op), slog.String("error", err.Error()))
	}
	return model.AsConflictRetry(err)
}

func apply(t *model.Tournament, d Definition) {
	t.StartDate = model.DateOf(d.StartDate)
	t.EndDate = model.DateOf(d.EndDate)
	t.Location = d.Location
	t.EntryFee = d.EntryFee
	t.CashPrize = d.CashPrize
	t.MinParticipants = d.MinParticipants
	t.MaxParticipants = d.MaxParticipants
	t.ApplyDefaults()
}
