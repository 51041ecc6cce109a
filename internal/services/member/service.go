package member

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

// Profile is the caller-supplied part of a member record
type Profile struct {
	Name           string
	Address        string
	Email          string
	Phone          string
	StartDate      time.Time
	DurationMonths int
}

// Service manages member records and their status lifecycle
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a new member Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Create registers a new ACTIVE member with zeroed statistics
func (s *Service) Create(ctx context.Context, p Profile) (*model.Member, error) {
	if err := s.checkContact(ctx, 0, p.Email, p.Phone); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	m := &model.Member{
		Name:           p.Name,
		Address:        p.Address,
		Email:          p.Email,
		Phone:          p.Phone,
		StartDate:      model.DateOf(p.StartDate),
		DurationMonths: p.DurationMonths,
		Status:         model.MemberStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.storage.CreateMember(ctx, m); err != nil {
		return nil, s.conflict("create_member", err)
	}

	s.logger.Info("member created", slog.Int64("member_id", int64(m.ID)))
	return m, nil
}

// Get retrieves a member by ID
func (s *Service) Get(ctx context.Context, id model.MemberID) (*model.Member, error) {
	return s.storage.GetMember(ctx, id)
}

// List returns every member ordered by ID
func (s *Service) List(ctx context.Context) ([]*model.Member, error) {
	return s.storage.ListMembers(ctx)
}

// Update overwrites a member's profile, keeping status and statistics.
// Contact details are re-checked only when the email changes.
func (s *Service) Update(ctx context.Context, id model.MemberID, p Profile) (*model.Member, error) {
	m, err := s.storage.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}

	if m.Email != p.Email {
		if err := s.checkContact(ctx, id, p.Email, p.Phone); err != nil {
			return nil, err
		}
	}

	m.Name = p.Name
	m.Address = p.Address
	m.Email = p.Email
	m.Phone = p.Phone
	m.StartDate = model.DateOf(p.StartDate)
	m.DurationMonths = p.DurationMonths
	m.UpdatedAt = s.clock.Now()

	if err := s.storage.SaveMember(ctx, m); err != nil {
		return nil, s.conflict("update_member", err)
	}
	return m, nil
}

// Delete removes a member and their registrations. Deleting a missing member is not an error.
func (s *Service) Delete(ctx context.Context, id model.MemberID) error {
	if err := s.storage.DeleteMember(ctx, id); err != nil {
		return s.conflict("delete_member", err)
	}
	s.logger.Info("member deleted", slog.Int64("member_id", int64(id)))
	return nil
}

// SetStatus is an administrative override to any status. A missing member is ignored.
func (s *Service) SetStatus(ctx context.Context, id model.MemberID, status model.MemberStatus) error {
	m, err := s.storage.GetMember(ctx, id)
	if errors.Is(err, model.ErrMemberNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	from := m.Status
	m.Status = status
	m.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveMember(ctx, m); err != nil {
		return s.conflict("set_member_status", err)
	}

	s.metrics.MemberTransition(string(status))
	s.logger.Info("member status changed",
		slog.Int64("member_id", int64(id)),
		slog.String("from", string(from)),
		slog.String("to", string(status)),
	)
	return nil
}

// ExtendDuration adds months to the membership term
func (s *Service) ExtendDuration(ctx context.Context, id model.MemberID, months int) (*model.Member, error) {
	m, err := s.storage.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}

	m.DurationMonths += months
	m.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveMember(ctx, m); err != nil {
		return nil, s.conflict("extend_duration", err)
	}
	return m, nil
}

// ReconcileExpiry marks a lapsed membership EXPIRED. Expiry is only evaluated
// here; nothing changes status in the background. A missing member is ignored.
func (s *Service) ReconcileExpiry(ctx context.Context, id model.MemberID) error {
	m, err := s.storage.GetMember(ctx, id)
	if errors.Is(err, model.ErrMemberNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if m.Status == model.MemberStatusExpired || !m.IsExpired(s.clock.Now()) {
		return nil
	}

	m.Status = model.MemberStatusExpired
	m.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveMember(ctx, m); err != nil {
		return s.conflict("reconcile_expiry", err)
	}

	s.metrics.MemberTransition(string(model.MemberStatusExpired))
	s.logger.Info("membership expired",
		slog.Int64("member_id", int64(id)),
		slog.Time("expired_on", m.ExpiresOn()),
	)
	return nil
}

// AwardWinnings credits prize money to a member
func (s *Service) AwardWinnings(ctx context.Context, id model.MemberID, amount float64) (*model.Member, error) {
	m, err := s.storage.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}

	m.AddWinnings(amount)
	m.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveMember(ctx, m); err != nil {
		return nil, s.conflict("award_winnings", err)
	}
	return m, nil
}

// checkContact rejects an email or phone held by a member other than self
func (s *Service) checkContact(ctx context.Context, self model.MemberID, email, phone string) error {
	existing, err := s.storage.GetMemberByEmail(ctx, email)
	if err == nil && existing.ID != self {
		return fmt.Errorf("email %s: %w", email, model.ErrDuplicateContact)
	}
	if err != nil && !errors.Is(err, model.ErrMemberNotFound) {
		return err
	}

	if phone == "" {
		return nil
	}
	existing, err = s.storage.GetMemberByPhone(ctx, phone)
	if err == nil && existing.ID != self {
		return fmt.Errorf("phone %s: %w", phone, model.ErrDuplicateContact)
	}
	if err != nil && !errors.Is(err, model.ErrMemberNotFound) {
		return err
	}
	return nil
}

func (s *Service) conflict(op string, err error) error {
	if errors.Is(err, model.ErrVersionConflict) {
		s.metrics.Conflict(op)
		s.logger.Warn("version conflict", slog.String("operation", op), slog.String("error", err.Error()))
	}
	return model.AsConflictRetry(err)
}
