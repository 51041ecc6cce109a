package member

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/golfclub/internal/dependencies/mocks"
	"github.com/mcoot/golfclub/internal/metrics"
	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage/memory"
	"github.com/mcoot/golfclub/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, testutil.NopLogger(), metrics.New())
	s.ctx = context.Background()
}

func (s *ServiceSuite) profile(email, phone string) Profile {
	return Profile{
		Name:           "Alice Smith",
		Address:        "1 Fairway Drive",
		Email:          email,
		Phone:          phone,
		StartDate:      model.Date(2024, time.January, 1),
		DurationMonths: 12,
	}
}

// Create tests

func (s *ServiceSuite) TestCreateStartsActiveWithZeroStats() {
	m, err := s.service.Create(s.ctx, s.profile("alice@example.com", "555-111-2222"))
	s.Require().NoError(err)

	s.Equal(model.MemberID(1), m.ID)
	s.Equal(model.MemberStatusActive, m.Status)
	s.Zero(m.TournamentsPlayed)
	s.Zero(m.TotalWinnings)
	s.Equal(s.clock.Now(), m.CreatedAt)
}

func (s *ServiceSuite) TestCreateRejectsDuplicateEmail() {
	_, err := s.service.Create(s.ctx, s.profile("alice@example.com", "555-111-2222"))
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, s.profile("alice@example.com", "555-999-0000"))
	s.ErrorIs(err, model.ErrDuplicateContact)
}

func (s *ServiceSuite) TestCreateRejectsDuplicatePhone() {
	_, err := s.service.Create(s.ctx, s.profile("alice@example.com", "555-111-2222"))
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, s.profile("bob@example.com", "555-111-2222"))
	s.ErrorIs(err, model.ErrDuplicateContact)
}

func (s *ServiceSuite) TestCreateAllowsMissingPhones() {
	_, err := s.service.Create(s.ctx, s.profile("alice@example.com", ""))
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, s.profile("bob@example.com", ""))
	s.NoError(err)
}

// Update tests

func (s *ServiceSuite) TestUpdateKeepsStatusAndStats() {
	m, _ := s.service.Create(s.ctx, s.profile("alice@example.com", "555-111-2222"))
	s.Require().NoError(s.service.SetStatus(s.ctx, m.ID, model.MemberStatusSuspended))
	_, err := s.service.AwardWinnings(s.ctx, m.ID, 40)
	s.Require().NoError(err)

	p := s.profile("alice@example.com", "555-111-2222")
	p.Name = "Alice Jones"
	updated, err := s.service.Update(s.ctx, m.ID, p)
	s.Require().NoError(err)

	s.Equal("Alice Jones", updated.Name)
	s.Equal(model.MemberStatusSuspended, updated.Status)
	s.InDelta(40.0, updated.TotalWinnings, 0.0001)
}

func (s *ServiceSuite) TestUpdateRejectsEmailOfAnotherMember() {
	alice, _ := s.service.Create(s.ctx, s.profile("alice@example.com", "555-111-2222"))
	_, _ = s.service.Create(s.ctx, s.profile("bob@example.com", "555-333-4444"))

	_, err := s.service.Update(s.ctx, alice.ID, s.profile("bob@example.com", "555-111-2222"))
	s.ErrorIs(err, model.ErrDuplicateContact)
}

func (s *ServiceSuite) TestUpdateMissingMember() {
	_, err := s.service.Update(s.ctx, 42, s.profile("x@example.com", ""))
	s.ErrorIs(err, model.ErrMemberNotFound)
}

// Status tests

func (s *ServiceSuite) TestSetStatusAllowsAnyTransition() {
	m, _ := s.service.Create(s.ctx, s.profile("alice@example.com", ""))

	for _, status := range []model.MemberStatus{
		model.MemberStatusExpired,
		model.MemberStatusPending,
		model.MemberStatusActive,
		model.MemberStatusSuspended,
	} {
		s.Require().NoError(s.service.SetStatus(s.ctx, m.ID, status))
		got, err := s.service.Get(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal(status, got.Status)
	}
}

func (s *ServiceSuite) TestSetStatusMissingMemberIsIgnored() {
	s.NoError(s.service.SetStatus(s.ctx, 99, model.MemberStatusSuspended))
}

func (s *ServiceSuite) TestExtendDuration() {
	m, _ := s.service.Create(s.ctx, s.profile("alice@example.com", ""))

	got, err := s.service.ExtendDuration(s.ctx, m.ID, 6)
	s.Require().NoError(err)
	s.Equal(18, got.DurationMonths)

	_, err = s.service.ExtendDuration(s.ctx, 99, 1)
	s.ErrorIs(err, model.ErrMemberNotFound)
}

func (s *ServiceSuite) TestReconcileExpiry() {
	p := s.profile("alice@example.com", "")
	p.DurationMonths = 1
	m, _ := s.service.Create(s.ctx, p)

	// Still covered on the expiry day itself
	s.clock.Set(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(s.service.ReconcileExpiry(s.ctx, m.ID))
	got, _ := s.service.Get(s.ctx, m.ID)
	s.Equal(model.MemberStatusActive, got.Status)

	s.clock.AdvanceDays(1)
	s.Require().NoError(s.service.ReconcileExpiry(s.ctx, m.ID))
	got, _ = s.service.Get(s.ctx, m.ID)
	s.Equal(model.MemberStatusExpired, got.Status)

	s.NoError(s.service.ReconcileExpiry(s.ctx, 99))
}

func (s *ServiceSuite) TestDeleteIsIdempotent() {
	m, _ := s.service.Create(s.ctx, s.profile("alice@example.com", ""))

	s.Require().NoError(s.service.Delete(s.ctx, m.ID))
	s.NoError(s.service.Delete(s.ctx, m.ID))

	_, err := s.service.Get(s.ctx, m.ID)
	s.ErrorIs(err, model.ErrMemberNotFound)
}

func (s *ServiceSuite) TestList() {
	_, _ = s.service.Create(s.ctx, s.profile("alice@example.com", ""))
	_, _ = s.service.Create(s.ctx, s.profile("bob@example.com", ""))

	members, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Len(members, 2)
	s.Equal("alice@example.com", members[0].Email)
}
