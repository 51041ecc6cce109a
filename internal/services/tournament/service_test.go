package tournament

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

func definition() Definition {
	return Definition{
		StartDate: model.Date(2024, time.March, 1),
		EndDate:   model.Date(2024, time.March, 3),
		Location:  "Pebble Creek",
		EntryFee:  75,
		CashPrize: 5000,
	}
}

func (s *ServiceSuite) addMember(email string) *model.Member {
	m := &model.Member{
		Name:           "Player",
		Email:          email,
		StartDate:      model.Date(2024, time.January, 1),
		DurationMonths: 12,
		Status:         model.MemberStatusActive,
	}
	s.Require().NoError(s.storage.CreateMember(s.ctx, m))
	return m
}

func (s *ServiceSuite) register(t *model.Tournament, emails ...string) {
	for _, email := range emails {
		fresh, err := s.storage.GetTournament(s.ctx, t.ID)
		s.Require().NoError(err)
		s.Require().NoError(s.storage.AddRegistration(s.ctx, fresh, s.addMember(email), s.clock.Now()))
	}
}

// Create tests

func (s *ServiceSuite) TestCreateAppliesDefaults() {
	t, err := s.service.Create(s.ctx, definition())
	s.Require().NoError(err)

	s.Equal(model.TournamentStatusScheduled, t.Status)
	s.Equal(model.DefaultMinParticipants, t.MinParticipants)
	s.Equal(model.DefaultMaxParticipants, t.MaxParticipants)
	s.Equal(int64(1), t.Version)
}

func (s *ServiceSuite) TestCreateValidates() {
	d := definition()
	d.EndDate = model.Date(2024, time.February, 1)
	_, err := s.service.Create(s.ctx, d)
	s.ErrorIs(err, model.ErrInvalidWindow)

	d = definition()
	d.MinParticipants, d.MaxParticipants = 10, 4
	_, err = s.service.Create(s.ctx, d)
	s.ErrorIs(err, model.ErrInvalidCapacity)

	d = definition()
	d.StartDate = model.Date(2023, time.December, 31)
	_, err = s.service.Create(s.ctx, d)
	s.ErrorIs(err, model.ErrPastStart)

	all, _ := s.service.List(s.ctx)
	s.Empty(all)
}

func (s *ServiceSuite) TestCreateStartingToday() {
	d := definition()
	d.StartDate = model.Date(2024, time.January, 1)
	d.EndDate = d.StartDate
	_, err := s.service.Create(s.ctx, d)
	s.NoError(err)
}

// Update tests

func (s *ServiceSuite) TestUpdateKeepsStatusAndRegistrations() {
	t, _ := s.service.Create(s.ctx, definition())
	s.register(t, "a@example.com", "b@example.com")
	s.Require().NoError(s.service.SetStatus(s.ctx, t.ID, model.TournamentStatusInProgress))

	d := definition()
	d.Location = "Elm Ridge"
	d.EntryFee = 90
	updated, err := s.service.Update(s.ctx, t.ID, d)
	s.Require().NoError(err)

	s.Equal("Elm Ridge", updated.Location)
	s.Equal(model.TournamentStatusInProgress, updated.Status)
	count, _ := s.service.RegisteredCount(s.ctx, t.ID)
	s.Equal(2, count)
}

func (s *ServiceSuite) TestUpdateRevalidates() {
	t, _ := s.service.Create(s.ctx, definition())

	d := definition()
	d.MinParticipants, d.MaxParticipants = 5, 3
	_, err := s.service.Update(s.ctx, t.ID, d)
	s.ErrorIs(err, model.ErrInvalidCapacity)

	got, _ := s.service.Get(s.ctx, t.ID)
	s.Equal(model.DefaultMaxParticipants, got.MaxParticipants)
}

func (s *ServiceSuite) TestUpdateCannotShrinkBelowRegistered() {
	t, _ := s.service.Create(s.ctx, definition())
	s.register(t, "a@example.com", "b@example.com", "c@example.com")

	d := definition()
	d.MaxParticipants = 2
	_, err := s.service.Update(s.ctx, t.ID, d)
	s.ErrorIs(err, model.ErrInvalidCapacity)

	got, _ := s.service.Get(s.ctx, t.ID)
	s.Equal(model.DefaultMaxParticipants, got.MaxParticipants)

	d.MaxParticipants = 3
	updated, err := s.service.Update(s.ctx, t.ID, d)
	s.Require().NoError(err)
	s.Equal(3, updated.MaxParticipants)
}

func (s *ServiceSuite) TestUpdateMissing() {
	_, err := s.service.Update(s.ctx, 7, definition())
	s.ErrorIs(err, model.ErrTournamentNotFound)
}

// Status tests

func (s *ServiceSuite) TestSetStatusMissingIsIgnored() {
	s.NoError(s.service.SetStatus(s.ctx, 7, model.TournamentStatusCompleted))
}

func (s *ServiceSuite) TestStartNeedsMinimum() {
	t, _ := s.service.Create(s.ctx, definition())
	s.register(t, "a@example.com")

	s.ErrorIs(s.service.SetStatus(s.ctx, t.ID, model.TournamentStatusInProgress), model.ErrInsufficientParticipants)

	s.register(t, "b@example.com")
	s.NoError(s.service.SetStatus(s.ctx, t.ID, model.TournamentStatusInProgress))
}

func (s *ServiceSuite) TestCancelFromInProgress() {
	t, _ := s.service.Create(s.ctx, definition())
	s.register(t, "a@example.com", "b@example.com")
	s.Require().NoError(s.service.SetStatus(s.ctx, t.ID, model.TournamentStatusInProgress))

	s.Require().NoError(s.service.SetStatus(s.ctx, t.ID, model.TournamentStatusCancelled))
	got, _ := s.service.Get(s.ctx, t.ID)
	s.Equal(model.TournamentStatusCancelled, got.Status)
}

func (s *ServiceSuite) TestCompletionIncrementsPlayedOnly() {
	t, _ := s.service.Create(s.ctx, definition())
	s.register(t, "a@example.com", "b@example.com")

	s.Require().NoError(s.service.SetStatus(s.ctx, t.ID, model.TournamentStatusCompleted))

	for _, email := range []string{"a@example.com", "b@example.com"} {
		m, err := s.storage.GetMemberByEmail(s.ctx, email)
		s.Require().NoError(err)
		s.Equal(1, m.TournamentsPlayed)
		s.Zero(m.TotalWinnings)
	}
	s.ErrorIs(s.service.SetStatus(s.ctx, t.ID, model.TournamentStatusScheduled), model.ErrTerminalState)
}

// Revenue tests

func (s *ServiceSuite) TestRevenue() {
	t, _ := s.service.Create(s.ctx, definition())
	s.register(t, "a@example.com", "b@example.com", "c@example.com")

	revenue, err := s.service.Revenue(s.ctx, t.ID)
	s.Require().NoError(err)
	s.InDelta(225.0, revenue, 0.0001)

	revenue, err = s.service.Revenue(s.ctx, 99)
	s.Require().NoError(err)
	s.Zero(revenue)
}

func (s *ServiceSuite) TestTotalRevenueCountsCompletedOnly() {
	done, _ := s.service.Create(s.ctx, definition())
	open, _ := s.service.Create(s.ctx, definition())
	s.register(done, "a@example.com", "b@example.com")
	s.register(open, "c@example.com", "d@example.com")
	s.Require().NoError(s.service.SetStatus(s.ctx, done.ID, model.TournamentStatusCompleted))

	total, err := s.service.TotalRevenue(s.ctx)
	s.Require().NoError(err)
	s.InDelta(150.0, total, 0.0001)
}

func (s *ServiceSuite) TestDeleteCascadesRegistrations() {
	t, _ := s.service.Create(s.ctx, definition())
	s.register(t, "a@example.com")

	s.Require().NoError(s.service.Delete(s.ctx, t.ID))
	s.NoError(s.service.Delete(s.ctx, t.ID))

	m, _ := s.storage.GetMemberByEmail(s.ctx, "a@example.com")
	regs, err := s.storage.ListMemberRegistrations(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Empty(regs)

	_, err = s.service.RegisteredCount(s.ctx, t.ID)
	s.ErrorIs(err, model.ErrTournamentNotFound)
}
