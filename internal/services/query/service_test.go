package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/golfclub/internal/dependencies/mocks"
	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage/memory"
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
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock)
	s.ctx = context.Background()
}

func (s *ServiceSuite) member(name, email, phone string, mutate func(*model.Member)) *model.Member {
	m := &model.Member{
		Name:           name,
		Email:          email,
		Phone:          phone,
		StartDate:      model.Date(2024, time.January, 1),
		DurationMonths: 12,
		Status:         model.MemberStatusActive,
	}
	if mutate != nil {
		mutate(m)
	}
	s.Require().NoError(s.storage.CreateMember(s.ctx, m))
	return m
}

func (s *ServiceSuite) tournament(location string, start time.Time, mutate func(*model.Tournament)) *model.Tournament {
	t := &model.Tournament{
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 2),
		Location:  location,
		EntryFee:  50,
		CashPrize: 500,
		Status:    model.TournamentStatusScheduled,
	}
	t.ApplyDefaults()
	if mutate != nil {
		mutate(t)
	}
	s.Require().NoError(s.storage.CreateTournament(s.ctx, t))
	return t
}

func (s *ServiceSuite) register(t *model.Tournament, members ...*model.Member) {
	for _, m := range members {
		ft, _ := s.storage.GetTournament(s.ctx, t.ID)
		fm, _ := s.storage.GetMember(s.ctx, m.ID)
		s.Require().NoError(s.storage.AddRegistration(s.ctx, ft, fm, s.clock.Now()))
	}
}

func memberIDs(members []*model.Member) []model.MemberID {
	ids := make([]model.MemberID, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

func tournamentIDs(tournaments []*model.Tournament) []model.TournamentID {
	ids := make([]model.TournamentID, len(tournaments))
	for i, t := range tournaments {
		ids[i] = t.ID
	}
	return ids
}

// Member finder tests

func (s *ServiceSuite) TestMembersByNameIgnoresCase() {
	alice := s.member("Alice Smith", "alice@example.com", "", nil)
	s.member("Bob Jones", "bob@example.com", "", nil)

	found, err := s.service.MembersByName(s.ctx, "SMI")
	s.Require().NoError(err)
	s.Equal([]model.MemberID{alice.ID}, memberIDs(found))
}

func (s *ServiceSuite) TestMembersByPhone() {
	alice := s.member("Alice", "alice@example.com", "555-123-4567", nil)
	s.member("Bob", "bob@example.com", "", nil)

	found, err := s.service.MembersByPhoneContaining(s.ctx, "123")
	s.Require().NoError(err)
	s.Equal([]model.MemberID{alice.ID}, memberIDs(found))

	exact, err := s.service.MemberByPhone(s.ctx, "555-123-4567")
	s.Require().NoError(err)
	s.Equal(alice.ID, exact.ID)

	_, err = s.service.MemberByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrMemberNotFound)
}

func (s *ServiceSuite) TestMembersByStatusAndDates() {
	s.member("Alice", "alice@example.com", "", nil)
	bob := s.member("Bob", "bob@example.com", "", func(m *model.Member) {
		m.Status = model.MemberStatusSuspended
		m.StartDate = model.Date(2023, time.March, 1)
	})

	suspended, err := s.service.MembersByStatus(s.ctx, model.MemberStatusSuspended)
	s.Require().NoError(err)
	s.Equal([]model.MemberID{bob.ID}, memberIDs(suspended))

	started, err := s.service.MembersStartedBetween(s.ctx, model.Date(2023, time.March, 1), model.Date(2023, time.December, 31))
	s.Require().NoError(err)
	s.Equal([]model.MemberID{bob.ID}, memberIDs(started))
}

func (s *ServiceSuite) TestMembersByThresholds() {
	s.member("Alice", "alice@example.com", "", func(m *model.Member) { m.TournamentsPlayed = 3 })
	bob := s.member("Bob", "bob@example.com", "", func(m *model.Member) {
		m.TournamentsPlayed = 4
		m.TotalWinnings = 1200
	})

	played, err := s.service.MembersPlayedMoreThan(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal([]model.MemberID{bob.ID}, memberIDs(played))

	rich, err := s.service.MembersWinningsAbove(s.ctx, 1200)
	s.Require().NoError(err)
	s.Empty(rich)
}

func (s *ServiceSuite) TestMembersByTournament() {
	alice := s.member("Alice", "alice@example.com", "", nil)
	bob := s.member("Bob", "bob@example.com", "", nil)
	carol := s.member("Carol", "carol@example.com", "", nil)
	first := s.tournament("Oak Hollow", model.Date(2024, time.July, 1), nil)
	second := s.tournament("Elm Ridge", model.Date(2024, time.July, 1), nil)
	third := s.tournament("Pine Valley", model.Date(2024, time.August, 1), nil)
	s.register(first, bob, alice)
	s.register(second, alice)
	s.register(third, carol)

	byTournament, err := s.service.MembersByTournament(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal([]model.MemberID{alice.ID, bob.ID}, memberIDs(byTournament))

	byDate, err := s.service.MembersByTournamentDate(s.ctx, model.Date(2024, time.July, 1))
	s.Require().NoError(err)
	s.Equal([]model.MemberID{alice.ID, bob.ID}, memberIDs(byDate))
}

func (s *ServiceSuite) TestActiveMembersByTerm() {
	current := s.member("Alice", "alice@example.com", "", nil)
	s.member("Bob", "bob@example.com", "", func(m *model.Member) {
		m.StartDate = model.Date(2023, time.January, 1)
	})
	s.member("Carol", "carol@example.com", "", func(m *model.Member) {
		m.StartDate = model.Date(2024, time.July, 1)
	})

	active, err := s.service.ActiveMembers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.MemberID{current.ID}, memberIDs(active))
}

func (s *ServiceSuite) TestTopParticipants() {
	low := s.member("Alice", "alice@example.com", "", func(m *model.Member) { m.TournamentsPlayed = 1 })
	high := s.member("Bob", "bob@example.com", "", func(m *model.Member) { m.TournamentsPlayed = 5 })
	tied := s.member("Carol", "carol@example.com", "", func(m *model.Member) { m.TournamentsPlayed = 1 })
	s.member("Dave", "dave@example.com", "", func(m *model.Member) {
		m.TournamentsPlayed = 9
		m.Status = model.MemberStatusExpired
	})

	top, err := s.service.TopParticipants(s.ctx, 0)
	s.Require().NoError(err)
	s.Equal([]model.MemberID{high.ID, low.ID, tied.ID}, memberIDs(top))

	top, err = s.service.TopParticipants(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal([]model.MemberID{high.ID}, memberIDs(top))
}

// Tournament finder tests

func (s *ServiceSuite) TestTournamentsByLocationAndStatus() {
	oak := s.tournament("Oak Hollow", model.Date(2024, time.July, 1), nil)
	elm := s.tournament("Elm Ridge", model.Date(2024, time.July, 1), func(t *model.Tournament) {
		t.Status = model.TournamentStatusCancelled
	})

	byLocation, err := s.service.TournamentsByLocation(s.ctx, "hollow")
	s.Require().NoError(err)
	s.Equal([]model.TournamentID{oak.ID}, tournamentIDs(byLocation))

	cancelled, err := s.service.TournamentsByStatus(s.ctx, model.TournamentStatusCancelled)
	s.Require().NoError(err)
	s.Equal([]model.TournamentID{elm.ID}, tournamentIDs(cancelled))
}

func (s *ServiceSuite) TestCurrentAndUpcoming() {
	running := s.tournament("Oak Hollow", model.Date(2024, time.June, 14), nil)
	later := s.tournament("Elm Ridge", model.Date(2024, time.August, 1), nil)
	sooner := s.tournament("Pine Valley", model.Date(2024, time.July, 1), nil)
	s.tournament("Birch Links", model.Date(2024, time.July, 10), func(t *model.Tournament) {
		t.Status = model.TournamentStatusCancelled
	})

	current, err := s.service.CurrentTournaments(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.TournamentID{running.ID}, tournamentIDs(current))

	upcoming, err := s.service.UpcomingTournaments(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.TournamentID{sooner.ID, later.ID}, tournamentIDs(upcoming))

	inJuly, err := s.service.TournamentsStartingBetween(s.ctx, model.Date(2024, time.July, 1), model.Date(2024, time.July, 31))
	s.Require().NoError(err)
	s.Len(inJuly, 2)
}

func (s *ServiceSuite) TestAvailableAndParticipantCounts() {
	full := s.tournament("Oak Hollow", model.Date(2024, time.July, 1), func(t *model.Tournament) {
		t.MaxParticipants = 2
	})
	open := s.tournament("Elm Ridge", model.Date(2024, time.July, 1), nil)
	s.register(full, s.member("Alice", "alice@example.com", "", nil), s.member("Bob", "bob@example.com", "", nil))

	available, err := s.service.AvailableTournaments(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.TournamentID{open.ID}, tournamentIDs(available))

	busy, err := s.service.TournamentsWithParticipantsAtLeast(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal([]model.TournamentID{full.ID}, tournamentIDs(busy))
}

func (s *ServiceSuite) TestPrizeAndFeeBounds() {
	rich := s.tournament("Oak Hollow", model.Date(2024, time.July, 1), func(t *model.Tournament) {
		t.CashPrize = 10000
		t.EntryFee = 200
	})
	cheap := s.tournament("Elm Ridge", model.Date(2024, time.July, 1), nil)

	prize, err := s.service.TournamentsWithPrizeAtLeast(s.ctx, 10000)
	s.Require().NoError(err)
	s.Equal([]model.TournamentID{rich.ID}, tournamentIDs(prize))

	fee, err := s.service.TournamentsWithFeeAtMost(s.ctx, 50)
	s.Require().NoError(err)
	s.Equal([]model.TournamentID{cheap.ID}, tournamentIDs(fee))
}

func (s *ServiceSuite) TestRecentlyCompletedLatestFirst() {
	older := s.tournament("Oak Hollow", model.Date(2024, time.July, 1), func(t *model.Tournament) {
		t.Status = model.TournamentStatusCompleted
	})
	newer := s.tournament("Elm Ridge", model.Date(2024, time.August, 1), func(t *model.Tournament) {
		t.Status = model.TournamentStatusCompleted
	})
	s.tournament("Pine Valley", model.Date(2024, time.September, 1), nil)

	done, err := s.service.RecentlyCompletedTournaments(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.TournamentID{newer.ID, older.ID}, tournamentIDs(done))
}

func (s *ServiceSuite) TestSummary() {
	t := s.tournament("Oak Hollow", model.Date(2024, time.July, 1), func(t *model.Tournament) {
		t.MaxParticipants = 3
	})
	s.register(t, s.member("Alice", "alice@example.com", "", nil), s.member("Bob", "bob@example.com", "", nil))

	summary, err := s.service.Summary(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(2, summary.Participants)
	s.InDelta(100.0, summary.Revenue, 0.0001)
	s.True(summary.RegistrationOpen)
	s.True(summary.HasMinimum)

	// Registration closes on the start date
	s.clock.Set(time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC))
	summary, err = s.service.Summary(s.ctx, t.ID)
	s.Require().NoError(err)
	s.False(summary.RegistrationOpen)

	_, err = s.service.Summary(s.ctx, 99)
	s.ErrorIs(err, model.ErrTournamentNotFound)
}
