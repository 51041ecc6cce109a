// Package storagetest holds the behavioural checks every storage backend must pass.
package storagetest

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage"
)

// Suite runs the shared storage contract against a backend.
// Embed it in a backend test suite and set NewStorage.
type Suite struct {
	suite.Suite

	// NewStorage returns a fresh, empty store for each test
	NewStorage func() storage.Storage

	Store storage.Storage
	Ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Store = s.NewStorage()
	s.Ctx = context.Background()
}

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *Suite) newMember(name, email, phone string) *model.Member {
	return &model.Member{
		Name:           name,
		Address:        "1 Fairway Drive",
		Email:          email,
		Phone:          phone,
		StartDate:      model.Date(2024, time.January, 1),
		DurationMonths: 12,
		Status:         model.MemberStatusActive,
		CreatedAt:      epoch,
		UpdatedAt:      epoch,
	}
}

func (s *Suite) createMember(name, email, phone string) *model.Member {
	m := s.newMember(name, email, phone)
	s.Require().NoError(s.Store.CreateMember(s.Ctx, m))
	return m
}

func (s *Suite) createTournament(location string) *model.Tournament {
	t := &model.Tournament{
		StartDate:       model.Date(2024, time.March, 1),
		EndDate:         model.Date(2024, time.March, 3),
		Location:        location,
		EntryFee:        50,
		CashPrize:       1000,
		Status:          model.TournamentStatusScheduled,
		MinParticipants: 2,
		MaxParticipants: 4,
		CreatedAt:       epoch,
		UpdatedAt:       epoch,
	}
	s.Require().NoError(s.Store.CreateTournament(s.Ctx, t))
	return t
}

// Member tests

func (s *Suite) TestCreateMemberAssignsIDAndVersion() {
	a := s.createMember("Alice", "alice@example.com", "555-111-2222")
	b := s.createMember("Bob", "bob@example.com", "")

	s.Equal(model.MemberID(1), a.ID)
	s.Equal(model.MemberID(2), b.ID)
	s.Equal(int64(1), a.Version)

	got, err := s.Store.GetMember(s.Ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("Alice", got.Name)
	s.Equal("555-111-2222", got.Phone)
	s.Equal(model.Date(2024, time.January, 1), got.StartDate.UTC())
	s.Equal(int64(1), got.Version)
}

func (s *Suite) TestGetMemberNotFound() {
	_, err := s.Store.GetMember(s.Ctx, 99)
	s.ErrorIs(err, model.ErrMemberNotFound)
}

func (s *Suite) TestCreateMemberDuplicateEmail() {
	s.createMember("Alice", "alice@example.com", "555-111-2222")

	err := s.Store.CreateMember(s.Ctx, s.newMember("Alicia", "alice@example.com", "555-999-8888"))
	s.ErrorIs(err, model.ErrDuplicateContact)
}

func (s *Suite) TestCreateMemberDuplicatePhone() {
	s.createMember("Alice", "alice@example.com", "555-111-2222")

	err := s.Store.CreateMember(s.Ctx, s.newMember("Bob", "bob@example.com", "555-111-2222"))
	s.ErrorIs(err, model.ErrDuplicateContact)
}

func (s *Suite) TestMembersWithoutPhoneDoNotCollide() {
	s.createMember("Alice", "alice@example.com", "")
	s.createMember("Bob", "bob@example.com", "")

	_, err := s.Store.GetMemberByPhone(s.Ctx, "")
	s.ErrorIs(err, model.ErrMemberNotFound)
}

func (s *Suite) TestGetMemberByEmailAndPhone() {
	a := s.createMember("Alice", "alice@example.com", "555-111-2222")

	byEmail, err := s.Store.GetMemberByEmail(s.Ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(a.ID, byEmail.ID)

	byPhone, err := s.Store.GetMemberByPhone(s.Ctx, "555-111-2222")
	s.Require().NoError(err)
	s.Equal(a.ID, byPhone.ID)

	_, err = s.Store.GetMemberByEmail(s.Ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrMemberNotFound)
}

func (s *Suite) TestSaveMemberBumpsVersion() {
	m := s.createMember("Alice", "alice@example.com", "")
	m.Name = "Alice Smith"

	s.Require().NoError(s.Store.SaveMember(s.Ctx, m))
	s.Equal(int64(2), m.Version)

	got, err := s.Store.GetMember(s.Ctx, m.ID)
	s.Require().NoError(err)
	s.Equal("Alice Smith", got.Name)
	s.Equal(int64(2), got.Version)
}

func (s *Suite) TestSaveMemberRejectsStaleVersion() {
	m := s.createMember("Alice", "alice@example.com", "")

	first, _ := s.Store.GetMember(s.Ctx, m.ID)
	second, _ := s.Store.GetMember(s.Ctx, m.ID)

	first.Name = "First Writer"
	s.Require().NoError(s.Store.SaveMember(s.Ctx, first))

	second.Name = "Second Writer"
	s.ErrorIs(s.Store.SaveMember(s.Ctx, second), model.ErrVersionConflict)

	got, _ := s.Store.GetMember(s.Ctx, m.ID)
	s.Equal("First Writer", got.Name)
}

func (s *Suite) TestSaveMemberMovesContactIndex() {
	m := s.createMember("Alice", "alice@example.com", "555-111-2222")
	m.Email = "alice@club.example.com"
	m.Phone = "555-333-4444"
	s.Require().NoError(s.Store.SaveMember(s.Ctx, m))

	_, err := s.Store.GetMemberByEmail(s.Ctx, "alice@example.com")
	s.ErrorIs(err, model.ErrMemberNotFound)
	_, err = s.Store.GetMemberByPhone(s.Ctx, "555-111-2222")
	s.ErrorIs(err, model.ErrMemberNotFound)

	got, err := s.Store.GetMemberByEmail(s.Ctx, "alice@club.example.com")
	s.Require().NoError(err)
	s.Equal(m.ID, got.ID)

	// Old contact details are free again
	s.createMember("Bob", "alice@example.com", "555-111-2222")
}

func (s *Suite) TestSaveMemberRejectsTakenEmail() {
	s.createMember("Alice", "alice@example.com", "")
	bob := s.createMember("Bob", "bob@example.com", "")

	bob.Email = "alice@example.com"
	s.ErrorIs(s.Store.SaveMember(s.Ctx, bob), model.ErrDuplicateContact)
}

func (s *Suite) TestListMembersOrderedByID() {
	s.createMember("Alice", "alice@example.com", "")
	s.createMember("Bob", "bob@example.com", "")
	s.createMember("Carol", "carol@example.com", "")

	members, err := s.Store.ListMembers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(members, 3)
	s.Equal("Alice", members[0].Name)
	s.Equal("Carol", members[2].Name)
}

func (s *Suite) TestDeleteMemberIsIdempotentAndCascades() {
	m := s.createMember("Alice", "alice@example.com", "555-111-2222")
	t := s.createTournament("Pebble Beach")
	s.Require().NoError(s.Store.AddRegistration(s.Ctx, t, m, epoch))

	s.Require().NoError(s.Store.DeleteMember(s.Ctx, m.ID))
	s.Require().NoError(s.Store.DeleteMember(s.Ctx, m.ID))

	_, err := s.Store.GetMember(s.Ctx, m.ID)
	s.ErrorIs(err, model.ErrMemberNotFound)

	count, err := s.Store.CountRegistrations(s.Ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(0, count)

	// Contact details are released
	s.createMember("Alicia", "alice@example.com", "555-111-2222")
}

// Tournament tests

func (s *Suite) TestCreateAndGetTournament() {
	t := s.createTournament("St Andrews")
	s.Equal(model.TournamentID(1), t.ID)
	s.Equal(int64(1), t.Version)

	got, err := s.Store.GetTournament(s.Ctx, t.ID)
	s.Require().NoError(err)
	s.Equal("St Andrews", got.Location)
	s.Equal(model.TournamentStatusScheduled, got.Status)
	s.InDelta(50.0, got.EntryFee, 0.0001)
	s.Equal(4, got.MaxParticipants)
}

func (s *Suite) TestGetTournamentNotFound() {
	_, err := s.Store.GetTournament(s.Ctx, 42)
	s.ErrorIs(err, model.ErrTournamentNotFound)
}

func (s *Suite) TestSaveTournamentRejectsStaleVersion() {
	t := s.createTournament("St Andrews")
	stale, _ := s.Store.GetTournament(s.Ctx, t.ID)

	t.Location = "Augusta"
	s.Require().NoError(s.Store.SaveTournament(s.Ctx, t))

	stale.Location = "Carnoustie"
	s.ErrorIs(s.Store.SaveTournament(s.Ctx, stale), model.ErrVersionConflict)
}

func (s *Suite) TestListTournamentsOrderedByID() {
	s.createTournament("A")
	s.createTournament("B")

	ts, err := s.Store.ListTournaments(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(ts, 2)
	s.Equal("A", ts[0].Location)
	s.Equal("B", ts[1].Location)
}

func (s *Suite) TestDeleteTournamentCascades() {
	m := s.createMember("Alice", "alice@example.com", "")
	t := s.createTournament("St Andrews")
	s.Require().NoError(s.Store.AddRegistration(s.Ctx, t, m, epoch))

	s.Require().NoError(s.Store.DeleteTournament(s.Ctx, t.ID))
	s.Require().NoError(s.Store.DeleteTournament(s.Ctx, t.ID))

	regs, err := s.Store.ListMemberRegistrations(s.Ctx, m.ID)
	s.Require().NoError(err)
	s.Empty(regs)
}

func (s *Suite) TestSaveTournamentWithMembersIsAtomic() {
	a := s.createMember("Alice", "alice@example.com", "")
	b := s.createMember("Bob", "bob@example.com", "")
	t := s.createTournament("St Andrews")

	staleB, _ := s.Store.GetMember(s.Ctx, b.ID)
	b.Name = "Robert"
	s.Require().NoError(s.Store.SaveMember(s.Ctx, b))

	t.Status = model.TournamentStatusCompleted
	a.IncrementTournamentsPlayed()
	staleB.IncrementTournamentsPlayed()

	err := s.Store.SaveTournamentWithMembers(s.Ctx, t, []*model.Member{a, staleB})
	s.ErrorIs(err, model.ErrVersionConflict)

	gotT, _ := s.Store.GetTournament(s.Ctx, t.ID)
	gotA, _ := s.Store.GetMember(s.Ctx, a.ID)
	s.Equal(model.TournamentStatusScheduled, gotT.Status)
	s.Equal(0, gotA.TournamentsPlayed)
	s.Equal(int64(1), gotA.Version)
}

func (s *Suite) TestSaveTournamentWithMembersCommits() {
	a := s.createMember("Alice", "alice@example.com", "")
	b := s.createMember("Bob", "bob@example.com", "")
	t := s.createTournament("St Andrews")

	t.Status = model.TournamentStatusCompleted
	a.IncrementTournamentsPlayed()
	b.IncrementTournamentsPlayed()
	s.Require().NoError(s.Store.SaveTournamentWithMembers(s.Ctx, t, []*model.Member{a, b}))

	s.Equal(int64(2), t.Version)
	s.Equal(int64(2), a.Version)

	gotT, _ := s.Store.GetTournament(s.Ctx, t.ID)
	gotB, _ := s.Store.GetMember(s.Ctx, b.ID)
	s.Equal(model.TournamentStatusCompleted, gotT.Status)
	s.Equal(1, gotB.TournamentsPlayed)
}

// Registration tests

func (s *Suite) TestAddRegistrationLinksBothSides() {
	m := s.createMember("Alice", "alice@example.com", "")
	t1 := s.createTournament("St Andrews")
	t2 := s.createTournament("Augusta")

	s.Require().NoError(s.Store.AddRegistration(s.Ctx, t1, m, epoch))
	s.Require().NoError(s.Store.AddRegistration(s.Ctx, t2, m, epoch))

	s.Equal(int64(3), m.Version)
	s.Equal(int64(2), t1.Version)

	regs, err := s.Store.ListMemberRegistrations(s.Ctx, m.ID)
	s.Require().NoError(err)
	s.Require().Len(regs, 2)
	s.Equal(t1.ID, regs[0].TournamentID)
	s.Equal(t2.ID, regs[1].TournamentID)

	tregs, err := s.Store.ListTournamentRegistrations(s.Ctx, t1.ID)
	s.Require().NoError(err)
	s.Require().Len(tregs, 1)
	s.Equal(m.ID, tregs[0].MemberID)

	count, err := s.Store.CountRegistrations(s.Ctx, t1.ID)
	s.Require().NoError(err)
	s.Equal(1, count)

	stored, _ := s.Store.GetMember(s.Ctx, m.ID)
	s.Equal(int64(3), stored.Version)
}

func (s *Suite) TestAddRegistrationTwice() {
	m := s.createMember("Alice", "alice@example.com", "")
	t := s.createTournament("St Andrews")
	s.Require().NoError(s.Store.AddRegistration(s.Ctx, t, m, epoch))

	s.ErrorIs(s.Store.AddRegistration(s.Ctx, t, m, epoch), model.ErrAlreadyRegistered)
}

func (s *Suite) TestAddRegistrationRejectsStaleTournament() {
	a := s.createMember("Alice", "alice@example.com", "")
	b := s.createMember("Bob", "bob@example.com", "")
	t := s.createTournament("St Andrews")
	stale, _ := s.Store.GetTournament(s.Ctx, t.ID)

	s.Require().NoError(s.Store.AddRegistration(s.Ctx, t, a, epoch))
	s.ErrorIs(s.Store.AddRegistration(s.Ctx, stale, b, epoch), model.ErrVersionConflict)

	count, _ := s.Store.CountRegistrations(s.Ctx, t.ID)
	s.Equal(1, count)
}

func (s *Suite) TestRemoveRegistration() {
	m := s.createMember("Alice", "alice@example.com", "")
	t := s.createTournament("St Andrews")
	s.Require().NoError(s.Store.AddRegistration(s.Ctx, t, m, epoch))

	s.Require().NoError(s.Store.RemoveRegistration(s.Ctx, t, m))
	s.Equal(int64(3), t.Version)

	count, _ := s.Store.CountRegistrations(s.Ctx, t.ID)
	s.Equal(0, count)

	s.ErrorIs(s.Store.RemoveRegistration(s.Ctx, t, m), model.ErrNotRegistered)
}

func (s *Suite) TestConcurrentRegistrationsNeverExceedOneWinnerPerVersion() {
	t := s.createTournament("St Andrews")
	members := make([]*model.Member, 6)
	for i := range members {
		members[i] = s.createMember("Player", string(rune('a'+i))+"@example.com", "")
	}

	// Every writer reads the same tournament version; exactly one may commit
	var wg sync.WaitGroup
	results := make([]error, len(members))
	for i, m := range members {
		snapshot, err := s.Store.GetTournament(s.Ctx, t.ID)
		s.Require().NoError(err)
		wg.Add(1)
		go func(i int, m *model.Member, snap *model.Tournament) {
			defer wg.Done()
			results[i] = s.Store.AddRegistration(s.Ctx, snap, m, epoch)
		}(i, m, snapshot)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrVersionConflict)
	}
	s.Equal(1, succeeded)

	count, _ := s.Store.CountRegistrations(s.Ctx, t.ID)
	s.Equal(1, count)
}
