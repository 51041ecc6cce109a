// Package query holds the read-only member and tournament finders.
// Every finder works from a fresh read of the store and returns results
// ordered by ID unless stated otherwise.
package query

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/mcoot/golfclub/internal/dependencies/clock"
	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage"
)

// TournamentSummary is a tournament with its derived registration figures
type TournamentSummary struct {
	*model.Tournament
	Participants     int     `json:"participants"`
	Revenue          float64 `json:"revenue"`
	RegistrationOpen bool    `json:"registration_open"`
	HasMinimum       bool    `json:"has_minimum"`
}

// Service answers read-only questions about members and tournaments
type Service struct {
	storage storage.Storage
	clock   clock.Clock
}

// New creates a new query Service
func New(storage storage.Storage, clock clock.Clock) *Service {
	return &Service{storage: storage, clock: clock}
}

// Member finders

// MemberByEmail returns the member holding an exact email
func (s *Service) MemberByEmail(ctx context.Context, email string) (*model.Member, error) {
	return s.storage.GetMemberByEmail(ctx, email)
}

// MemberByPhone returns the member holding an exact phone number
func (s *Service) MemberByPhone(ctx context.Context, phone string) (*model.Member, error) {
	return s.storage.GetMemberByPhone(ctx, phone)
}

// MembersByPhoneContaining matches members whose phone contains partial
func (s *Service) MembersByPhoneContaining(ctx context.Context, partial string) ([]*model.Member, error) {
	return s.filterMembers(ctx, func(m *model.Member) bool {
		return m.Phone != "" && strings.Contains(m.Phone, partial)
	})
}

// MembersByName matches a case-insensitive name substring
func (s *Service) MembersByName(ctx context.Context, name string) ([]*model.Member, error) {
	needle := strings.ToLower(name)
	return s.filterMembers(ctx, func(m *model.Member) bool {
		return strings.Contains(strings.ToLower(m.Name), needle)
	})
}

// MembersByStatus lists members in the given status
func (s *Service) MembersByStatus(ctx context.Context, status model.MemberStatus) ([]*model.Member, error) {
	return s.filterMembers(ctx, func(m *model.Member) bool { return m.Status == status })
}

// MembersStartedBetween matches start dates in [from, to]
func (s *Service) MembersStartedBetween(ctx context.Context, from, to time.Time) ([]*model.Member, error) {
	return s.filterMembers(ctx, func(m *model.Member) bool { return between(m.StartDate, from, to) })
}

// MembersPlayedMoreThan matches members with strictly more than n tournaments played
func (s *Service) MembersPlayedMoreThan(ctx context.Context, n int) ([]*model.Member, error) {
	return s.filterMembers(ctx, func(m *model.Member) bool { return m.TournamentsPlayed > n })
}

// MembersWinningsAbove matches members with strictly more than amount in winnings
func (s *Service) MembersWinningsAbove(ctx context.Context, amount float64) ([]*model.Member, error) {
	return s.filterMembers(ctx, func(m *model.Member) bool { return m.TotalWinnings > amount })
}

// MembersByTournament lists the members registered for a tournament
func (s *Service) MembersByTournament(ctx context.Context, id model.TournamentID) ([]*model.Member, error) {
	regs, err := s.storage.ListTournamentRegistrations(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.membersOf(ctx, regs)
}

// MembersByTournamentDate lists members registered for any tournament starting on day
func (s *Service) MembersByTournamentDate(ctx context.Context, day time.Time) ([]*model.Member, error) {
	tournaments, err := s.storage.ListTournaments(ctx)
	if err != nil {
		return nil, err
	}

	d := model.DateOf(day)
	var regs []model.Registration
	for _, t := range tournaments {
		if !model.DateOf(t.StartDate).Equal(d) {
			continue
		}
		tr, err := s.storage.ListTournamentRegistrations(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		regs = append(regs, tr...)
	}
	return s.membersOf(ctx, regs)
}

// ActiveMembers lists members whose term covers today, whatever their status
func (s *Service) ActiveMembers(ctx context.Context) ([]*model.Member, error) {
	today := s.clock.Now()
	return s.filterMembers(ctx, func(m *model.Member) bool { return m.CoversDate(today) })
}

// TopParticipants lists ACTIVE members by tournaments played, most first
func (s *Service) TopParticipants(ctx context.Context, limit int) ([]*model.Member, error) {
	members, err := s.filterMembers(ctx, func(m *model.Member) bool { return m.IsActive() })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].TournamentsPlayed > members[j].TournamentsPlayed
	})
	if limit > 0 && len(members) > limit {
		members = members[:limit]
	}
	return members, nil
}

// Tournament finders

// TournamentsByStatus lists tournaments in the given status
func (s *Service) TournamentsByStatus(ctx context.Context, status model.TournamentStatus) ([]*model.Tournament, error) {
	return s.filterTournaments(ctx, func(t *model.Tournament, _ int) bool { return t.Status == status })
}

// TournamentsByLocation matches a case-insensitive location substring
func (s *Service) TournamentsByLocation(ctx context.Context, location string) ([]*model.Tournament, error) {
	needle := strings.ToLower(location)
	return s.filterTournaments(ctx, func(t *model.Tournament, _ int) bool {
		return strings.Contains(strings.ToLower(t.Location), needle)
	})
}

// TournamentsStartingBetween matches start dates in [from, to]
func (s *Service) TournamentsStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Tournament, error) {
	return s.filterTournaments(ctx, func(t *model.Tournament, _ int) bool { return between(t.StartDate, from, to) })
}

// CurrentTournaments lists tournaments whose window includes today
func (s *Service) CurrentTournaments(ctx context.Context) ([]*model.Tournament, error) {
	today := s.clock.Now()
	return s.filterTournaments(ctx, func(t *model.Tournament, _ int) bool { return t.IsCurrent(today) })
}

// AvailableTournaments lists SCHEDULED tournaments with a free place
func (s *Service) AvailableTournaments(ctx context.Context) ([]*model.Tournament, error) {
	return s.filterTournaments(ctx, func(t *model.Tournament, count int) bool {
		return t.Status == model.TournamentStatusScheduled && !t.IsFull(count)
	})
}

// TournamentsWithPrizeAtLeast matches tournaments offering at least prize
func (s *Service) TournamentsWithPrizeAtLeast(ctx context.Context, prize float64) ([]*model.Tournament, error) {
	return s.filterTournaments(ctx, func(t *model.Tournament, _ int) bool { return t.CashPrize >= prize })
}

// TournamentsWithFeeAtMost matches tournaments charging at most fee
func (s *Service) TournamentsWithFeeAtMost(ctx context.Context, fee float64) ([]*model.Tournament, error) {
	return s.filterTournaments(ctx, func(t *model.Tournament, _ int) bool { return t.EntryFee <= fee })
}

// TournamentsWithParticipantsAtLeast matches tournaments with at least n registered
func (s *Service) TournamentsWithParticipantsAtLeast(ctx context.Context, n int) ([]*model.Tournament, error) {
	return s.filterTournaments(ctx, func(_ *model.Tournament, count int) bool { return count >= n })
}

// UpcomingTournaments lists SCHEDULED tournaments starting after today, soonest first
func (s *Service) UpcomingTournaments(ctx context.Context) ([]*model.Tournament, error) {
	today := model.DateOf(s.clock.Now())
	tournaments, err := s.filterTournaments(ctx, func(t *model.Tournament, _ int) bool {
		return t.Status == model.TournamentStatusScheduled && model.DateOf(t.StartDate).After(today)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tournaments, func(i, j int) bool {
		return tournaments[i].StartDate.Before(tournaments[j].StartDate)
	})
	return tournaments, nil
}

// RecentlyCompletedTournaments lists COMPLETED tournaments, latest end date first
func (s *Service) RecentlyCompletedTournaments(ctx context.Context) ([]*model.Tournament, error) {
	tournaments, err := s.TournamentsByStatus(ctx, model.TournamentStatusCompleted)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tournaments, func(i, j int) bool {
		return tournaments[i].EndDate.After(tournaments[j].EndDate)
	})
	return tournaments, nil
}

// Summaries

// Summary derives the registration figures for one tournament
func (s *Service) Summary(ctx context.Context, id model.TournamentID) (*TournamentSummary, error) {
	t, err := s.storage.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, t)
}

// Summaries derives registration figures for each tournament given
func (s *Service) Summaries(ctx context.Context, tournaments []*model.Tournament) ([]*TournamentSummary, error) {
	out := make([]*TournamentSummary, 0, len(tournaments))
	for _, t := range tournaments {
		summary, err := s.summarize(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *Service) summarize(ctx context.Context, t *model.Tournament) (*TournamentSummary, error) {
	count, err := s.storage.CountRegistrations(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return &TournamentSummary{
		Tournament:       t,
		Participants:     count,
		Revenue:          t.Revenue(count),
		RegistrationOpen: t.RegistrationOpen(s.clock.Now(), count),
		HasMinimum:       t.HasMinimum(count),
	}, nil
}

// Helpers

func (s *Service) filterMembers(ctx context.Context, keep func(*model.Member) bool) ([]*model.Member, error) {
	all, err := s.storage.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Member, 0, len(all))
	for _, m := range all {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Service) filterTournaments(ctx context.Context, keep func(*model.Tournament, int) bool) ([]*model.Tournament, error) {
	all, err := s.storage.ListTournaments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Tournament, 0, len(all))
	for _, t := range all {
		count, err := s.storage.CountRegistrations(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if keep(t, count) {
			out = append(out, t)
		}
	}
	return out, nil
}

// membersOf resolves registrations to distinct members ordered by ID
func (s *Service) membersOf(ctx context.Context, regs []model.Registration) ([]*model.Member, error) {
	seen := make(map[model.MemberID]bool, len(regs))
	out := make([]*model.Member, 0, len(regs))
	for _, r := range regs {
		if seen[r.MemberID] {
			continue
		}
		seen[r.MemberID] = true
		m, err := s.storage.GetMember(ctx, r.MemberID)
		if errors.Is(err, model.ErrMemberNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func between(day, from, to time.Time) bool {
	d := model.DateOf(day)
	return !d.Before(model.DateOf(from)) && !d.After(model.DateOf(to))
}
