package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	members     map[model.MemberID]*model.Member
	tournaments map[model.TournamentID]*model.Tournament
	emailIndex  map[string]model.MemberID
	phoneIndex  map[string]model.MemberID

	// registrations indexed from both sides
	byTournament map[model.TournamentID]map[model.MemberID]model.Registration
	byMember     map[model.MemberID]map[model.TournamentID]struct{}

	nextMemberID     model.MemberID
	nextTournamentID model.TournamentID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		members:      make(map[model.MemberID]*model.Member),
		tournaments:  make(map[model.TournamentID]*model.Tournament),
		emailIndex:   make(map[string]model.MemberID),
		phoneIndex:   make(map[string]model.MemberID),
		byTournament: make(map[model.TournamentID]map[model.MemberID]model.Registration),
		byMember:     make(map[model.MemberID]map[model.TournamentID]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Member operations

func (s *Storage) CreateMember(ctx context.Context, member *model.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkContactLocked(member); err != nil {
		return err
	}

	s.nextMemberID++
	member.ID = s.nextMemberID
	member.Version = 1

	s.putMemberLocked(member)
	return nil
}

func (s *Storage) SaveMember(ctx context.Context, member *model.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMemberVersionLocked(member); err != nil {
		return err
	}
	if err := s.checkContactLocked(member); err != nil {
		return err
	}

	member.Version++
	s.putMemberLocked(member)
	return nil
}

func (s *Storage) GetMember(ctx context.Context, id model.MemberID) (*model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[id]
	if !ok {
		return nil, model.ErrMemberNotFound
	}
	return member.Clone(), nil
}

func (s *Storage) GetMemberByEmail(ctx context.Context, email string) (*model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrMemberNotFound
	}
	return s.members[id].Clone(), nil
}

func (s *Storage) GetMemberByPhone(ctx context.Context, phone string) (*model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.phoneIndex[phone]
	if !ok || phone == "" {
		return nil, model.ErrMemberNotFound
	}
	return s.members[id].Clone(), nil
}

func (s *Storage) ListMembers(ctx context.Context) ([]*model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := make([]*model.Member, 0, len(s.members))
	for _, m := range s.members {
		members = append(members, m.Clone())
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (s *Storage) DeleteMember(ctx context.Context, id model.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[id]
	if !ok {
		return nil
	}
	s.dropContactLocked(member)
	delete(s.members, id)

	for tid := range s.byMember[id] {
		delete(s.byTournament[tid], id)
	}
	delete(s.byMember, id)
	return nil
}

// Tournament operations

func (s *Storage) CreateTournament(ctx context.Context, tournament *model.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTournamentID++
	tournament.ID = s.nextTournamentID
	tournament.Version = 1
	s.tournaments[tournament.ID] = tournament.Clone()
	return nil
}

func (s *Storage) SaveTournament(ctx context.Context, tournament *model.Tournament) error {
	return s.SaveTournamentWithMembers(ctx, tournament, nil)
}

func (s *Storage) GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, model.ErrTournamentNotFound
	}
	return t.Clone(), nil
}

func (s *Storage) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tournaments := make([]*model.Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		tournaments = append(tournaments, t.Clone())
	}
	sort.Slice(tournaments, func(i, j int) bool { return tournaments[i].ID < tournaments[j].ID })
	return tournaments, nil
}

func (s *Storage) DeleteTournament(ctx context.Context, id model.TournamentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tournaments, id)
	for mid := range s.byTournament[id] {
		delete(s.byMember[mid], id)
	}
	delete(s.byTournament, id)
	return nil
}

func (s *Storage) SaveTournamentWithMembers(ctx context.Context, tournament *model.Tournament, members []*model.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before touching any state
	if err := s.checkTournamentVersionLocked(tournament); err != nil {
		return err
	}
	for _, m := range members {
		if err := s.checkMemberVersionLocked(m); err != nil {
			return err
		}
		if err := s.checkContactLocked(m); err != nil {
			return err
		}
	}

	tournament.Version++
	s.tournaments[tournament.ID] = tournament.Clone()
	for _, m := range members {
		m.Version++
		s.putMemberLocked(m)
	}
	return nil
}

// Registration operations

func (s *Storage) AddRegistration(ctx context.Context, tournament *model.Tournament, member *model.Member, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTournamentVersionLocked(tournament); err != nil {
		return err
	}
	if err := s.checkMemberVersionLocked(member); err != nil {
		return err
	}
	if _, ok := s.byTournament[tournament.ID][member.ID]; ok {
		return model.ErrAlreadyRegistered
	}

	if s.byTournament[tournament.ID] == nil {
		s.byTournament[tournament.ID] = make(map[model.MemberID]model.Registration)
	}
	if s.byMember[member.ID] == nil {
		s.byMember[member.ID] = make(map[model.TournamentID]struct{})
	}
	s.byTournament[tournament.ID][member.ID] = model.Registration{
		TournamentID: tournament.ID,
		MemberID:     member.ID,
		RegisteredAt: at,
	}
	s.byMember[member.ID][tournament.ID] = struct{}{}

	s.bumpPairLocked(tournament, member)
	return nil
}

func (s *Storage) RemoveRegistration(ctx context.Context, tournament *model.Tournament, member *model.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTournamentVersionLocked(tournament); err != nil {
		return err
	}
	if err := s.checkMemberVersionLocked(member); err != nil {
		return err
	}
	if _, ok := s.byTournament[tournament.ID][member.ID]; !ok {
		return model.ErrNotRegistered
	}

	delete(s.byTournament[tournament.ID], member.ID)
	delete(s.byMember[member.ID], tournament.ID)

	s.bumpPairLocked(tournament, member)
	return nil
}

func (s *Storage) ListTournamentRegistrations(ctx context.Context, id model.TournamentID) ([]model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regs := make([]model.Registration, 0, len(s.byTournament[id]))
	for _, r := range s.byTournament[id] {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].MemberID < regs[j].MemberID })
	return regs, nil
}

func (s *Storage) ListMemberRegistrations(ctx context.Context, id model.MemberID) ([]model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regs := make([]model.Registration, 0, len(s.byMember[id]))
	for tid := range s.byMember[id] {
		regs = append(regs, s.byTournament[tid][id])
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].TournamentID < regs[j].TournamentID })
	return regs, nil
}

func (s *Storage) CountRegistrations(ctx context.Context, id model.TournamentID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTournament[id]), nil
}

// Helpers. All require s.mu to be held for writing.

func (s *Storage) checkMemberVersionLocked(member *model.Member) error {
	stored, ok := s.members[member.ID]
	if !ok {
		return fmt.Errorf("member %d: %w", member.ID, model.ErrVersionConflict)
	}
	if stored.Version != member.Version {
		return fmt.Errorf("member %d at version %d, have %d: %w", member.ID, stored.Version, member.Version, model.ErrVersionConflict)
	}
	return nil
}

func (s *Storage) checkTournamentVersionLocked(tournament *model.Tournament) error {
	stored, ok := s.tournaments[tournament.ID]
	if !ok {
		return fmt.Errorf("tournament %d: %w", tournament.ID, model.ErrVersionConflict)
	}
	if stored.Version != tournament.Version {
		return fmt.Errorf("tournament %d at version %d, have %d: %w", tournament.ID, stored.Version, tournament.Version, model.ErrVersionConflict)
	}
	return nil
}

func (s *Storage) checkContactLocked(member *model.Member) error {
	if id, ok := s.emailIndex[member.Email]; ok && id != member.ID {
		return fmt.Errorf("email %s: %w", member.Email, model.ErrDuplicateContact)
	}
	if member.Phone != "" {
		if id, ok := s.phoneIndex[member.Phone]; ok && id != member.ID {
			return fmt.Errorf("phone %s: %w", member.Phone, model.ErrDuplicateContact)
		}
	}
	return nil
}

func (s *Storage) putMemberLocked(member *model.Member) {
	if old, ok := s.members[member.ID]; ok {
		s.dropContactLocked(old)
	}
	s.members[member.ID] = member.Clone()
	s.emailIndex[member.Email] = member.ID
	if member.Phone != "" {
		s.phoneIndex[member.Phone] = member.ID
	}
}

func (s *Storage) dropContactLocked(member *model.Member) {
	delete(s.emailIndex, member.Email)
	if member.Phone != "" {
		delete(s.phoneIndex, member.Phone)
	}
}

func (s *Storage) bumpPairLocked(tournament *model.Tournament, member *model.Member) {
	tournament.Version++
	member.Version++
	s.tournaments[tournament.ID].Version = tournament.Version
	s.members[member.ID].Version = member.Version
}
