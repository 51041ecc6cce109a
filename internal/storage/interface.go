package storage

import (
	"context"
	"time"

	"github.com/mcoot/golfclub/internal/model"
)

// Storage defines the interface for data persistence.
//
// Writes are optimistic: the entity passed in carries the Version that was
// read, the store rejects it with model.ErrVersionConflict if the stored
// version differs, and on success the passed entity's Version is bumped to the
// stored value. Multi-entity writes are all-or-nothing.
type Storage interface {
	// Member operations
	CreateMember(ctx context.Context, member *model.Member) error
	SaveMember(ctx context.Context, member *model.Member) error
	GetMember(ctx context.Context, id model.MemberID) (*model.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*model.Member, error)
	GetMemberByPhone(ctx context.Context, phone string) (*model.Member, error)
	ListMembers(ctx context.Context) ([]*model.Member, error)
	DeleteMember(ctx context.Context, id model.MemberID) error

	// Tournament operations
	CreateTournament(ctx context.Context, tournament *model.Tournament) error
	SaveTournament(ctx context.Context, tournament *model.Tournament) error
	GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error)
	ListTournaments(ctx context.Context) ([]*model.Tournament, error)
	DeleteTournament(ctx context.Context, id model.TournamentID) error

	// SaveTournamentWithMembers writes a tournament and a set of members in a
	// single atomic step, version-checking every entity.
	SaveTournamentWithMembers(ctx context.Context, tournament *model.Tournament, members []*model.Member) error

	// Registration operations

	// AddRegistration links a member to a tournament and bumps both versions
	// atomically. Returns model.ErrAlreadyRegistered if the link exists.
	AddRegistration(ctx context.Context, tournament *model.Tournament, member *model.Member, at time.Time) error
	// RemoveRegistration unlinks a member from a tournament and bumps both
	// versions atomically. Returns model.ErrNotRegistered if there is no link.
	RemoveRegistration(ctx context.Context, tournament *model.Tournament, member *model.Member) error
	ListTournamentRegistrations(ctx context.Context, id model.TournamentID) ([]model.Registration, error)
	ListMemberRegistrations(ctx context.Context, id model.MemberID) ([]model.Registration, error)
	CountRegistrations(ctx context.Context, id model.TournamentID) (int, error)
}
