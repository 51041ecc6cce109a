package model

import (
	"fmt"
	"time"
)

// TournamentID uniquely identifies a tournament
type TournamentID int64

// String renders the ID for logs and keys
func (id TournamentID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// TournamentStatus is the tournament lifecycle state
type TournamentStatus string

const (
	TournamentStatusScheduled  TournamentStatus = "SCHEDULED"
	TournamentStatusInProgress TournamentStatus = "IN_PROGRESS"
	TournamentStatusCompleted  TournamentStatus = "COMPLETED"
	TournamentStatusCancelled  TournamentStatus = "CANCELLED"
)

// Valid reports whether s is a known tournament status
func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentStatusScheduled, TournamentStatusInProgress, TournamentStatusCompleted, TournamentStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed
func (s TournamentStatus) IsTerminal() bool {
	return s == TournamentStatusCompleted
}

const (
	DefaultMinParticipants = 2
	DefaultMaxParticipants = 100
)

// Tournament is a scheduled club event members register for
type Tournament struct {
	ID              TournamentID     `json:"id"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	Location        string           `json:"location"`
	EntryFee        float64          `json:"entry_fee"`
	CashPrize       float64          `json:"cash_prize"`
	Status          TournamentStatus `json:"status"`
	MinParticipants int              `json:"min_participants"`
	MaxParticipants int              `json:"max_participants"`

	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyDefaults fills unset capacity bounds
func (t *Tournament) ApplyDefaults() {
	if t.MinParticipants == 0 {
		t.MinParticipants = DefaultMinParticipants
	}
	if t.MaxParticipants == 0 {
		t.MaxParticipants = DefaultMaxParticipants
	}
}

// Validate checks date window and capacity invariants, plus the start date
// against today. Checks run in that order.
func (t *Tournament) Validate(today time.Time) error {
	if DateOf(t.EndDate).Before(DateOf(t.StartDate)) {
		return ErrInvalidWindow
	}
	if t.MinParticipants > t.MaxParticipants {
		return ErrInvalidCapacity
	}
	if DateOf(t.StartDate).Before(DateOf(today)) {
		return ErrPastStart
	}
	return nil
}

// RegistrationOpen reports whether a new member can still sign up
func (t *Tournament) RegistrationOpen(today time.Time, registered int) bool {
	return t.Status == TournamentStatusScheduled &&
		registered < t.MaxParticipants &&
		DateOf(today).Before(DateOf(t.StartDate))
}

// HasMinimum reports whether enough members are registered to start
func (t *Tournament) HasMinimum(registered int) bool {
	return registered >= t.MinParticipants
}

// IsFull reports whether the participant cap is reached
func (t *Tournament) IsFull(registered int) bool {
	return registered >= t.MaxParticipants
}

// Revenue is the entry fee collected from registered members
func (t *Tournament) Revenue(registered int) float64 {
	return t.EntryFee * float64(registered)
}

// IsCurrent reports whether the tournament window includes the given day
func (t *Tournament) IsCurrent(day time.Time) bool {
	d := DateOf(day)
	return !DateOf(t.StartDate).After(d) && !DateOf(t.EndDate).Before(d)
}

// Clone returns a copy safe to mutate independently of stored state
func (t *Tournament) Clone() *Tournament {
	c := *t
	return &c
}
