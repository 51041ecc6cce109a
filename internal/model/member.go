package model

import (
	"fmt"
	"time"
)

// MemberID uniquely identifies a club member
type MemberID int64

// String renders the ID for logs and keys
func (id MemberID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// MemberStatus is the membership lifecycle state
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "ACTIVE"
	MemberStatusExpired   MemberStatus = "EXPIRED"
	MemberStatusSuspended MemberStatus = "SUSPENDED"
	MemberStatusPending   MemberStatus = "PENDING"
)

// Valid reports whether s is a known member status
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusActive, MemberStatusExpired, MemberStatusSuspended, MemberStatusPending:
		return true
	}
	return false
}

// Member is a club member profile with derived playing statistics
type Member struct {
	ID                MemberID     `json:"id"`
	Name              string       `json:"name"`
	Address           string       `json:"address"`
	Email             string       `json:"email"`
	Phone             string       `json:"phone,omitempty"`
	StartDate         time.Time    `json:"start_date"`
	DurationMonths    int          `json:"duration_months"`
	Status            MemberStatus `json:"status"`
	TournamentsPlayed int          `json:"tournaments_played"`
	TotalWinnings     float64      `json:"total_winnings"`

	// Version is the optimistic concurrency token, bumped on every write
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExpiresOn is the first day the membership is no longer covered
func (m *Member) ExpiresOn() time.Time {
	return AddMonths(DateOf(m.StartDate), m.DurationMonths)
}

// IsExpired reports whether the membership term has lapsed as of today
func (m *Member) IsExpired(today time.Time) bool {
	return DateOf(today).After(m.ExpiresOn())
}

// IsActive reports whether the member may take part in club events
func (m *Member) IsActive() bool {
	return m.Status == MemberStatusActive
}

// CoversDate reports whether the membership term includes the given day
func (m *Member) CoversDate(day time.Time) bool {
	d := DateOf(day)
	return !DateOf(m.StartDate).After(d) && m.ExpiresOn().After(d)
}

// IncrementTournamentsPlayed records one more completed tournament
func (m *Member) IncrementTournamentsPlayed() {
	m.TournamentsPlayed++
}

// AddWinnings adds prize money to the running total
func (m *Member) AddWinnings(amount float64) {
	m.TotalWinnings += amount
}

// Clone returns a copy safe to mutate independently of stored state
func (m *Member) Clone() *Member {
	c := *m
	return &c
}
