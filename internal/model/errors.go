package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Lookup errors
	ErrMemberNotFound     = errors.New("member not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	// Member errors
	ErrDuplicateContact = errors.New("contact details already in use")

	// Tournament definition errors
	ErrInvalidWindow   = errors.New("end date is before start date")
	ErrInvalidCapacity = errors.New("minimum participants exceeds maximum")
	ErrPastStart       = errors.New("start date is in the past")

	// Tournament transition errors
	ErrTerminalState            = errors.New("tournament is already completed")
	ErrInsufficientParticipants = errors.New("not enough participants to start")

	// Registration errors
	ErrTournamentFull     = errors.New("tournament is full")
	ErrMemberInactive     = errors.New("member is not active")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrAlreadyRegistered  = errors.New("member is already registered")
	ErrNotRegistered      = errors.New("member is not registered")

	// Concurrency errors
	ErrVersionConflict = errors.New("stale entity version")
	ErrConflictRetry   = errors.New("concurrent modification, retry")
)

// AsConflictRetry surfaces a store version conflict as ErrConflictRetry,
// keeping the original error in the chain. Other errors pass through.
func AsConflictRetry(err error) error {
	if errors.Is(err, ErrVersionConflict) {
		return fmt.Errorf("%w: %w", ErrConflictRetry, err)
	}
	return err
}
