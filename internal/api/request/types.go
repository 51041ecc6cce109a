package request

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/mcoot/golfclub/internal/model"
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]{2,50}$`)
	phonePattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)
)

const (
	minDurationMonths = 1
	maxDurationMonths = 60
	minParticipants   = 2
	maxParticipants   = 100
)

// MemberRequest is the request body for creating or updating a member
type MemberRequest struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	StartDate      string `json:"start_date"`
	DurationMonths int    `json:"duration_months"`
}

// MemberFields is a validated MemberRequest
type MemberFields struct {
	Name           string
	Address        string
	Email          string
	Phone          string
	StartDate      time.Time
	DurationMonths int
}

// Validate checks field shapes. Start dates may not be in the future.
func (r MemberRequest) Validate(today time.Time) (MemberFields, error) {
	var f MemberFields
	if !namePattern.MatchString(r.Name) {
		return f, fmt.Errorf("name must be 2-50 letters or spaces")
	}
	if strings.TrimSpace(r.Address) == "" {
		return f, fmt.Errorf("address is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil || strings.ContainsAny(r.Email, "<> ") {
		return f, fmt.Errorf("email must be a valid address")
	}
	if r.Phone != "" && !phonePattern.MatchString(r.Phone) {
		return f, fmt.Errorf("phone must be formatted XXX-XXX-XXXX")
	}
	start, err := model.ParseDate(r.StartDate)
	if err != nil {
		return f, fmt.Errorf("start_date must be YYYY-MM-DD")
	}
	if start.After(model.DateOf(today)) {
		return f, fmt.Errorf("start_date cannot be in the future")
	}
	if r.DurationMonths < minDurationMonths || r.DurationMonths > maxDurationMonths {
		return f, fmt.Errorf("duration_months must be between %d and %d", minDurationMonths, maxDurationMonths)
	}

	return MemberFields{
		Name:           r.Name,
		Address:        r.Address,
		Email:          r.Email,
		Phone:          r.Phone,
		StartDate:      start,
		DurationMonths: r.DurationMonths,
	}, nil
}

// TournamentRequest is the request body for creating or updating a tournament.
// Omitted participant bounds take the club defaults.
type TournamentRequest struct {
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Location        string  `json:"location"`
	EntryFee        float64 `json:"entry_fee"`
	CashPrize       float64 `json:"cash_prize"`
	MinParticipants int     `json:"min_participants,omitempty"`
	MaxParticipants int     `json:"max_participants,omitempty"`
}

// TournamentFields is a validated TournamentRequest
type TournamentFields struct {
	StartDate       time.Time
	EndDate         time.Time
	Location        string
	EntryFee        float64
	CashPrize       float64
	MinParticipants int
	MaxParticipants int
}

// Validate checks field shapes. Date ordering and capacity consistency are
// left to the tournament service, which reports them as distinct errors.
func (r TournamentRequest) Validate() (TournamentFields, error) {
	var f TournamentFields
	start, err := model.ParseDate(r.StartDate)
	if err != nil {
		return f, fmt.Errorf("start_date must be YYYY-MM-DD")
	}
	end, err := model.ParseDate(r.EndDate)
	if err != nil {
		return f, fmt.Errorf("end_date must be YYYY-MM-DD")
	}
	if strings.TrimSpace(r.Location) == "" {
		return f, fmt.Errorf("location is required")
	}
	if r.EntryFee <= 0 {
		return f, fmt.Errorf("entry_fee must be positive")
	}
	if r.CashPrize < 0 {
		return f, fmt.Errorf("cash_prize cannot be negative")
	}
	if r.MinParticipants != 0 && r.MinParticipants < minParticipants {
		return f, fmt.Errorf("min_participants must be at least %d", minParticipants)
	}
	if r.MaxParticipants > maxParticipants || r.MaxParticipants < 0 {
		return f, fmt.Errorf("max_participants must be at most %d", maxParticipants)
	}

	return TournamentFields{
		StartDate:       start,
		EndDate:         end,
		Location:        r.Location,
		EntryFee:        r.EntryFee,
		CashPrize:       r.CashPrize,
		MinParticipants: r.MinParticipants,
		MaxParticipants: r.MaxParticipants,
	}, nil
}

// MemberStatusRequest is the request body for overriding a member's status
type MemberStatusRequest struct {
	Status string `json:"status"`
}

// Parse validates the requested status
func (r MemberStatusRequest) Parse() (model.MemberStatus, error) {
	status := model.MemberStatus(strings.ToUpper(r.Status))
	if !status.Valid() {
		return "", fmt.Errorf("unknown member status %q", r.Status)
	}
	return status, nil
}

// TournamentStatusRequest is the request body for changing a tournament's status
type TournamentStatusRequest struct {
	Status string `json:"status"`
}

// Parse validates the requested status
func (r TournamentStatusRequest) Parse() (model.TournamentStatus, error) {
	status := model.TournamentStatus(strings.ToUpper(r.Status))
	if !status.Valid() {
		return "", fmt.Errorf("unknown tournament status %q", r.Status)
	}
	return status, nil
}

// ExtendDurationRequest is the request body for extending a membership
type ExtendDurationRequest struct {
	Months int `json:"months"`
}

// Validate requires a positive extension
func (r ExtendDurationRequest) Validate() error {
	if r.Months <= 0 {
		return fmt.Errorf("months must be positive")
	}
	return nil
}

// WinningsRequest is the request body for awarding prize money
type WinningsRequest struct {
	Amount float64 `json:"amount"`
}

// Validate requires a positive amount
func (r WinningsRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}
