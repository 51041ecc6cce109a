package response

import (
	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/services/query"
)

// Member represents a member in API responses
type Member struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Address           string  `json:"address"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone,omitempty"`
	StartDate         string  `json:"start_date"`
	DurationMonths    int     `json:"duration_months"`
	ExpiresOn         string  `json:"expires_on"`
	Status            string  `json:"status"`
	TournamentsPlayed int     `json:"tournaments_played"`
	TotalWinnings     float64 `json:"total_winnings"`
	Version           int64   `json:"version"`
}

// MemberFromModel converts a model.Member
func MemberFromModel(m *model.Member) Member {
	return Member{
		ID:                int64(m.ID),
		Name:              m.Name,
		Address:           m.Address,
		Email:             m.Email,
		Phone:             m.Phone,
		StartDate:         m.StartDate.Format(model.DateLayout),
		DurationMonths:    m.DurationMonths,
		ExpiresOn:         m.ExpiresOn().Format(model.DateLayout),
		Status:            string(m.Status),
		TournamentsPlayed: m.TournamentsPlayed,
		TotalWinnings:     m.TotalWinnings,
		Version:           m.Version,
	}
}

// MembersFromModel converts a slice, never returning nil
func MembersFromModel(members []*model.Member) []Member {
	out := make([]Member, len(members))
	for i, m := range members {
		out[i] = MemberFromModel(m)
	}
	return out
}

// Tournament represents a tournament in API responses
type Tournament struct {
	ID              int64   `json:"id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Location        string  `json:"location"`
	EntryFee        float64 `json:"entry_fee"`
	CashPrize       float64 `json:"cash_prize"`
	Status          string  `json:"status"`
	MinParticipants int     `json:"min_participants"`
	MaxParticipants int     `json:"max_participants"`
	Version         int64   `json:"version"`
}

// TournamentFromModel converts a model.Tournament
func TournamentFromModel(t *model.Tournament) Tournament {
	return Tournament{
		ID:              int64(t.ID),
		StartDate:       t.StartDate.Format(model.DateLayout),
		EndDate:         t.EndDate.Format(model.DateLayout),
		Location:        t.Location,
		EntryFee:        t.EntryFee,
		CashPrize:       t.CashPrize,
		Status:          string(t.Status),
		MinParticipants: t.MinParticipants,
		MaxParticipants: t.MaxParticipants,
		Version:         t.Version,
	}
}

// TournamentsFromModel converts a slice, never returning nil
func TournamentsFromModel(tournaments []*model.Tournament) []Tournament {
	out := make([]Tournament, len(tournaments))
	for i, t := range tournaments {
		out[i] = TournamentFromModel(t)
	}
	return out
}

// TournamentDetail is a tournament with its registration figures
type TournamentDetail struct {
	Tournament
	Participants     int     `json:"participants"`
	Revenue          float64 `json:"revenue"`
	RegistrationOpen bool    `json:"registration_open"`
	HasMinimum       bool    `json:"has_minimum"`
}

// TournamentDetailFromSummary converts a query.TournamentSummary
func TournamentDetailFromSummary(s *query.TournamentSummary) TournamentDetail {
	return TournamentDetail{
		Tournament:       TournamentFromModel(s.Tournament),
		Participants:     s.Participants,
		Revenue:          s.Revenue,
		RegistrationOpen: s.RegistrationOpen,
		HasMinimum:       s.HasMinimum,
	}
}

// Revenue is the response for revenue endpoints
type Revenue struct {
	TournamentID *int64  `json:"tournament_id,omitempty"`
	Revenue      float64 `json:"revenue"`
}

// Banner is the API root response
type Banner struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	APIDocs string `json:"api_docs"`
}

// Health is the health check response
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
