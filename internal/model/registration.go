package model

import "time"

// Registration links one member to one tournament
type Registration struct {
	TournamentID TournamentID `json:"tournament_id"`
	MemberID     MemberID     `json:"member_id"`
	RegisteredAt time.Time    `json:"registered_at"`
}
