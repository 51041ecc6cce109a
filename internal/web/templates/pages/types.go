// Package pages holds the dashboard's page templates.
package pages

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/services/query"
	"github.com/mcoot/golfclub/internal/web/templates/layout"
)

// DashboardData is the data for the home page
type DashboardData struct {
	layout.PageData
	Upcoming        []*query.TournamentSummary
	TopParticipants []*model.Member
	TotalRevenue    float64
}

// TournamentData is the data for a tournament's page
type TournamentData struct {
	layout.PageData
	Summary      *query.TournamentSummary
	Participants []*model.Member
}

func dateRange(t *model.Tournament) string {
	start := t.StartDate.Format(model.DateLayout)
	if t.EndDate.Equal(t.StartDate) {
		return start
	}
	return start + " to " + t.EndDate.Format(model.DateLayout)
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func entrants(s *query.TournamentSummary) string {
	return fmt.Sprintf("%d / %d", s.Participants, s.MaxParticipants)
}

func itoa[T ~int64 | ~int](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

func tournamentURL(id model.TournamentID) templ.SafeURL {
	return templ.SafeURL("/tournaments/" + itoa(id))
}
