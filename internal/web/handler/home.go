package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/golfclub/internal/services/query"
	"github.com/mcoot/golfclub/internal/services/tournament"
	"github.com/mcoot/golfclub/internal/web/middleware"
	"github.com/mcoot/golfclub/internal/web/templates/layout"
	"github.com/mcoot/golfclub/internal/web/templates/pages"
)

// topParticipantsShown is the length of the dashboard leaderboard
const topParticipantsShown = 5

// HomeHandler handles the dashboard
type HomeHandler struct {
	tournaments *tournament.Service
	queries     *query.Service
	logger      *slog.Logger
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(tournaments *tournament.Service, queries *query.Service, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		tournaments: tournaments,
		queries:     queries,
		logger:      logger,
	}
}

// Home renders the dashboard
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	upcoming, err := h.queries.UpcomingTournaments(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	summaries, err := h.queries.Summaries(ctx, upcoming)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	top, err := h.queries.TopParticipants(ctx, topParticipantsShown)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	revenue, err := h.tournaments.TotalRevenue(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := pages.DashboardData{
		PageData: layout.PageData{
			Title: "Dashboard",
			Flash: middleware.GetFlash(ctx),
		},
		Upcoming:        summaries,
		TopParticipants: top,
		TotalRevenue:    revenue,
	}
	render(w, r, http.StatusOK, pages.Dashboard(data))
}

// NotFound renders the 404 page
func NotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusNotFound, pages.NotFound(layout.PageData{Title: "Not found"}))
}

func (h *HomeHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("render dashboard", slog.String("error", err.Error()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
