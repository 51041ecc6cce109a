package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/golfclub/internal/api/request"
	"github.com/mcoot/golfclub/internal/api/response"
	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/services/query"
	"github.com/mcoot/golfclub/internal/services/registration"
	"github.com/mcoot/golfclub/internal/services/tournament"
)

// TournamentHandler handles tournament and registration endpoints
type TournamentHandler struct {
	tournaments  *tournament.Service
	queries      *query.Service
	registration *registration.Coordinator
}

// NewTournamentHandler creates a new tournament handler
func NewTournamentHandler(tournaments *tournament.Service, queries *query.Service, registration *registration.Coordinator) *TournamentHandler {
	return &TournamentHandler{
		tournaments:  tournaments,
		queries:      queries,
		registration: registration,
	}
}

// Create handles POST /api/v1/tournaments
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	def, err := decodeDefinition(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	t, err := h.tournaments.Create(r.Context(), def)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TournamentFromModel(t))
}

// List handles GET /api/v1/tournaments
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournaments.List(r.Context())
	writeTournaments(w, tournaments, err)
}

// Get handles GET /api/v1/tournaments/{id}
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	summary, err := h.queries.Summary(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TournamentDetailFromSummary(summary))
}

// Update handles PUT /api/v1/tournaments/{id}
func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	def, err := decodeDefinition(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	t, err := h.tournaments.Update(r.Context(), id, def)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TournamentFromModel(t))
}

// Delete handles DELETE /api/v1/tournaments/{id}
func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.tournaments.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// SetStatus handles PATCH /api/v1/tournaments/{id}/status
func (h *TournamentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	var req request.TournamentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	status, err := req.Parse()
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	if err := h.tournaments.SetStatus(r.Context(), id, status); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Register handles POST /api/v1/tournaments/{id}/members/{memberId}
func (h *TournamentHandler) Register(w http.ResponseWriter, r *http.Request) {
	tid, mid, ok := registrationIDs(w, r)
	if !ok {
		return
	}

	if err := h.registration.Register(r.Context(), tid, mid); err != nil {
		WriteError(w, err)
		return
	}

	h.writeSummary(w, r, tid, http.StatusCreated)
}

// Withdraw handles DELETE /api/v1/tournaments/{id}/members/{memberId}
func (h *TournamentHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	tid, mid, ok := registrationIDs(w, r)
	if !ok {
		return
	}

	if err := h.registration.Withdraw(r.Context(), tid, mid); err != nil {
		WriteError(w, err)
		return
	}

	h.writeSummary(w, r, tid, http.StatusOK)
}

// Members handles GET /api/v1/tournaments/{id}/members
func (h *TournamentHandler) Members(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	members, err := h.registration.Participants(r.Context(), id)
	writeMembers(w, members, err)
}

// Revenue handles GET /api/v1/tournaments/{id}/revenue
func (h *TournamentHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	revenue, err := h.tournaments.Revenue(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	raw := int64(id)
	response.JSON(w, http.StatusOK, response.Revenue{TournamentID: &raw, Revenue: revenue})
}

// TotalRevenue handles GET /api/v1/tournaments/revenue
func (h *TournamentHandler) TotalRevenue(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.tournaments.TotalRevenue(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Revenue{Revenue: revenue})
}

// Search endpoints

// SearchByLocation handles GET /api/v1/tournaments/search/location/{location}
func (h *TournamentHandler) SearchByLocation(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.queries.TournamentsByLocation(r.Context(), mux.Vars(r)["location"])
	writeTournaments(w, tournaments, err)
}

// SearchByStatus handles GET /api/v1/tournaments/search/status/{status}
func (h *TournamentHandler) SearchByStatus(w http.ResponseWriter, r *http.Request) {
	status := model.TournamentStatus(strings.ToUpper(mux.Vars(r)["status"]))
	if !status.Valid() {
		WriteError(w, NewInvalidRequestError("unknown tournament status"))
		return
	}
	tournaments, err := h.queries.TournamentsByStatus(r.Context(), status)
	writeTournaments(w, tournaments, err)
}

// SearchByDates handles GET /api/v1/tournaments/search/dates?from=&to=
func (h *TournamentHandler) SearchByDates(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		WriteError(w, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		WriteError(w, err)
		return
	}
	tournaments, err := h.queries.TournamentsStartingBetween(r.Context(), from, to)
	writeTournaments(w, tournaments, err)
}

// SearchByPrize handles GET /api/v1/tournaments/search/prize?min=
func (h *TournamentHandler) SearchByPrize(w http.ResponseWriter, r *http.Request) {
	prize, err := queryFloat(r, "min")
	if err != nil {
		WriteError(w, err)
		return
	}
	tournaments, err := h.queries.TournamentsWithPrizeAtLeast(r.Context(), prize)
	writeTournaments(w, tournaments, err)
}

// SearchByFee handles GET /api/v1/tournaments/search/fee?max=
func (h *TournamentHandler) SearchByFee(w http.ResponseWriter, r *http.Request) {
	fee, err := queryFloat(r, "max")
	if err != nil {
		WriteError(w, err)
		return
	}
	tournaments, err := h.queries.TournamentsWithFeeAtMost(r.Context(), fee)
	writeTournaments(w, tournaments, err)
}

// SearchByParticipants handles GET /api/v1/tournaments/search/participants?minCount=
func (h *TournamentHandler) SearchByParticipants(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "minCount")
	if err != nil {
		WriteError(w, err)
		return
	}
	tournaments, err := h.queries.TournamentsWithParticipantsAtLeast(r.Context(), n)
	writeTournaments(w, tournaments, err)
}

// Current handles GET /api/v1/tournaments/current
func (h *TournamentHandler) Current(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.queries.CurrentTournaments(r.Context())
	writeTournaments(w, tournaments, err)
}

// Available handles GET /api/v1/tournaments/available
func (h *TournamentHandler) Available(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.queries.AvailableTournaments(r.Context())
	writeTournaments(w, tournaments, err)
}

// Upcoming handles GET /api/v1/tournaments/upcoming
func (h *TournamentHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.queries.UpcomingTournaments(r.Context())
	writeTournaments(w, tournaments, err)
}

// RecentlyCompleted handles GET /api/v1/tournaments/recently-completed
func (h *TournamentHandler) RecentlyCompleted(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.queries.RecentlyCompletedTournaments(r.Context())
	writeTournaments(w, tournaments, err)
}

func (h *TournamentHandler) writeSummary(w http.ResponseWriter, r *http.Request, id model.TournamentID, status int) {
	summary, err := h.queries.Summary(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, status, response.TournamentDetailFromSummary(summary))
}

func registrationIDs(w http.ResponseWriter, r *http.Request) (model.TournamentID, model.MemberID, bool) {
	tid, err := tournamentID(r, "id")
	if err != nil {
		WriteError(w, err)
		return 0, 0, false
	}
	mid, err := memberID(r, "memberId")
	if err != nil {
		WriteError(w, err)
		return 0, 0, false
	}
	return tid, mid, true
}

func decodeDefinition(r *http.Request) (tournament.Definition, error) {
	var req request.TournamentRequest
	if err := decodeJSON(r, &req); err != nil {
		return tournament.Definition{}, err
	}
	f, err := req.Validate()
	if err != nil {
		return tournament.Definition{}, NewInvalidRequestError(err.Error())
	}
	return tournament.Definition(f), nil
}

func writeTournaments(w http.ResponseWriter, tournaments []*model.Tournament, err error) {
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.TournamentsFromModel(tournaments))
}
