package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/golfclub/internal/api/request"
	"github.com/mcoot/golfclub/internal/api/response"
	"github.com/mcoot/golfclub/internal/dependencies/clock"
	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/services/member"
	"github.com/mcoot/golfclub/internal/services/query"
	"github.com/mcoot/golfclub/internal/services/registration"
)

// defaultTopParticipants caps GET /members/top-participants without ?limit=
const defaultTopParticipants = 10

// MemberHandler handles member endpoints
type MemberHandler struct {
	members      *member.Service
	queries      *query.Service
	registration *registration.Coordinator
	clock        clock.Clock
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(members *member.Service, queries *query.Service, registration *registration.Coordinator, clock clock.Clock) *MemberHandler {
	return &MemberHandler{
		members:      members,
		queries:      queries,
		registration: registration,
		clock:        clock,
	}
}

// Create handles POST /api/v1/members
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	profile, err := h.decodeProfile(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	m, err := h.members.Create(r.Context(), profile)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MemberFromModel(m))
}

// List handles GET /api/v1/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(r.Context())
	writeMembers(w, members, err)
}

// Get handles GET /api/v1/members/{id}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	m, err := h.members.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MemberFromModel(m))
}

// Update handles PUT /api/v1/members/{id}
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	profile, err := h.decodeProfile(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	m, err := h.members.Update(r.Context(), id, profile)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MemberFromModel(m))
}

// Delete handles DELETE /api/v1/members/{id}
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.members.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// SetStatus handles PATCH /api/v1/members/{id}/status
func (h *MemberHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	var req request.MemberStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	status, err := req.Parse()
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	if err := h.members.SetStatus(r.Context(), id, status); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// ExtendDuration handles PATCH /api/v1/members/{id}/duration
func (h *MemberHandler) ExtendDuration(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	var req request.ExtendDurationRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	m, err := h.members.ExtendDuration(r.Context(), id, req.Months)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MemberFromModel(m))
}

// CheckStatus handles POST /api/v1/members/{id}/check-status
func (h *MemberHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.members.ReconcileExpiry(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// AwardWinnings handles POST /api/v1/members/{id}/winnings
func (h *MemberHandler) AwardWinnings(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	var req request.WinningsRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	m, err := h.members.AwardWinnings(r.Context(), id, req.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MemberFromModel(m))
}

// Tournaments handles GET /api/v1/members/{id}/tournaments
func (h *MemberHandler) Tournaments(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	tournaments, err := h.registration.MemberTournaments(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TournamentsFromModel(tournaments))
}

// Search endpoints

// SearchByName handles GET /api/v1/members/search/name/{name}
func (h *MemberHandler) SearchByName(w http.ResponseWriter, r *http.Request) {
	members, err := h.queries.MembersByName(r.Context(), mux.Vars(r)["name"])
	writeMembers(w, members, err)
}

// SearchByPhone handles GET /api/v1/members/search/phone/{phone}
func (h *MemberHandler) SearchByPhone(w http.ResponseWriter, r *http.Request) {
	members, err := h.queries.MembersByPhoneContaining(r.Context(), mux.Vars(r)["phone"])
	writeMembers(w, members, err)
}

// SearchByPhoneExact handles GET /api/v1/members/search/phone-exact/{phone}
func (h *MemberHandler) SearchByPhoneExact(w http.ResponseWriter, r *http.Request) {
	m, err := h.queries.MemberByPhone(r.Context(), mux.Vars(r)["phone"])
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MemberFromModel(m))
}

// SearchByTournament handles GET /api/v1/members/search/tournament?tournamentId=
func (h *MemberHandler) SearchByTournament(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "tournamentId")
	if err != nil {
		WriteError(w, err)
		return
	}
	members, err := h.queries.MembersByTournament(r.Context(), model.TournamentID(n))
	writeMembers(w, members, err)
}

// SearchByEmail handles GET /api/v1/members/search/email/{email}
func (h *MemberHandler) SearchByEmail(w http.ResponseWriter, r *http.Request) {
	m, err := h.queries.MemberByEmail(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MemberFromModel(m))
}

// SearchByStatus handles GET /api/v1/members/search/status/{status}
func (h *MemberHandler) SearchByStatus(w http.ResponseWriter, r *http.Request) {
	status := model.MemberStatus(strings.ToUpper(mux.Vars(r)["status"]))
	if !status.Valid() {
		WriteError(w, NewInvalidRequestError("unknown member status"))
		return
	}
	members, err := h.queries.MembersByStatus(r.Context(), status)
	writeMembers(w, members, err)
}

// SearchActive handles GET /api/v1/members/search/active
func (h *MemberHandler) SearchActive(w http.ResponseWriter, r *http.Request) {
	members, err := h.queries.ActiveMembers(r.Context())
	writeMembers(w, members, err)
}

// SearchStartDates handles GET /api/v1/members/search/start-dates?from=&to=
func (h *MemberHandler) SearchStartDates(w http.ResponseWriter, r *http.Request) {
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
	members, err := h.queries.MembersStartedBetween(r.Context(), from, to)
	writeMembers(w, members, err)
}

// SearchByTournamentCount handles GET /api/v1/members/search/tournaments?minCount=
func (h *MemberHandler) SearchByTournamentCount(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "minCount")
	if err != nil {
		WriteError(w, err)
		return
	}
	members, err := h.queries.MembersPlayedMoreThan(r.Context(), n)
	writeMembers(w, members, err)
}

// SearchByWinnings handles GET /api/v1/members/search/winnings?min=
func (h *MemberHandler) SearchByWinnings(w http.ResponseWriter, r *http.Request) {
	amount, err := queryFloat(r, "min")
	if err != nil {
		WriteError(w, err)
		return
	}
	members, err := h.queries.MembersWinningsAbove(r.Context(), amount)
	writeMembers(w, members, err)
}

// SearchByTournamentDate handles GET /api/v1/members/search/tournament-date?date=
func (h *MemberHandler) SearchByTournamentDate(w http.ResponseWriter, r *http.Request) {
	day, err := queryDate(r, "date")
	if err != nil {
		WriteError(w, err)
		return
	}
	members, err := h.queries.MembersByTournamentDate(r.Context(), day)
	writeMembers(w, members, err)
}

// TopParticipants handles GET /api/v1/members/top-participants
func (h *MemberHandler) TopParticipants(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopParticipants
	if r.URL.Query().Has("limit") {
		n, err := queryInt(r, "limit")
		if err != nil || n <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}
	members, err := h.queries.TopParticipants(r.Context(), limit)
	writeMembers(w, members, err)
}

func (h *MemberHandler) decodeProfile(r *http.Request) (member.Profile, error) {
	var req request.MemberRequest
	if err := decodeJSON(r, &req); err != nil {
		return member.Profile{}, err
	}
	f, err := req.Validate(h.clock.Now())
	if err != nil {
		return member.Profile{}, NewInvalidRequestError(err.Error())
	}
	return member.Profile(f), nil
}

func writeMembers(w http.ResponseWriter, members []*model.Member, err error) {
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MembersFromModel(members))
}
