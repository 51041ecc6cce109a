package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	"github.com/mcoot/golfclub/internal/api/apierr"
	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/services/query"
	"github.com/mcoot/golfclub/internal/services/registration"
	"github.com/mcoot/golfclub/internal/web/middleware"
	"github.com/mcoot/golfclub/internal/web/templates/layout"
	"github.com/mcoot/golfclub/internal/web/templates/pages"
)

// TournamentHandler handles tournament pages and sign-ups
type TournamentHandler struct {
	queries      *query.Service
	registration *registration.Coordinator
	logger       *slog.Logger
}

// NewTournamentHandler creates a new TournamentHandler
func NewTournamentHandler(queries *query.Service, registration *registration.Coordinator, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{
		queries:      queries,
		registration: registration,
		logger:       logger,
	}
}

// View renders a tournament page
func (h *TournamentHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(r)
	if !ok {
		NotFound(w, r)
		return
	}

	summary, err := h.queries.Summary(r.Context(), id)
	if errors.Is(err, model.ErrTournamentNotFound) {
		NotFound(w, r)
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	participants, err := h.registration.Participants(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	data := pages.TournamentData{
		PageData: layout.PageData{
			Title: summary.Location,
			Flash: middleware.GetFlash(r.Context()),
		},
		Summary:      summary,
		Participants: participants,
	}
	render(w, r, http.StatusOK, pages.Tournament(data))
}

// Register handles the sign-up form
func (h *TournamentHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(r)
	if !ok {
		NotFound(w, r)
		return
	}
	back := "/tournaments/" + strconv.FormatInt(int64(id), 10)

	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "Invalid form data")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	mid, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("member_id")), 10, 64)
	if err != nil || mid <= 0 {
		middleware.SetFlash(w, "error", "Member number is required")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	if err := h.registration.Register(r.Context(), id, model.MemberID(mid)); err != nil {
		middleware.SetFlash(w, "error", apierr.Message(err))
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	middleware.SetFlash(w, "success", "Registered!")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *TournamentHandler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("render tournament", slog.String("error", err.Error()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func tournamentID(r *http.Request) (model.TournamentID, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return model.TournamentID(id), true
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
