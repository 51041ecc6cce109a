package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/golfclub/internal/api/apierr"
	"github.com/mcoot/golfclub/internal/api/handler"
	"github.com/mcoot/golfclub/internal/dependencies/clock"
	"github.com/mcoot/golfclub/internal/metrics"
	"github.com/mcoot/golfclub/internal/middleware"
	"github.com/mcoot/golfclub/internal/services/member"
	"github.com/mcoot/golfclub/internal/services/query"
	"github.com/mcoot/golfclub/internal/services/registration"
	"github.com/mcoot/golfclub/internal/services/tournament"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	Clock        clock.Clock
	Metrics      *metrics.Metrics
	StorageType  string
	Members      *member.Service
	Tournaments  *tournament.Service
	Registration *registration.Coordinator
	Queries      *query.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)

	homeHandler := handler.NewHomeHandler(cfg.StorageType)
	memberHandler := handler.NewMemberHandler(cfg.Members, cfg.Queries, cfg.Registration, cfg.Clock)
	tournamentHandler := handler.NewTournamentHandler(cfg.Tournaments, cfg.Queries, cfg.Registration)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	api.Use(middleware.RequestID)
	api.Use(middleware.Recovery(cfg.Logger, panicHandler))
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Metrics(cfg.Metrics))

	api.HandleFunc("/", homeHandler.Banner).Methods(http.MethodGet)
	api.HandleFunc("/health", homeHandler.Health).Methods(http.MethodGet)

	// Member routes. Fixed paths are registered before /{id} so they are not
	// swallowed by it.
	members := api.PathPrefix("/members").Subrouter()
	members.HandleFunc("", memberHandler.Create).Methods(http.MethodPost)
	members.HandleFunc("", memberHandler.List).Methods(http.MethodGet)
	members.HandleFunc("/search/name/{name}", memberHandler.SearchByName).Methods(http.MethodGet)
	members.HandleFunc("/search/phone/{phone}", memberHandler.SearchByPhone).Methods(http.MethodGet)
	members.HandleFunc("/search/phone-exact/{phone}", memberHandler.SearchByPhoneExact).Methods(http.MethodGet)
	members.HandleFunc("/search/email/{email}", memberHandler.SearchByEmail).Methods(http.MethodGet)
	members.HandleFunc("/search/tournament", memberHandler.SearchByTournament).Methods(http.MethodGet)
	members.HandleFunc("/search/status/{status}", memberHandler.SearchByStatus).Methods(http.MethodGet)
	members.HandleFunc("/search/active", memberHandler.SearchActive).Methods(http.MethodGet)
	members.HandleFunc("/search/start-dates", memberHandler.SearchStartDates).Methods(http.MethodGet)
	members.HandleFunc("/search/tournaments", memberHandler.SearchByTournamentCount).Methods(http.MethodGet)
	members.HandleFunc("/search/winnings", memberHandler.SearchByWinnings).Methods(http.MethodGet)
	members.HandleFunc("/search/tournament-date", memberHandler.SearchByTournamentDate).Methods(http.MethodGet)
	members.HandleFunc("/top-participants", memberHandler.TopParticipants).Methods(http.MethodGet)
	members.HandleFunc("/{id:[0-9]+}", memberHandler.Get).Methods(http.MethodGet)
	members.HandleFunc("/{id:[0-9]+}", memberHandler.Update).Methods(http.MethodPut)
	members.HandleFunc("/{id:[0-9]+}", memberHandler.Delete).Methods(http.MethodDelete)
	members.HandleFunc("/{id:[0-9]+}/status", memberHandler.SetStatus).Methods(http.MethodPatch)
	members.HandleFunc("/{id:[0-9]+}/duration", memberHandler.ExtendDuration).Methods(http.MethodPatch)
	members.HandleFunc("/{id:[0-9]+}/check-status", memberHandler.CheckStatus).Methods(http.MethodPost)
	members.HandleFunc("/{id:[0-9]+}/winnings", memberHandler.AwardWinnings).Methods(http.MethodPost)
	members.HandleFunc("/{id:[0-9]+}/tournaments", memberHandler.Tournaments).Methods(http.MethodGet)

	// Tournament routes
	tournaments := api.PathPrefix("/tournaments").Subrouter()
	tournaments.HandleFunc("", tournamentHandler.Create).Methods(http.MethodPost)
	tournaments.HandleFunc("", tournamentHandler.List).Methods(http.MethodGet)
	tournaments.HandleFunc("/revenue", tournamentHandler.TotalRevenue).Methods(http.MethodGet)
	tournaments.HandleFunc("/current", tournamentHandler.Current).Methods(http.MethodGet)
	tournaments.HandleFunc("/available", tournamentHandler.Available).Methods(http.MethodGet)
	tournaments.HandleFunc("/upcoming", tournamentHandler.Upcoming).Methods(http.MethodGet)
	tournaments.HandleFunc("/recently-completed", tournamentHandler.RecentlyCompleted).Methods(http.MethodGet)
	tournaments.HandleFunc("/search/location/{location}", tournamentHandler.SearchByLocation).Methods(http.MethodGet)
	tournaments.HandleFunc("/search/status/{status}", tournamentHandler.SearchByStatus).Methods(http.MethodGet)
	tournaments.HandleFunc("/search/dates", tournamentHandler.SearchByDates).Methods(http.MethodGet)
	tournaments.HandleFunc("/search/prize", tournamentHandler.SearchByPrize).Methods(http.MethodGet)
	tournaments.HandleFunc("/search/fee", tournamentHandler.SearchByFee).Methods(http.MethodGet)
	tournaments.HandleFunc("/search/participants", tournamentHandler.SearchByParticipants).Methods(http.MethodGet)
	tournaments.HandleFunc("/{id:[0-9]+}", tournamentHandler.Get).Methods(http.MethodGet)
	tournaments.HandleFunc("/{id:[0-9]+}", tournamentHandler.Update).Methods(http.MethodPut)
	tournaments.HandleFunc("/{id:[0-9]+}", tournamentHandler.Delete).Methods(http.MethodDelete)
	tournaments.HandleFunc("/{id:[0-9]+}/status", tournamentHandler.SetStatus).Methods(http.MethodPatch)
	tournaments.HandleFunc("/{id:[0-9]+}/members", tournamentHandler.Members).Methods(http.MethodGet)
	tournaments.HandleFunc("/{id:[0-9]+}/revenue", tournamentHandler.Revenue).Methods(http.MethodGet)
	tournaments.HandleFunc("/{id:[0-9]+}/members/{memberId:[0-9]+}", tournamentHandler.Register).Methods(http.MethodPost)
	tournaments.HandleFunc("/{id:[0-9]+}/members/{memberId:[0-9]+}", tournamentHandler.Withdraw).Methods(http.MethodDelete)

	return r
}

func panicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
