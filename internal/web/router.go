package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/golfclub/internal/metrics"
	commonmw "github.com/mcoot/golfclub/internal/middleware"
	"github.com/mcoot/golfclub/internal/services/query"
	"github.com/mcoot/golfclub/internal/services/registration"
	"github.com/mcoot/golfclub/internal/services/tournament"
	"github.com/mcoot/golfclub/internal/web/handler"
	"github.com/mcoot/golfclub/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Tournaments  *tournament.Service
	Registration *registration.Coordinator
	Queries      *query.Service
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)

	// Apply global middleware to all routes
	r.Use(commonmw.RequestID)
	r.Use(commonmw.Recovery(cfg.Logger, commonmw.DefaultPanicHandler))
	r.Use(commonmw.Logging(cfg.Logger))
	r.Use(commonmw.Metrics(cfg.Metrics))
	r.Use(middleware.Flash())

	homeHandler := handler.NewHomeHandler(cfg.Tournaments, cfg.Queries, cfg.Logger)
	tournamentHandler := handler.NewTournamentHandler(cfg.Queries, cfg.Registration, cfg.Logger)

	r.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	r.HandleFunc("/tournaments/{id:[0-9]+}", tournamentHandler.View).Methods(http.MethodGet)
	r.HandleFunc("/tournaments/{id:[0-9]+}/register", tournamentHandler.Register).Methods(http.MethodPost)

	return r
}
