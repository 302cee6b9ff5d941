package handler

import (
	"net/http"

	"github.com/Dan9191/savings-planner/internal/config"
	"github.com/Dan9191/savings-planner/internal/middleware"
	"github.com/gorilla/mux"
)

// NewRouter wires every route. /api/plans requires a bearer token.
func NewRouter(h *Handler, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(h.log), middleware.Logging(h.log))

	// Public routes
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/quotes", h.Quotes).Methods(http.MethodGet)
	r.HandleFunc("/api/tax/assess", h.AssessTax).Methods(http.MethodPost)
	r.HandleFunc("/api/allocate", h.Allocate).Methods(http.MethodPost)
	r.HandleFunc("/api/resimulate-goal", h.ResimulateGoal).Methods(http.MethodPost)

	// Protected routes
	plans := r.PathPrefix("/api/plans").Subrouter()
	plans.Use(middleware.AuthMiddleware(cfg))
	plans.HandleFunc("", h.CreatePlan).Methods(http.MethodPost)
	plans.HandleFunc("/{id}", h.GetPlan).Methods(http.MethodGet)
	plans.HandleFunc("/{id}/goals/{index}/resimulate", h.ResimulatePlanGoal).Methods(http.MethodPost)
	plans.HandleFunc("/{id}/chat", h.Chat).Methods(http.MethodPost)
	plans.HandleFunc("/{id}/export.csv", h.ExportCSV).Methods(http.MethodGet)
	plans.HandleFunc("/{id}/export.pdf", h.ExportPDF).Methods(http.MethodGet)
	plans.HandleFunc("/{id}/email", h.EmailPlan).Methods(http.MethodPost)

	return r
}
