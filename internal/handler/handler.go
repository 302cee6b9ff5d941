// Package handler exposes the planner over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dan9191/savings-planner/internal/middleware"
	"github.com/Dan9191/savings-planner/internal/models"
	sentryutil "github.com/Dan9191/savings-planner/internal/sentry"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Planner is the business API served by the handlers. *service.Service
// implements it.
type Planner interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)

	Quotes(ctx context.Context, symbols []string) map[string]models.QuoteResult
	AssessTax(profile models.ClientProfile) models.TaxAssessment
	AllocateSavings(in models.AllocationInput) models.AllocationResult
	ResimulateStateless(ctx context.Context, req models.ResimulationRequest) (*models.ResimulationResult, error)

	Analyze(ctx context.Context, userID int64, sub models.Submission) (*models.Plan, error)
	GetPlan(ctx context.Context, userID int64, planID string) (*models.Plan, error)
	Resimulate(ctx context.Context, userID int64, planID string, goalIndex int, newSavings decimal.Decimal) (*models.ResimulationResult, error)
	Chat(ctx context.Context, userID int64, planID string, history []models.ChatTurn, message string) (string, error)
	ExportCSV(ctx context.Context, userID int64, planID string) ([]byte, error)
	ExportPDF(ctx context.Context, userID int64, planID string) ([]byte, error)
	EmailPlan(ctx context.Context, userID int64, planID string) error
}

type Handler struct {
	svc Planner
	log *logrus.Logger
}

func NewHandler(svc Planner, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// respondError maps service errors to status codes and error codes.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidSubmission), errors.Is(err, models.ErrGoalNotFound):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
	case errors.Is(err, models.ErrUserExists):
		writeError(w, http.StatusConflict, "conflict", "email is already registered")
	case errors.Is(err, models.ErrPlanNotFound), errors.Is(err, models.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", "plan not found or expired")
	case errors.Is(err, models.ErrSuperseded):
		writeError(w, http.StatusConflict, "superseded", "a newer request for this goal replaced this one")
	case errors.Is(err, models.ErrAdvisoryUnavailable):
		writeError(w, http.StatusBadGateway, "advisory_unavailable", "advisory service is unavailable, try again later")
	case errors.Is(err, models.ErrQuoteUnavailable):
		writeError(w, http.StatusBadGateway, "quote_unavailable", "quote service is unavailable")
	case errors.Is(err, context.Canceled):
		// client went away, nothing useful to write
		h.log.WithField("path", r.URL.Path).Debug("Request cancelled")
	default:
		h.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err,
		}).Error("Request failed")
		sentryutil.CaptureError(err, map[string]string{"endpoint": r.URL.Path})
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// decode reads a JSON body. It writes the 400 itself and reports false on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return false
	}
	return true
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing household")
	}
	return id, ok
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
