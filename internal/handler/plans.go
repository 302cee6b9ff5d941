package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type resimulateRequest struct {
	NewMonthlySavings decimal.Decimal `json:"new_monthly_savings"`
}

type chatRequest struct {
	History []models.ChatTurn `json:"history"`
	Message string            `json:"message"`
}

// CreatePlan analyzes a submission and stores the plan
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var sub models.Submission
	if !decode(w, r, &sub) {
		return
	}

	plan, err := h.svc.Analyze(r.Context(), uid, sub)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

// GetPlan returns a stored plan
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	plan, err := h.svc.GetPlan(r.Context(), uid, mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// ResimulatePlanGoal runs a what-if on one goal of a stored plan
func (h *Handler) ResimulatePlanGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "goal index must be an integer")
		return
	}
	var req resimulateRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.svc.Resimulate(r.Context(), uid, vars["id"], index, req.NewMonthlySavings)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Chat answers a question about a stored plan
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}

	reply, err := h.svc.Chat(r.Context(), uid, mux.Vars(r)["id"], req.History, req.Message)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// ExportCSV downloads a plan as CSV
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", "text/csv", h.svc.ExportCSV)
}

// ExportPDF downloads a plan as PDF
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "pdf", "application/pdf", h.svc.ExportPDF)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, ext, contentType string,
	render func(ctx context.Context, userID int64, planID string) ([]byte, error)) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	planID := mux.Vars(r)["id"]

	data, err := render(r.Context(), uid, planID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="financial_plan_%s.%s"`, planID, ext))
	w.Write(data)
}

// EmailPlan sends the CSV export to the household's address
func (h *Handler) EmailPlan(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.svc.EmailPlan(r.Context(), uid, mux.Vars(r)["id"]); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
