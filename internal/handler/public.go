package handler

import (
	"net/http"
	"strings"

	"github.com/Dan9191/savings-planner/internal/models"
)

const maxQuoteSymbols = 20

// Quotes returns live quotes for ?symbols=A,B
func (h *Handler) Quotes(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	for _, s := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 || len(symbols) > maxQuoteSymbols {
		writeError(w, http.StatusBadRequest, "invalid_request", "symbols must list between 1 and 20 tickers")
		return
	}

	writeJSON(w, http.StatusOK, h.svc.Quotes(r.Context(), symbols))
}

// AssessTax runs the deterministic tax assessment for a profile
func (h *Handler) AssessTax(w http.ResponseWriter, r *http.Request) {
	var profile models.ClientProfile
	if !decode(w, r, &profile) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AssessTax(profile))
}

// Allocate runs the savings waterfall over caller-supplied figures
func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	var in models.AllocationInput
	if !decode(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AllocateSavings(in))
}

// ResimulateGoal re-evaluates a goal described entirely in the body
func (h *Handler) ResimulateGoal(w http.ResponseWriter, r *http.Request) {
	var req models.ResimulationRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.svc.ResimulateStateless(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
