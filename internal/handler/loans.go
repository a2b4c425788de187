package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/marlonmr/banco-mr/internal/service"
)

// ListLoanProducts returns the product catalog.
func (h *Handler) ListLoanProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListLoanProducts(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// SuggestedRate exposes the key-rate integration to the back office.
func (h *Handler) SuggestedRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.cbr.SuggestedLendingRate()
	if err != nil {
		h.log.Errorf("Failed to get key rate: %v", err)
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: "key rate source unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]decimal.Decimal{"suggested_annual_rate_percent": rate})
}

// ListLoans returns the client's loans.
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.svc.ListLoans(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loans)
}

// RequestLoan registers a pending loan and returns the generated schedule.
func (h *Handler) RequestLoan(w http.ResponseWriter, r *http.Request) {
	var in service.RequestLoanInput
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	l, schedule, err := h.svc.RequestLoan(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"loan":     l,
		"payment":  schedule.Payment,
		"schedule": schedule.Installments,
	})
}

// DecideLoan approves or rejects a pending loan.
func (h *Handler) DecideLoan(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Approve bool `json:"approve"`
	}
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	l, err := h.svc.DecideLoan(r.Context(), mux.Vars(r)["number"], in.Approve)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

// PayLoan applies a payment and returns the receipt with its allocation
// breakdown.
func (h *Handler) PayLoan(w http.ResponseWriter, r *http.Request) {
	var in service.PayLoanInput
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}
	in.LoanNumber = mux.Vars(r)["number"]

	receipt, result, err := h.svc.PayLoan(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"receipt":    receipt,
		"allocation": result,
	})
}

// LoanSchedule returns the stored amortization table.
func (h *Handler) LoanSchedule(w http.ResponseWriter, r *http.Request) {
	l, installments, err := h.svc.LoanSchedule(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"loan":         l,
		"installments": installments,
	})
}
