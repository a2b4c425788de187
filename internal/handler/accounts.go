package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marlonmr/banco-mr/internal/models"
	"github.com/marlonmr/banco-mr/internal/service"
)

// CreateAccount opens a new account for the authenticated client.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Type           int             `json:"type"`
		CurrencyID     int             `json:"currency_id"`
		InitialBalance decimal.Decimal `json:"initial_balance"`
	}
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	account, err := h.svc.CreateAccount(r.Context(), in.Type, in.CurrencyID, in.InitialBalance)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

// ListAccounts lists the client's accounts, narrowed by query parameters.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	filter, err := accountFilterFromQuery(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	accounts, err := h.svc.ListAccounts(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

func accountFilterFromQuery(r *http.Request) (models.AccountFilter, error) {
	var filter models.AccountFilter
	q := r.URL.Query()

	for name, dst := range map[string]**int{"type": &filter.Type, "currency_id": &filter.CurrencyID, "status": &filter.Status} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return filter, service.ErrValidation
			}
			*dst = &v
		}
	}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if raw := q.Get(name); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return filter, service.ErrValidation
			}
			*dst = &t
		}
	}
	return filter, nil
}

// CreateTransaction executes a deposit, withdrawal or transfer.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in service.TransactionInput
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	t, err := h.svc.CreateTransaction(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}
