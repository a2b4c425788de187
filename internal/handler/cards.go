package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/marlonmr/banco-mr/internal/service"
)

func cardIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, service.ErrValidation
	}
	return id, nil
}

// RequestCard registers a card request and returns the one-time plaintext
// card data.
func (h *Handler) RequestCard(w http.ResponseWriter, r *http.Request) {
	var in service.RequestCardInput
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	card, err := h.svc.RequestCard(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, card)
}

// ListCards returns the caller's cards.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListCards(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

// TempCVV mints or reuses a short-lived CVV.
func (h *Handler) TempCVV(w http.ResponseWriter, r *http.Request) {
	id, err := cardIDFromPath(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	cvv, err := h.svc.TempCVV(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cvv)
}

// BlockCard blocks the holder's card.
func (h *Handler) BlockCard(w http.ResponseWriter, r *http.Request) {
	h.cardStateChange(w, r, h.svc.BlockCard, "card blocked")
}

// UnblockCard reactivates a blocked card.
func (h *Handler) UnblockCard(w http.ResponseWriter, r *http.Request) {
	h.cardStateChange(w, r, h.svc.UnblockCard, "card unblocked")
}

func (h *Handler) cardStateChange(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) error, message string) {
	id, err := cardIDFromPath(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := op(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// ProcessCardRequest approves or rejects a pending card request.
func (h *Handler) ProcessCardRequest(w http.ResponseWriter, r *http.Request) {
	var in service.ProcessCardRequestInput
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}
	id, err := cardIDFromPath(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	in.CardID = id

	if err := h.svc.ProcessCardRequest(r.Context(), in); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "card request processed"})
}
