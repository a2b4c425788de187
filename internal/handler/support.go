package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// ListUsers returns every user, for administrators.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// ListAllAccounts returns every account, for administrators.
func (h *Handler) ListAllAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAllAccounts(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

// DeactivateUser disables a user and their accounts.
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeactivateUser(r.Context(), mux.Vars(r)["username"]); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user deactivated"})
}

// ReactivateUser restores a deactivated user.
func (h *Handler) ReactivateUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ReactivateUser(r.Context(), mux.Vars(r)["username"]); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user reactivated"})
}

// SetAccountStatus activates or deactivates one account.
func (h *Handler) SetAccountStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status int `json:"status"`
	}
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.svc.SetAccountStatus(r.Context(), mux.Vars(r)["number"], in.Status); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "account status updated"})
}

// SetUserPassword force-resets a client's password.
func (h *Handler) SetUserPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		NewPassword string `json:"new_password"`
	}
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.svc.SetUserPassword(r.Context(), mux.Vars(r)["username"], in.NewPassword); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
