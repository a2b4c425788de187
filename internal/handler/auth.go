package handler

import (
	"net/http"

	"github.com/marlonmr/banco-mr/internal/service"
)

// Register handles client registration. Credentials are mailed, never
// returned in the response.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	user, err := h.svc.Register(in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"username": user.Username,
		"message":  "credentials were sent to the registered email",
	})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	token, err := h.svc.Login(in.Username, in.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ChangePassword lets the authenticated user replace their password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), in.OldPassword, in.NewPassword); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// RequestPasswordReset mails a reset link after verifying email and
// document identity.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email      string `json:"email"`
		DocumentID string `json:"document_id"`
	}
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.svc.RequestPasswordReset(in.Email, in.DocumentID); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "reset link sent"})
}

// ResetPassword consumes a reset token.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.svc.ResetPassword(in.Token, in.NewPassword); err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
