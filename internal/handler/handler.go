package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/marlonmr/banco-mr/internal/integrations/cbr"
	"github.com/marlonmr/banco-mr/internal/middleware"
	"github.com/marlonmr/banco-mr/internal/service"
)

// Handler translates HTTP requests into service calls.
type Handler struct {
	svc *service.Service
	cbr *cbr.Client
	log *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(svc *service.Service, cbrClient *cbr.Client, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, cbr: cbrClient, log: log}
}

// Router builds the full route table. Everything except registration, login
// and the password reset flow requires a valid token.
func (h *Handler) Router(auth *middleware.Auth) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/auth/register", h.Register).Methods("POST")
	r.HandleFunc("/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/auth/password-reset", h.RequestPasswordReset).Methods("POST")
	r.HandleFunc("/auth/password-reset/confirm", h.ResetPassword).Methods("POST")

	// Protected routes
	p := r.PathPrefix("/").Subrouter()
	p.Use(auth.Handler)

	p.HandleFunc("/auth/password", h.ChangePassword).Methods("PUT")

	p.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	p.HandleFunc("/accounts", h.ListAccounts).Methods("GET")
	p.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")

	p.HandleFunc("/loans/products", h.ListLoanProducts).Methods("GET")
	p.HandleFunc("/loans/suggested-rate", h.SuggestedRate).Methods("GET")
	p.HandleFunc("/loans", h.RequestLoan).Methods("POST")
	p.HandleFunc("/loans", h.ListLoans).Methods("GET")
	p.HandleFunc("/loans/{number}/decision", h.DecideLoan).Methods("POST")
	p.HandleFunc("/loans/{number}/payments", h.PayLoan).Methods("POST")
	p.HandleFunc("/loans/{number}/schedule", h.LoanSchedule).Methods("GET")

	p.HandleFunc("/cards", h.RequestCard).Methods("POST")
	p.HandleFunc("/cards", h.ListCards).Methods("GET")
	p.HandleFunc("/cards/{id}/cvv", h.TempCVV).Methods("POST")
	p.HandleFunc("/cards/{id}/block", h.BlockCard).Methods("POST")
	p.HandleFunc("/cards/{id}/unblock", h.UnblockCard).Methods("POST")
	p.HandleFunc("/cards/{id}/decision", h.ProcessCardRequest).Methods("POST")

	p.HandleFunc("/support/users", h.ListUsers).Methods("GET")
	p.HandleFunc("/support/accounts", h.ListAllAccounts).Methods("GET")
	p.HandleFunc("/support/users/{username}/deactivate", h.DeactivateUser).Methods("POST")
	p.HandleFunc("/support/users/{username}/reactivate", h.ReactivateUser).Methods("POST")
	p.HandleFunc("/support/users/{username}/password", h.SetUserPassword).Methods("PUT")
	p.HandleFunc("/support/accounts/{number}/status", h.SetAccountStatus).Methods("PUT")

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	return r
}
