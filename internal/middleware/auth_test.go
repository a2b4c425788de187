package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/marlonmr/banco-mr/internal/config"
)

func testAuth() *Auth {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewAuth(&config.Config{JWTSecret: "test-secret"}, log)
}

func signedToken(t *testing.T, secret string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "42",
		"role": "client",
		"exp":  jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestAuthHandlerValidToken(t *testing.T) {
	auth := testAuth()

	var gotUserID, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = r.Context().Value("userID").(string)
		gotRole, _ = r.Context().Value("role").(string)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "test-secret", time.Hour))
	rec := httptest.NewRecorder()
	auth.Handler(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "42" {
		t.Errorf("userID in context = %q, want %q", gotUserID, "42")
	}
	if gotRole != "client" {
		t.Errorf("role in context = %q, want %q", gotRole, "client")
	}
}

func TestAuthHandlerRejections(t *testing.T) {
	auth := testAuth()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run for a rejected request")
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + signedToken(t, "other-secret", time.Hour)},
		{"expired", "Bearer " + signedToken(t, "test-secret", -time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			auth.Handler(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}
