package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/novafund/novafund-api/internal/pkg/jwt"
)

func TestAuthAllowsValidAccessToken(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Hour)
	userID := uuid.New()
	token, err := jwtSvc.GenerateAccessToken(userID, "user", false)
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	var gotID uuid.UUID
	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotID != userID {
		t.Fatalf("expected user id %s in context, got %s", userID, gotID)
	}
}

func TestAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Hour)
	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"no bearer prefix", "sometoken"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestAuthBlocksSuspendedAccounts(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Hour)
	token, err := jwtSvc.GenerateAccessToken(uuid.New(), "user", true)
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Hour)

	run := func(role string) int {
		token, err := jwtSvc.GenerateAccessToken(uuid.New(), role, false)
		if err != nil {
			t.Fatalf("token gen failed: %v", err)
		}
		protected := Auth(jwtSvc)(RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))
		req := httptest.NewRequest(http.MethodPost, "/adjustments", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		return w.Code
	}

	if code := run("admin"); code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", code)
	}
	if code := run("user"); code != http.StatusForbidden {
		t.Fatalf("user: expected 403, got %d", code)
	}
}
