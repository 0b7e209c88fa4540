package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feeledger/internal/service"
)

func TestAuthMiddleware(t *testing.T) {
	tokens := service.NewTokenService("test-secret", time.Hour)
	token, err := tokens.GenerateToken(5, "Ana", "STAFF")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var gotClaims *service.Claims
	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Error("claims missing from context")
		}
		gotClaims = claims
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid bearer", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}

	if gotClaims == nil || gotClaims.StaffID != 5 || gotClaims.Name != "Ana" {
		t.Fatalf("unexpected claims: %+v", gotClaims)
	}
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	tokens := service.NewTokenService("test-secret", time.Nanosecond)
	token, err := tokens.GenerateToken(5, "Ana", "STAFF")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	handler := Auth(service.NewTokenService("test-secret", time.Hour))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("expired token must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
