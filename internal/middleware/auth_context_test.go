package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"petcare-backend/internal/ports/auth"
)

type stubVerifier struct {
	claims auth.Claims
	err    error
}

func (s stubVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if token != "good" {
		return auth.Claims{}, errors.New("bad token")
	}
	return s.claims, s.err
}

func TestAuthContext_DebugHeaders(t *testing.T) {
	var got auth.Claims
	h := AuthContext(nil, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetClaims(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderDebugUserID, "staff-1")
	req.Header.Set(HeaderDebugUserRole, "Staff")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.UserID != "staff-1" || got.Role != auth.RoleStaff {
		t.Fatalf("unexpected claims: %+v", got)
	}

	got = auth.Claims{}
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderDebugUserID, "c-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got.Role != auth.RoleCustomer {
		t.Fatalf("expected default role customer, got %q", got.Role)
	}
}

func TestAuthContext_DebugHeadersDisabled(t *testing.T) {
	called := false
	h := AuthContext(nil, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := GetClaims(r.Context())
		called = true
		if ok {
			t.Fatalf("debug headers must be ignored when disabled")
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderDebugUserID, "admin-1")
	req.Header.Set(HeaderDebugUserRole, "admin")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestAuthContext_BearerAndRequireAuth(t *testing.T) {
	v := stubVerifier{claims: auth.Claims{UserID: "u-1", Role: auth.RoleCustomer}}
	h := AuthContext(v, false)(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with valid token, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with invalid token, got %d", rec.Code)
	}
}
