package jwt

import (
	"context"
	"testing"
	"time"

	"petcare-backend/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

func TestManager_IssueVerify(t *testing.T) {
	m, err := NewManager("s3cret", time.Hour, "petcare")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	tok, err := m.Issue(context.Background(), auth.Claims{UserID: "u-1", Email: "a@b.c", Role: auth.RoleStaff})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	c, err := m.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if c.UserID != "u-1" || c.Role != auth.RoleStaff || c.Email != "a@b.c" {
		t.Fatalf("unexpected claims: %+v", c)
	}
}

func TestManager_RejectsExpired(t *testing.T) {
	m, _ := NewManager("s3cret", time.Minute, "petcare")
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	tok, err := m.Issue(context.Background(), auth.Claims{UserID: "u-1", Role: auth.RoleCustomer})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := m.Verify(context.Background(), tok); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestManager_RejectsOtherSecretAndAlg(t *testing.T) {
	m, _ := NewManager("s3cret", time.Hour, "petcare")
	other, _ := NewManager("other", time.Hour, "petcare")

	tok, _ := other.Issue(context.Background(), auth.Claims{UserID: "u-1", Role: auth.RoleAdmin})
	if _, err := m.Verify(context.Background(), tok); err == nil {
		t.Fatalf("expected signature mismatch")
	}

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, tokenClaims{UserID: "u-1", Role: "admin"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.Verify(context.Background(), raw); err == nil {
		t.Fatalf("expected alg=none to be rejected")
	}
}

func TestManager_IssueRequiresRole(t *testing.T) {
	m, _ := NewManager("s3cret", time.Hour, "petcare")
	if _, err := m.Issue(context.Background(), auth.Claims{UserID: "u-1"}); err == nil {
		t.Fatalf("expected error without role")
	}
	if _, err := NewManager(" ", time.Hour, ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
