package jwtutil

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	claims := NewClaims("op-1", "tenant-1", time.Hour)

	token, err := GenerateAccessToken(claims, secret)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	parsed, err := ParseAccessToken(token, secret)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.OperatorID != "op-1" || parsed.TenantID != "tenant-1" {
		t.Fatalf("unexpected claims: %+v", parsed)
	}
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := GenerateAccessToken(NewClaims("op-1", "tenant-1", time.Hour), []byte("right"))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := ParseAccessToken(token, []byte("wrong")); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestAccessTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	token, err := GenerateAccessToken(NewClaims("op-1", "tenant-1", -time.Minute), secret)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := ParseAccessToken(token, secret); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
