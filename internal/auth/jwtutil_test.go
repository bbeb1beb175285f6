package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	claims := map[string]any{"sub": "user-1", "typ": "access"}

	token, err := SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("expected compact three-part token, got %q", token)
	}

	parsed, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if parsed["sub"] != "user-1" || parsed["typ"] != "access" {
		t.Fatalf("unexpected claims: %+v", parsed)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := SignHS256(map[string]any{"sub": "user-1"}, []byte("secret-a"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, []byte("secret-b")); err == nil {
		t.Fatal("expected verification to fail with a different secret")
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	secret := []byte("test-secret")
	token, err := SignHS256(map[string]any{"sub": "user-1"}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parts := strings.Split(token, ".")
	forged, err := SignHS256(map[string]any{"sub": "user-2"}, []byte("attacker"))
	if err != nil {
		t.Fatalf("sign forged: %v", err)
	}
	tampered := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	if _, err := ParseAndVerifyHS256(tampered, secret); err == nil {
		t.Fatal("expected verification to fail for tampered payload")
	}
}

func TestVerifyExpiry(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	if err := VerifyExpiry(map[string]any{"exp": float64(now.Add(time.Minute).Unix())}, now); err != nil {
		t.Fatalf("future exp rejected: %v", err)
	}

	err := VerifyExpiry(map[string]any{"exp": float64(now.Add(-time.Hour).Unix())}, now)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// exp equal to now is already expired.
	err = VerifyExpiry(map[string]any{"exp": float64(now.Unix())}, now)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at the boundary, got %v", err)
	}

	if err := VerifyExpiry(map[string]any{"sub": "user-1"}, now); err == nil {
		t.Fatal("claims without exp must be rejected")
	}
	if err := VerifyExpiry(map[string]any{"exp": "tomorrow"}, now); err == nil {
		t.Fatal("non-numeric exp must be rejected")
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	for _, token := range []string{"", "a.b", "not-a-token", "a.b.c.d"} {
		if _, err := ParseAndVerifyHS256(token, []byte("secret")); err == nil {
			t.Fatalf("expected error for token %q", token)
		}
	}
}
