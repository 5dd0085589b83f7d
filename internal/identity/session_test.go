package identity

import (
	"testing"
	"time"

	"github.com/perfsage/perfsage/internal/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	sessions := NewSessions(testAuthConfig())

	token, expiry, err := sessions.Issue("alice")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if expiry.Before(time.Now()) {
		t.Fatalf("expected future expiry, got %v", expiry)
	}

	username, err := sessions.Validate(token)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if username != "alice" {
		t.Fatalf("expected alice, got %q", username)
	}
}

func TestValidateRejectsExpiredSession(t *testing.T) {
	sessions := NewSessions(testAuthConfig())
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions.nowFunc = func() time.Time { return issued }

	token, _, err := sessions.Issue("alice")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	sessions.nowFunc = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := sessions.Validate(token); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized for expired session, got %v", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	sessions := NewSessions(testAuthConfig())
	token, _, err := sessions.Issue("alice")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	other := NewSessions(config.AuthConfig{SessionSecret: "different", SessionTTL: time.Hour})
	if _, err := other.Validate(token); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized for forged token, got %v", err)
	}
}

func TestValidateRejectsEmptyToken(t *testing.T) {
	sessions := NewSessions(testAuthConfig())
	if _, err := sessions.Validate("  "); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
