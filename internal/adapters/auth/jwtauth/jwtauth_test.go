package jwtauth

import (
	"context"
	"testing"
	"time"
)

func TestManager_IssueAndVerify(t *testing.T) {
	m, err := NewManager("test-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	pair, err := m.Issue("user-1", "owner@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}

	c, err := m.Verify(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if c.UserID != "user-1" || c.Email != "owner@example.com" {
		t.Fatalf("unexpected claims %+v", c)
	}
}

func TestManager_RejectsRefreshTokenAsAccess(t *testing.T) {
	m, err := NewManager("test-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	pair, err := m.Issue("user-1", "")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := m.Verify(context.Background(), pair.RefreshToken); err == nil {
		t.Fatalf("expected refresh token to be rejected")
	}
}

func TestManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	m, err := NewManager("test-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	pair, err := m.Issue("user-1", "")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	m.now = time.Now
	if _, err := m.Verify(context.Background(), pair.AccessToken); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	other, err := NewManager("other-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	foreign, err := other.Issue("user-1", "")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := m.Verify(context.Background(), foreign.AccessToken); err == nil {
		t.Fatalf("expected token signed with a different secret to be rejected")
	}

	if _, err := m.Verify(context.Background(), "not-a-token"); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
}

func TestNewManager_RequiresSecret(t *testing.T) {
	if _, err := NewManager("", 0, 0); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
