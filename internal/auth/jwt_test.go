package auth

import (
	"testing"
	"time"

	"devforum/internal/entity/db"
)

func TestNewManagerAndTokenLifecycle(t *testing.T) {
	mgr, err := NewManager("test-secret", "issuer", time.Minute*30)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}

	user := &db.User{ID: 42, Username: "ada", Role: &db.Role{Name: db.RoleAdministrator}}
	token, expiresAt, err := mgr.GenerateToken(user)
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatal("expected future expiry time")
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error parsing token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %d, got %d", user.ID, claims.UserID)
	}
	if claims.Username != user.Username {
		t.Fatalf("expected username %s, got %s", user.Username, claims.Username)
	}
	if claims.Role != db.RoleAdministrator {
		t.Fatalf("expected role %s, got %s", db.RoleAdministrator, claims.Role)
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager("   ", "", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestParseTokenRejectsConfirmationToken(t *testing.T) {
	mgr, _ := NewManager("shared", "devforum", time.Hour)
	codec, _ := NewTokenCodec("shared", "devforum")

	token, err := codec.Encode(PurposeConfirm, 7, time.Hour)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := mgr.ParseToken(token); err == nil {
		t.Fatal("confirmation token must not authenticate a session")
	}
}
