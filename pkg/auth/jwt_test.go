package auth

import (
	"testing"
	"time"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret")

	token, err := manager.GenerateToken("user-123", "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("user id = %q, want user-123", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
}

func TestJWTManagerRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a").GenerateToken("user-123", "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := NewJWTManager("secret-b").ValidateToken(token); err == nil {
		t.Error("expected validation failure with wrong secret")
	}
}

func TestJWTManagerRejectsExpired(t *testing.T) {
	manager := NewJWTManager("test-secret")

	token, err := manager.GenerateToken("user-123", "user@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expected validation failure for expired token")
	}
}

func TestJWTManagerRejectsGarbage(t *testing.T) {
	if _, err := NewJWTManager("test-secret").ValidateToken("not-a-token"); err == nil {
		t.Error("expected validation failure for malformed token")
	}
}
