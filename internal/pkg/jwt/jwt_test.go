package jwt

import (
	"testing"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "Alice", "alice@test.local", "technician", testSecret, 15)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateAccessToken(token, testSecret)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.Name != "Alice" || claims.Email != "alice@test.local" || claims.Role != "technician" {
		t.Fatalf("claims = %+v, want the identity carried through", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(42, "Alice", "alice@test.local", "technician", testSecret, 15)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateAccessToken(token, "another-secret"); err == nil {
		t.Fatal("token validated with the wrong secret")
	}
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(42, "Alice", "alice@test.local", "technician", testSecret, -1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateAccessToken(token, testSecret); err == nil {
		t.Fatal("expired token validated")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(42, "token-id-1", testSecret, 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateRefreshToken(token, testSecret)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.TokenID != "token-id-1" {
		t.Fatalf("claims = %+v, want user 42 and token-id-1", claims)
	}

	if _, err := ValidateRefreshToken("not-a-token", testSecret); err == nil {
		t.Fatal("garbage refresh token validated")
	}
}
