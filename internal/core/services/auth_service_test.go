package services

import (
	"context"
	"errors"
	"testing"

	"equipahub/internal/adapters/persistence/memory"
	"equipahub/internal/config"
)

func newTestAuthService(t *testing.T) (*AuthService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	cfg := &config.Config{
		AppMode: "development",
		JWT: config.JWTConfig{
			Secret:           "access-secret-for-tests",
			RefreshSecret:    "refresh-secret-for-tests",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
	return NewAuthService(store.Users(), store.RefreshTokens(), cfg), store
}

func registerTestUser(t *testing.T, svc *AuthService) {
	t.Helper()
	_, err := svc.Register(context.Background(), &RegisterInput{
		Name:     "Alice",
		Email:    "alice@test.local",
		Password: "changeme123",
		Role:     "technician",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterInput{
		Name: "Bob", Email: "bob@test.local", Password: "changeme123", Role: "janitor",
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("bad role err = %v, want ErrInvalidRole", err)
	}

	_, err = svc.Register(ctx, &RegisterInput{
		Name: "Bob", Email: "bob@test.local", Password: "short", Role: "faculty",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak password err = %v, want ErrWeakPassword", err)
	}

	registerTestUser(t, svc)
	_, err = svc.Register(ctx, &RegisterInput{
		Name: "Alice Again", Email: "alice@test.local", Password: "changeme123", Role: "faculty",
	})
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("duplicate email err = %v, want ErrUserAlreadyExists", err)
	}
}

func TestLoginAndRefresh(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	registerTestUser(t, svc)

	_, err := svc.Login(ctx, &LoginInput{Email: "alice@test.local", Password: "wrong-password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	_, err = svc.Login(ctx, &LoginInput{Email: "nobody@test.local", Password: "changeme123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want ErrInvalidCredentials", err)
	}

	auth, err := svc.Login(ctx, &LoginInput{Email: "alice@test.local", Password: "changeme123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if auth.AccessToken == "" || auth.RefreshToken == "" {
		t.Fatal("login returned empty tokens")
	}

	claims, err := svc.ValidateAccessToken(auth.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.Email != "alice@test.local" || claims.Role != "technician" {
		t.Fatalf("claims = %+v, want alice's identity", claims)
	}

	// Rotation: the refresh endpoint returns a new pair and kills the
	// old refresh token.
	rotated, err := svc.RefreshToken(ctx, auth.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == auth.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if _, err := svc.RefreshToken(ctx, auth.RefreshToken); err == nil {
		t.Fatal("spent refresh token accepted")
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	registerTestUser(t, svc)

	auth, err := svc.Login(ctx, &LoginInput{Email: "alice@test.local", Password: "changeme123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, auth.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.RefreshToken(ctx, auth.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("refresh after logout err = %v, want ErrTokenRevoked", err)
	}

	// Logging out an unknown token is a no-op, not an error.
	if err := svc.Logout(ctx, "never-issued"); err != nil {
		t.Fatalf("logout unknown token: %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuthService(t)
	if _, err := svc.RefreshToken(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage refresh err = %v, want ErrInvalidToken", err)
	}
}
