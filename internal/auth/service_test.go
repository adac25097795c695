package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/barterhub/wallet/internal/config"
	"github.com/barterhub/wallet/internal/identity"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:       "test-access-secret",
		RefreshSecret:   "test-refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func seedUser(t *testing.T, repo identity.Repository) identity.User {
	t.Helper()
	user := identity.User{
		ID:        uuid.NewString(),
		Email:     "user@example.com",
		Role:      identity.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestLoginIssuesVerifiableTokens(t *testing.T) {
	cfg := testConfig()
	repo := identity.NewMemoryRepository()
	svc := NewService(cfg, repo)
	user := seedUser(t, repo)

	pair, err := svc.Login(user)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.ExpiresIn <= 0 {
		t.Fatalf("expires_in = %d, want > 0", pair.ExpiresIn)
	}

	claims, err := ParseAndVerifyHS256(pair.AccessToken, []byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if sub, _ := claims["sub"].(string); sub != user.ID {
		t.Fatalf("sub = %q, want %q", sub, user.ID)
	}
	if role, _ := claims["role"].(string); role != identity.RoleUser {
		t.Fatalf("role = %q, want %q", role, identity.RoleUser)
	}

	// Access tokens are not valid refresh tokens.
	if _, _, err := svc.Refresh(context.Background(), pair.AccessToken); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	cfg := testConfig()
	repo := identity.NewMemoryRepository()
	svc := NewService(cfg, repo)
	user := seedUser(t, repo)

	pair, err := svc.Login(user)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	access, expiresIn, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if expiresIn != int64(cfg.AccessTokenTTL.Seconds()) {
		t.Fatalf("expires_in = %d, want %d", expiresIn, int64(cfg.AccessTokenTTL.Seconds()))
	}
	if _, err := ParseAndVerifyHS256(access, []byte(cfg.JWTSecret)); err != nil {
		t.Fatalf("verify refreshed token: %v", err)
	}
}

func TestLogoutInvalidatesRefreshTokens(t *testing.T) {
	cfg := testConfig()
	repo := identity.NewMemoryRepository()
	svc := NewService(cfg, repo)
	user := seedUser(t, repo)

	pair, err := svc.Login(user)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, _, err := svc.Refresh(context.Background(), pair.RefreshToken); err == nil {
		t.Fatal("refresh token still valid after logout")
	}
}
