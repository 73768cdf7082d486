package auth

import (
	"testing"
	"time"
)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	manager, err := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	return manager
}

func TestNewTokenManagerRequiresSecrets(t *testing.T) {
	if _, err := NewTokenManager("", "refresh", 0, 0); err == nil {
		t.Fatal("expected error for missing access secret")
	}
	if _, err := NewTokenManager("access", "", 0, 0); err == nil {
		t.Fatal("expected error for missing refresh secret")
	}

	manager, err := NewTokenManager("access", "refresh", 0, 0)
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	if manager.accessTTL != DefaultAccessTokenTTL || manager.refreshTTL != DefaultRefreshTokenTTL {
		t.Fatal("zero TTLs should fall back to defaults")
	}
}

func TestIssuePairRoundTrip(t *testing.T) {
	manager := newTestManager(t)

	pair, refreshHash, err := manager.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens signed")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
	if refreshHash != HashToken(pair.RefreshToken) {
		t.Fatal("returned hash must match the refresh token")
	}
	if !pair.RefreshExpiresAt.After(pair.AccessExpiresAt) {
		t.Fatal("refresh token should outlive the access token")
	}

	claims, err := manager.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken returned error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected user-1, got %q", claims.UserID)
	}

	if _, err := manager.ValidateRefreshToken(pair.RefreshToken); err != nil {
		t.Fatalf("ValidateRefreshToken returned error: %v", err)
	}
}

func TestTokenUseSeparation(t *testing.T) {
	manager := newTestManager(t)
	pair, _, err := manager.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	if _, err := manager.ValidateAccessToken(pair.RefreshToken); err == nil {
		t.Fatal("refresh token must not validate as access token")
	}
	if _, err := manager.ValidateRefreshToken(pair.AccessToken); err == nil {
		t.Fatal("access token must not validate as refresh token")
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	manager := newTestManager(t)
	other, err := NewTokenManager("other-access", "other-refresh", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}

	pair, _, err := other.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	if _, err := manager.ValidateAccessToken(pair.AccessToken); err == nil {
		t.Fatal("token signed with a different secret must fail")
	}
	if _, err := manager.ValidateAccessToken("not-a-token"); err == nil {
		t.Fatal("garbage must fail")
	}
}

func TestValidateExpiry(t *testing.T) {
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	manager := newTestManager(t).WithClock(func() time.Time { return current })

	pair, _, err := manager.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	current = current.Add(16 * time.Minute)
	if _, err := manager.ValidateAccessToken(pair.AccessToken); err == nil {
		t.Fatal("expired access token must fail")
	}
	if _, err := manager.ValidateRefreshToken(pair.RefreshToken); err != nil {
		t.Fatalf("refresh token should still be valid: %v", err)
	}

	current = current.Add(25 * time.Hour)
	if _, err := manager.ValidateRefreshToken(pair.RefreshToken); err == nil {
		t.Fatal("expired refresh token must fail")
	}
}

func TestTokenHashMatches(t *testing.T) {
	if !TokenHashMatches(HashToken("token"), "token") {
		t.Fatal("matching token must verify")
	}
	if TokenHashMatches(HashToken("token"), "other") {
		t.Fatal("different token must not verify")
	}
	if TokenHashMatches("", "token") || TokenHashMatches(HashToken("token"), "") {
		t.Fatal("blank inputs never match")
	}
}
