package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func testUser() *domain.User {
	email := "tech@helpdesk.test"
	return &domain.User{
		ID:    7,
		Name:  "tech",
		Email: &email,
		Role:  domain.RoleCoordinator,
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	t.Parallel()
	tm := NewTokenManager("secret", time.Hour, time.Minute)

	token, exp, err := tm.GenerateSessionToken(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) > time.Hour || time.Until(exp) < 55*time.Minute {
		t.Errorf("expiry %v not near the configured hour", exp)
	}

	claims, err := tm.ParseSessionToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.Role != domain.RoleCoordinator || claims.Purpose != PurposeSession {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenPurposeIsolation(t *testing.T) {
	t.Parallel()
	tm := NewTokenManager("secret", time.Hour, time.Hour)

	session, _, err := tm.GenerateSessionToken(testUser())
	if err != nil {
		t.Fatalf("generate session: %v", err)
	}
	reset, _, err := tm.GenerateResetToken(7)
	if err != nil {
		t.Fatalf("generate reset: %v", err)
	}

	if _, err := tm.ParseResetToken(session); err == nil {
		t.Error("session token passed reset validation")
	}
	if _, err := tm.ParseSessionToken(reset); err == nil {
		t.Error("reset token passed session validation")
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	t.Parallel()
	issuer := NewTokenManager("secret-a", time.Hour, time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour, time.Hour)

	token, _, err := issuer.GenerateSessionToken(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ParseSessionToken(token); err == nil {
		t.Error("token verified under a different secret")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Parallel()
	tm := NewTokenManager("secret", time.Hour, time.Hour)
	tm.sessionTTL = -time.Minute

	token, _, err := tm.GenerateSessionToken(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := tm.ParseSessionToken(token); err == nil {
		t.Error("expired token accepted")
	}
}
