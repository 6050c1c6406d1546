package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

func newAuthService(t *testing.T, env *testEnv) *AuthService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Auth.BcryptCost = 4
	cfg.App.BaseURL = "http://localhost:8080"
	tokens := auth.NewTokenManager("test-secret", 0, 0)
	return NewAuthService(cfg, AuthDependencies{
		UserRepo:   env.users,
		Tokens:     tokens,
		Dispatcher: env.recorder,
	})
}

func TestAuthenticateSuccess(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newAuthService(t, env)

	user := env.createUser(t, "Kara", domain.RoleCoordinator)

	// login name matching is case-insensitive
	session, err := svc.Authenticate(context.Background(), "kara", "Secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if session.User.ID != user.ID {
		t.Errorf("user id = %d, want %d", session.User.ID, user.ID)
	}
	if session.Token == "" {
		t.Error("empty session token")
	}
}

func TestAuthenticateIndistinguishableFailures(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newAuthService(t, env)

	env.createUser(t, "leo", domain.RoleAssistant)

	_, wrongPass := svc.Authenticate(context.Background(), "leo", "not-the-password")
	_, noUser := svc.Authenticate(context.Background(), "nobody", "whatever")

	if wrongPass == nil || noUser == nil {
		t.Fatal("expected both logins to fail")
	}
	var a, b *util.DomainError
	if !errors.As(wrongPass, &a) || !errors.As(noUser, &b) {
		t.Fatal("expected domain errors")
	}
	if a.Message != b.Message || a.HTTPStatus != b.HTTPStatus {
		t.Errorf("failure responses differ: %q vs %q", a.Message, b.Message)
	}
}

func TestAuthenticateInactiveUserRejected(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newAuthService(t, env)

	user := env.createUser(t, "mia", domain.RoleAssistant)
	user.Active = false
	if err := env.users.Update(context.Background(), user); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "mia", "Secret123"); err == nil {
		t.Error("inactive account logged in")
	}
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newAuthService(t, env)

	user := env.createUser(t, "nina", domain.RoleDeveloper)

	if err := svc.ChangePassword(context.Background(), user.ID, "wrong", "NewSecret99"); err == nil {
		t.Error("password changed without the current password")
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "Secret123", "short"); err == nil {
		t.Error("short password accepted")
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "Secret123", "NewSecret99"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nina", "NewSecret99"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newAuthService(t, env)

	user := env.createUser(t, "olga", domain.RoleCoordinator)

	// unknown email succeeds silently and emits nothing
	if err := svc.RequestPasswordReset(context.Background(), "ghost@nowhere.test"); err != nil {
		t.Fatalf("request for unknown email: %v", err)
	}
	if got := env.recorder.byType(events.EventPasswordResetRequested); len(got) != 0 {
		t.Fatalf("events for unknown email = %d, want 0", len(got))
	}

	if err := svc.RequestPasswordReset(context.Background(), *user.Email); err != nil {
		t.Fatalf("request: %v", err)
	}
	emitted := env.recorder.byType(events.EventPasswordResetRequested)
	if len(emitted) != 1 {
		t.Fatalf("reset events = %d, want 1", len(emitted))
	}
	payload := emitted[0].Payload.(events.PasswordResetRequestedPayload)
	if payload.ResetURL == "" {
		t.Fatal("reset URL missing from event")
	}

	// redeem the real token carried in the URL
	token := payload.ResetURL[len("http://localhost:8080/reset-password.html?token="):]
	if err := svc.CompletePasswordReset(context.Background(), token, "BrandNew42"); err != nil {
		t.Fatalf("complete reset: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "olga", "BrandNew42"); err != nil {
		t.Errorf("login after reset: %v", err)
	}
}

func TestSessionTokenRejectedForReset(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newAuthService(t, env)

	env.createUser(t, "pete", domain.RoleDeveloper)
	session, err := svc.Authenticate(context.Background(), "pete", "Secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if err := svc.CompletePasswordReset(context.Background(), session.Token, "Hijacked99"); err == nil {
		t.Error("session token accepted as a reset token")
	}
}
