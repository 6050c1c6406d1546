package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// AuthService coordinates login, password changes, and the reset flow.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
	baseURL    string
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg *config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
		baseURL:    strings.TrimRight(cfg.App.BaseURL, "/"),
	}
}

// Session is a successful login result.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Authenticate verifies a technician login by name. Both an unknown name
// and a wrong password produce the same error, so callers cannot probe for
// accounts.
func (s *AuthService) Authenticate(ctx context.Context, name, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, util.NewValidationError("name and password are required", nil)
	}

	invalid := util.NewUnauthorized("invalid credentials")
	user, err := s.users.GetActiveByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invalid
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, invalid
	}

	token, exp, err := s.tokens.GenerateSessionToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return util.NewValidationError("password must be at least 6 characters", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return util.NewUnauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// RequestPasswordReset issues a short-lived reset token for the account
// behind the email. The caller always gets the same outcome whether or not
// the account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return util.NewValidationError("email is required", nil)
	}

	user, err := s.users.GetActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	token, _, err := s.tokens.GenerateResetToken(user.ID)
	if err != nil {
		return err
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventPasswordResetRequested,
			Actor:     events.Actor{UserID: &user.ID, Name: user.Name},
			Timestamp: time.Now().UTC(),
			Payload: events.PasswordResetRequestedPayload{
				UserID:   user.ID,
				Email:    email,
				ResetURL: s.baseURL + "/reset-password.html?token=" + token,
			},
		})
	}
	return nil
}

// CompletePasswordReset redeems a reset token. Session tokens are rejected
// here even when otherwise valid.
func (s *AuthService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return util.NewValidationError("password must be at least 6 characters", nil)
	}
	claims, err := s.tokens.ParseResetToken(token)
	if err != nil {
		return util.NewUnauthorized("invalid or expired reset token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return util.NewUnauthorized("invalid or expired reset token")
		}
		return err
	}
	if !user.Active {
		return util.NewUnauthorized("invalid or expired reset token")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}
