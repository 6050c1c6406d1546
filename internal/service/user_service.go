package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// UserService manages technician accounts. Every mutation on it is admin
// territory; handlers gate access by role before calling in.
type UserService struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, tickets repository.TicketRepository, bcryptCost int) *UserService {
	return &UserService{users: users, tickets: tickets, bcryptCost: bcryptCost}
}

// UserCreateInput describes a new technician account.
type UserCreateInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     string
}

// UserUpdateInput carries mutable account fields. Nil fields are ignored.
type UserUpdateInput struct {
	Name   *string
	Email  *string
	Phone  *string
	Role   *string
	Active *bool
}

// CreateUser registers a technician. Names are unique case-insensitively
// because they are the login identifier; email is optional but unique.
func (s *UserService) CreateUser(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.Password == "" || input.Role == "" {
		return nil, util.NewValidationError("name, password and role are required", nil)
	}
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, util.NewValidationError("invalid role, use DEVELOPER, COORDINATOR or ASSISTANT", nil)
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, util.NewValidationError("password must be at least 6 characters", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        normalizeOptional(strings.ToLower(input.Email)),
		Phone:        normalizeOptional(input.Phone),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, util.NewConflict("a user with this name or email already exists", nil)
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser applies partial changes. An admin cannot deactivate their own
// account.
func (s *UserService) UpdateUser(ctx context.Context, actorID, id int64, input UserUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, util.NewValidationError("name cannot be empty", nil)
		}
		user.Name = name
	}
	if input.Email != nil {
		user.Email = normalizeOptional(strings.ToLower(*input.Email))
	}
	if input.Phone != nil {
		user.Phone = normalizeOptional(*input.Phone)
	}
	if input.Role != nil {
		role, err := domain.ParseRole(*input.Role)
		if err != nil {
			return nil, util.NewValidationError("invalid role, use DEVELOPER, COORDINATOR or ASSISTANT", nil)
		}
		user.Role = role
	}
	if input.Active != nil {
		if id == actorID && !*input.Active {
			return nil, util.NewValidationError("you cannot deactivate your own account", nil)
		}
		user.Active = *input.Active
	}

	if err := s.users.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, util.NewConflict("a user with this name or email already exists", nil)
		}
		return nil, err
	}
	return user, nil
}

// ResetUserPassword sets a new password without knowing the old one. This
// is the admin-side recovery path.
func (s *UserService) ResetUserPassword(ctx context.Context, id int64, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return util.NewValidationError("password must be at least 6 characters", nil)
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash)
}

// DeleteUser removes an account. It refuses self-deletion and accounts
// still holding active tickets.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if id == actorID {
		return util.NewValidationError("you cannot delete your own account", nil)
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}

	active, err := s.tickets.CountActiveByAssignee(ctx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return util.NewConflict(
			fmt.Sprintf("this user has %d active ticket(s); reassign or resolve them first", active),
			map[string]any{"active_tickets": active})
	}
	return s.users.Delete(ctx, id)
}

// GetUser fetches one account.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns every account, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// ListTechnicians returns the active accounts available for assignment.
func (s *UserService) ListTechnicians(ctx context.Context) ([]domain.User, error) {
	return s.users.ListActive(ctx)
}

func normalizeOptional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
