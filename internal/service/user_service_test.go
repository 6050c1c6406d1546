package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

func newUserService(env *testEnv) *UserService {
	return NewUserService(env.users, repository.NewTicketRepository(env.store.DB()), 4)
}

func TestCreateUserValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newUserService(env)

	cases := []struct {
		name  string
		input UserCreateInput
	}{
		{"missing fields", UserCreateInput{Name: "solo"}},
		{"bad role", UserCreateInput{Name: "quinn", Password: "Secret123", Role: "SUPERADMIN"}},
		{"short password", UserCreateInput{Name: "quinn", Password: "abc", Role: "ASSISTANT"}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateUser(context.Background(), tc.input); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}

	user, err := svc.CreateUser(context.Background(), UserCreateInput{
		Name:     "quinn",
		Email:    "Quinn@Helpdesk.Test",
		Password: "Secret123",
		Role:     "assistant",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Role != domain.RoleAssistant {
		t.Errorf("role = %q, want normalized ASSISTANT", user.Role)
	}
	if user.Email == nil || *user.Email != "quinn@helpdesk.test" {
		t.Errorf("email = %v, want lowercased", user.Email)
	}
}

func TestCreateUserDuplicateNameConflict(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newUserService(env)

	if _, err := svc.CreateUser(context.Background(), UserCreateInput{
		Name: "rosa", Password: "Secret123", Role: "COORDINATOR",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.CreateUser(context.Background(), UserCreateInput{
		Name: "ROSA", Password: "Secret123", Role: "ASSISTANT",
	})
	if err == nil {
		t.Fatal("duplicate name accepted")
	}
	var domainErr *util.DomainError
	if !errors.As(err, &domainErr) || domainErr.HTTPStatus != 409 {
		t.Errorf("err = %v, want 409 conflict", err)
	}
}

func TestDeleteUserBlockedByActiveTickets(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newUserService(env)

	admin := env.createUser(t, "sam", domain.RoleDeveloper)
	assistant := env.createUser(t, "tess", domain.RoleAssistant)

	ticket := env.createTicket(t, TicketCreateInput{})
	if _, err := env.tickets.UpdateTicket(context.Background(), admin, ticket.ID, TicketUpdateInput{
		AssignedTo: &assistant.ID, AssignedToSet: true,
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	err := svc.DeleteUser(context.Background(), admin.ID, assistant.ID)
	if err == nil {
		t.Fatal("delete allowed with an active assigned ticket")
	}
	var domainErr *util.DomainError
	if !errors.As(err, &domainErr) || domainErr.HTTPStatus != 409 {
		t.Errorf("err = %v, want 409 conflict", err)
	}

	// resolving the ticket unblocks the delete
	resolved := domain.TicketStatusResolved
	if _, err := env.tickets.UpdateTicket(context.Background(), admin, ticket.ID, TicketUpdateInput{Status: &resolved}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := svc.DeleteUser(context.Background(), admin.ID, assistant.ID); err != nil {
		t.Fatalf("delete after resolve: %v", err)
	}
}

func TestSelfProtectionRules(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newUserService(env)

	admin := env.createUser(t, "uma", domain.RoleDeveloper)

	if err := svc.DeleteUser(context.Background(), admin.ID, admin.ID); err == nil {
		t.Error("self-delete allowed")
	}

	inactive := false
	if _, err := svc.UpdateUser(context.Background(), admin.ID, admin.ID, UserUpdateInput{Active: &inactive}); err == nil {
		t.Error("self-deactivation allowed")
	}
}
