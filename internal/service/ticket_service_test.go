package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestCreateTicketDefaults(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	ticket := env.createTicket(t, TicketCreateInput{RequesterEmail: "Bob.Smith@Example.COM"})

	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %q, want open", ticket.Status)
	}
	if ticket.RequesterEmail != "bob.smith@example.com" {
		t.Errorf("requester email = %q, want lower case", ticket.RequesterEmail)
	}
	if !strings.HasPrefix(ticket.TicketNumber, "TI") || len(ticket.TicketNumber) != 11 {
		t.Errorf("ticket number %q does not match TI + 9 digits", ticket.TicketNumber)
	}
	if ticket.ResolvedAt != nil {
		t.Error("resolved_at should be empty on creation")
	}
	got := env.recorder.byType(events.EventTicketCreated)
	if len(got) != 1 {
		t.Fatalf("ticket_created events = %d, want 1", len(got))
	}
	if got[0].ID == "" {
		t.Error("published event has no id")
	}
}

func TestCreateTicketSubjectDerivation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	long := strings.Repeat("a", 100)
	ticket := env.createTicket(t, TicketCreateInput{Description: long})
	if want := strings.Repeat("a", 80) + "..."; ticket.Subject != want {
		t.Errorf("subject = %q, want first 80 chars with ellipsis", ticket.Subject)
	}

	short := env.createTicket(t, TicketCreateInput{Description: "monitor flickers"})
	if short.Subject != "monitor flickers" {
		t.Errorf("subject = %q, want full description", short.Subject)
	}

	explicit := env.createTicket(t, TicketCreateInput{Subject: "VPN down", Description: long})
	if explicit.Subject != "VPN down" {
		t.Errorf("subject = %q, want requester-provided subject kept", explicit.Subject)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	complete := TicketCreateInput{
		RequesterName:  "Bob",
		RequesterEmail: "bob@example.com",
		RequesterPhone: "555-0101",
		Department:     "IT",
		Category:       "software",
		Priority:       domain.TicketPriorityLow,
		Description:    "something broke",
	}

	// every field except subject and attachment is mandatory
	cases := map[string]func(*TicketCreateInput){
		"name":        func(in *TicketCreateInput) { in.RequesterName = "" },
		"email":       func(in *TicketCreateInput) { in.RequesterEmail = "" },
		"phone":       func(in *TicketCreateInput) { in.RequesterPhone = "" },
		"department":  func(in *TicketCreateInput) { in.Department = "" },
		"category":    func(in *TicketCreateInput) { in.Category = "" },
		"priority":    func(in *TicketCreateInput) { in.Priority = "" },
		"description": func(in *TicketCreateInput) { in.Description = "" },
	}
	for field, blank := range cases {
		input := complete
		blank(&input)
		_, err := env.tickets.CreateTicket(context.Background(), input)
		var domainErr *util.DomainError
		if !errors.As(err, &domainErr) || domainErr.HTTPStatus != 400 {
			t.Errorf("missing %s: err = %v, want 400 validation error", field, err)
		}
	}

	invalid := complete
	invalid.Priority = "catastrophic"
	_, err := env.tickets.CreateTicket(context.Background(), invalid)
	if err == nil {
		t.Fatal("expected validation error for unknown priority")
	}
}

func TestUpdateTicketStatusWritesHistoryOnce(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tech := env.createUser(t, "carol", domain.RoleCoordinator)
	ticket := env.createTicket(t, TicketCreateInput{})

	inProgress := domain.TicketStatusInProgress
	updated, err := env.tickets.UpdateTicket(context.Background(), tech, ticket.ID, TicketUpdateInput{
		Status: &inProgress,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Errorf("status = %q, want in_progress", updated.Status)
	}

	history, err := env.history.ListByTicket(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history))
	}
	if history[0].OldStatus != domain.TicketStatusOpen || history[0].NewStatus != domain.TicketStatusInProgress {
		t.Errorf("history transition = %s -> %s", history[0].OldStatus, history[0].NewStatus)
	}

	// same status again must not add a second row
	if _, err := env.tickets.UpdateTicket(context.Background(), tech, ticket.ID, TicketUpdateInput{
		Status: &inProgress,
	}); err != nil {
		t.Fatalf("no-op update: %v", err)
	}
	history, _ = env.history.ListByTicket(context.Background(), ticket.ID)
	if len(history) != 1 {
		t.Errorf("history rows after no-op = %d, want 1", len(history))
	}
}

func TestUpdateTicketResolvedAtIsStable(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tech := env.createUser(t, "dave", domain.RoleDeveloper)
	ticket := env.createTicket(t, TicketCreateInput{})

	resolved := domain.TicketStatusResolved
	updated, err := env.tickets.UpdateTicket(context.Background(), tech, ticket.ID, TicketUpdateInput{Status: &resolved})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if updated.ResolvedAt == nil {
		t.Fatal("resolved_at not stamped on resolve")
	}
	stamped := *updated.ResolvedAt

	// reopening keeps the stamp, closing again must not move it
	open := domain.TicketStatusOpen
	if _, err := env.tickets.UpdateTicket(context.Background(), tech, ticket.ID, TicketUpdateInput{Status: &open}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	closed := domain.TicketStatusClosed
	final, err := env.tickets.UpdateTicket(context.Background(), tech, ticket.ID, TicketUpdateInput{Status: &closed})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if final.ResolvedAt == nil || !final.ResolvedAt.Equal(stamped) {
		t.Errorf("resolved_at = %v, want original stamp %v", final.ResolvedAt, stamped)
	}
}

func TestAssistantSeesOnlyOwnTickets(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	assistant := env.createUser(t, "erin", domain.RoleAssistant)
	coordinator := env.createUser(t, "frank", domain.RoleCoordinator)

	mine := env.createTicket(t, TicketCreateInput{Description: "assigned to assistant"})
	other := env.createTicket(t, TicketCreateInput{Description: "assigned elsewhere"})

	if _, err := env.tickets.UpdateTicket(context.Background(), coordinator, mine.ID, TicketUpdateInput{
		AssignedTo: &assistant.ID, AssignedToSet: true,
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	listed, err := env.tickets.ListTickets(context.Background(), assistant, TicketListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != mine.ID {
		t.Fatalf("assistant sees %d tickets, want only its own", len(listed))
	}

	// direct access to an unassigned ticket is forbidden
	if _, err := env.tickets.GetTicket(context.Background(), assistant, other.ID); err == nil {
		t.Error("expected forbidden error for foreign ticket")
	}

	// coordinators see everything
	all, err := env.tickets.ListTickets(context.Background(), coordinator, TicketListFilter{})
	if err != nil {
		t.Fatalf("coordinator list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("coordinator sees %d tickets, want 2", len(all))
	}
}

func TestAssignmentPublishesEvent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	coordinator := env.createUser(t, "grace", domain.RoleCoordinator)
	assistant := env.createUser(t, "henry", domain.RoleAssistant)
	ticket := env.createTicket(t, TicketCreateInput{})

	if _, err := env.tickets.UpdateTicket(context.Background(), coordinator, ticket.ID, TicketUpdateInput{
		AssignedTo: &assistant.ID, AssignedToSet: true,
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	assigned := env.recorder.byType(events.EventTicketAssigned)
	if len(assigned) != 1 {
		t.Fatalf("ticket_assigned events = %d, want 1", len(assigned))
	}
	payload, ok := assigned[0].Payload.(events.TicketAssignedPayload)
	if !ok || payload.AssigneeID != assistant.ID {
		t.Errorf("payload = %+v, want assignee %d", assigned[0].Payload, assistant.ID)
	}
}

func TestTrackExcludesInternalComments(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tech := env.createUser(t, "iris", domain.RoleDeveloper)
	ticket := env.createTicket(t, TicketCreateInput{RequesterEmail: "track@example.com"})

	if _, err := env.tickets.AddComment(context.Background(), tech, ticket.ID, "public reply", false); err != nil {
		t.Fatalf("public comment: %v", err)
	}
	if _, err := env.tickets.AddComment(context.Background(), tech, ticket.ID, "internal note", true); err != nil {
		t.Fatalf("internal comment: %v", err)
	}

	tracked, err := env.tickets.TrackTickets(context.Background(), "", "track@example.com")
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if len(tracked) != 1 {
		t.Fatalf("tracked = %d, want 1", len(tracked))
	}
	if len(tracked[0].Comments) != 1 || tracked[0].Comments[0].Body != "public reply" {
		t.Errorf("tracked comments = %+v, want only the public reply", tracked[0].Comments)
	}

	// tracking needs at least one key
	if _, err := env.tickets.TrackTickets(context.Background(), "", ""); err == nil {
		t.Error("expected validation error without number or email")
	}
}

func TestUpdateTicketUnknownAssigneeRejected(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tech := env.createUser(t, "judy", domain.RoleDeveloper)
	ticket := env.createTicket(t, TicketCreateInput{})

	ghost := int64(99999)
	if _, err := env.tickets.UpdateTicket(context.Background(), tech, ticket.ID, TicketUpdateInput{
		AssignedTo: &ghost, AssignedToSet: true,
	}); err == nil {
		t.Error("expected validation error for unknown assignee")
	}
}

func TestDeleteTicketRemovesAttachment(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	stored := "deadbeef.pdf"
	ticket := env.createTicket(t, TicketCreateInput{Attachment: &stored})

	var removed []string
	err := env.tickets.DeleteTicket(context.Background(), ticket.ID, func(name string) {
		removed = append(removed, name)
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(removed) != 1 || removed[0] != stored {
		t.Errorf("removed attachments = %v, want [%s]", removed, stored)
	}

	if _, err := env.tickets.GetTicket(context.Background(), nil, ticket.ID); err == nil {
		t.Error("ticket still readable after delete")
	}
}
