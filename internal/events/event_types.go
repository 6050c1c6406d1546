package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket_created"
	EventTicketUpdated          EventType = "ticket_updated"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
	EventTicketAssigned         EventType = "ticket_assigned"
	EventCommentAdded           EventType = "comment_added"
	EventPasswordResetRequested EventType = "password_reset_requested"
)

// Actor identifies who triggered an event. A nil UserID means a public,
// unauthenticated requester.
type Actor struct {
	UserID *int64 `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber   string                `json:"ticket_number"`
	RequesterName  string                `json:"requester_name"`
	RequesterEmail string                `json:"requester_email"`
	Department     string                `json:"department"`
	Category       string                `json:"category"`
	Priority       domain.TicketPriority `json:"priority"`
	Subject        string                `json:"subject"`
}

// TicketUpdatedPayload lists which fields changed.
type TicketUpdatedPayload struct {
	TicketNumber string   `json:"ticket_number"`
	Changed      []string `json:"changed"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketNumber   string              `json:"ticket_number"`
	RequesterEmail string              `json:"requester_email"`
	OldStatus      domain.TicketStatus `json:"old_status"`
	NewStatus      domain.TicketStatus `json:"new_status"`
	Note           string              `json:"note,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TicketNumber  string `json:"ticket_number"`
	AssigneeID    int64  `json:"assignee_id"`
	AssigneeName  string `json:"assignee_name"`
	AssigneeEmail string `json:"assignee_email,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	TicketNumber   string `json:"ticket_number"`
	RequesterEmail string `json:"requester_email"`
	CommentID      int64  `json:"comment_id"`
	IsInternal     bool   `json:"is_internal"`
	BodyPreview    string `json:"body_preview"`
}

// PasswordResetRequestedPayload payload.
type PasswordResetRequestedPayload struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	ResetURL string `json:"reset_url"`
}
