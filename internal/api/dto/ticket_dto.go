package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketResponse is the wire shape for a ticket.
type TicketResponse struct {
	ID             int64                 `json:"id"`
	TicketNumber   string                `json:"ticket_number"`
	RequesterName  string                `json:"requester_name"`
	RequesterEmail string                `json:"requester_email"`
	RequesterPhone string                `json:"requester_phone,omitempty"`
	Department     string                `json:"department"`
	Category       string                `json:"category"`
	Priority       domain.TicketPriority `json:"priority"`
	Subject        string                `json:"subject"`
	Description    string                `json:"description"`
	Status         domain.TicketStatus   `json:"status"`
	AssignedTo     *int64                `json:"assigned_to"`
	AssignedName   *string               `json:"assigned_name,omitempty"`
	Attachment     *string               `json:"attachment,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	ResolvedAt     *time.Time            `json:"resolved_at,omitempty"`
	SLA            *SLAResponse          `json:"sla,omitempty"`
}

// SLAResponse is the evaluated deadline state attached to dashboard rows.
type SLAResponse struct {
	BudgetHours    float64 `json:"budget_hours"`
	ElapsedHours   float64 `json:"elapsed_hours"`
	RemainingHours float64 `json:"remaining_hours"`
	Overdue        bool    `json:"overdue"`
	NearDeadline   bool    `json:"near_deadline"`
}

// TicketUpdateRequest carries dashboard edits. Pointer fields distinguish
// omitted from explicit values; assigned_to accepts null to unassign.
type TicketUpdateRequest struct {
	Status     *string `json:"status"`
	Priority   *string `json:"priority"`
	AssignedTo *int64  `json:"assigned_to"`
	Note       *string `json:"note"`
}

// CommentRequest is the add-comment payload.
type CommentRequest struct {
	Comment    string `json:"comment"`
	IsInternal bool   `json:"is_internal"`
}

// CommentResponse is the wire shape for a comment.
type CommentResponse struct {
	ID         int64     `json:"id"`
	TicketID   int64     `json:"ticket_id"`
	UserID     *int64    `json:"user_id,omitempty"`
	UserName   *string   `json:"user_name,omitempty"`
	Comment    string    `json:"comment"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryResponse is the wire shape for a status transition.
type HistoryResponse struct {
	ID        int64               `json:"id"`
	TicketID  int64               `json:"ticket_id"`
	UserID    *int64              `json:"user_id,omitempty"`
	UserName  *string             `json:"user_name,omitempty"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Note      *string             `json:"note,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// FromTicket converts a domain ticket.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		TicketNumber:   t.TicketNumber,
		RequesterName:  t.RequesterName,
		RequesterEmail: t.RequesterEmail,
		RequesterPhone: t.RequesterPhone,
		Department:     t.Department,
		Category:       t.Category,
		Priority:       t.Priority,
		Subject:        t.Subject,
		Description:    t.Description,
		Status:         t.Status,
		AssignedTo:     t.AssignedTo,
		AssignedName:   t.AssignedName,
		Attachment:     t.Attachment,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		ResolvedAt:     t.ResolvedAt,
	}
}

// FromTicketWithSLA converts a ticket and attaches its evaluated SLA state.
func FromTicketWithSLA(t *domain.Ticket, budgets domain.SLABudgets, now time.Time) TicketResponse {
	resp := FromTicket(t)
	state := budgets.Evaluate(t, now)
	resp.SLA = &SLAResponse{
		BudgetHours:    state.Budget.Hours(),
		ElapsedHours:   state.Elapsed.Hours(),
		RemainingHours: state.Remaining.Hours(),
		Overdue:        state.Overdue,
		NearDeadline:   state.NearDeadline,
	}
	return resp
}

// FromComment converts a domain comment.
func FromComment(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		UserID:     c.UserID,
		UserName:   c.UserName,
		Comment:    c.Body,
		IsInternal: c.IsInternal,
		CreatedAt:  c.CreatedAt,
	}
}

// FromComments converts a slice.
func FromComments(comments []domain.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, FromComment(&comments[i]))
	}
	return out
}

// FromHistory converts a domain audit entry.
func FromHistory(h *domain.StatusHistory) HistoryResponse {
	return HistoryResponse{
		ID:        h.ID,
		TicketID:  h.TicketID,
		UserID:    h.UserID,
		UserName:  h.UserName,
		OldStatus: h.OldStatus,
		NewStatus: h.NewStatus,
		Note:      h.Note,
		CreatedAt: h.CreatedAt,
	}
}

// FromHistoryList converts a slice.
func FromHistoryList(entries []domain.StatusHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, FromHistory(&entries[i]))
	}
	return out
}

// FromTickets converts a slice.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, FromTicket(&tickets[i]))
	}
	return out
}
