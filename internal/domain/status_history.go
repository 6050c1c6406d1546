package domain

import "time"

// StatusHistory is an append-only audit entry for a status transition.
type StatusHistory struct {
	ID        int64
	TicketID  int64
	UserID    *int64
	UserName  *string
	OldStatus TicketStatus
	NewStatus TicketStatus
	Note      *string
	CreatedAt time.Time
}
