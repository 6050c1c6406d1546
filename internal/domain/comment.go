package domain

import "time"

// Comment is an immutable message on a ticket thread. Internal comments are
// visible to technicians only and never reach the requester.
type Comment struct {
	ID         int64
	TicketID   int64
	UserID     *int64
	UserName   *string
	Body       string
	IsInternal bool
	CreatedAt  time.Time
}
