package domain

import "time"

// ResponseTemplate is a canned reply grouped by category. Templates are
// managed independently of tickets.
type ResponseTemplate struct {
	ID        int64
	Title     string
	Category  string
	Content   string
	CreatedBy *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
