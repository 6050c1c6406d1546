package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TemplateRequest is the create/update payload for a canned reply.
type TemplateRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

// TemplateResponse is the wire shape for a canned reply.
type TemplateResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	CreatedBy *int64    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromTemplate converts a domain template.
func FromTemplate(t *domain.ResponseTemplate) TemplateResponse {
	return TemplateResponse{
		ID:        t.ID,
		Title:     t.Title,
		Category:  t.Category,
		Content:   t.Content,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// FromTemplates converts a slice.
func FromTemplates(templates []domain.ResponseTemplate) []TemplateResponse {
	out := make([]TemplateResponse, 0, len(templates))
	for i := range templates {
		out = append(out, FromTemplate(&templates[i]))
	}
	return out
}
