package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// TemplateService manages the canned replies technicians paste into
// comments.
type TemplateService struct {
	templates repository.TemplateRepository
}

// NewTemplateService builds the service.
func NewTemplateService(templates repository.TemplateRepository) *TemplateService {
	return &TemplateService{templates: templates}
}

// TemplateInput is the create/update payload.
type TemplateInput struct {
	Title    string
	Category string
	Content  string
}

func (in *TemplateInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" || in.Category == "" || in.Content == "" {
		return util.NewValidationError("title, category and content are required", nil)
	}
	return nil
}

// CreateTemplate stores a new canned reply attributed to its author.
func (s *TemplateService) CreateTemplate(ctx context.Context, authorID int64, input TemplateInput) (*domain.ResponseTemplate, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	tpl := &domain.ResponseTemplate{
		Title:     input.Title,
		Category:  input.Category,
		Content:   input.Content,
		CreatedBy: &authorID,
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// UpdateTemplate replaces the template's content wholesale.
func (s *TemplateService) UpdateTemplate(ctx context.Context, id int64, input TemplateInput) (*domain.ResponseTemplate, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	tpl, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl.Title = input.Title
	tpl.Category = input.Category
	tpl.Content = input.Content
	if err := s.templates.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// GetTemplate fetches one template.
func (s *TemplateService) GetTemplate(ctx context.Context, id int64) (*domain.ResponseTemplate, error) {
	return s.templates.GetByID(ctx, id)
}

// ListTemplates returns templates, optionally narrowed to one category.
func (s *TemplateService) ListTemplates(ctx context.Context, category *string) ([]domain.ResponseTemplate, error) {
	return s.templates.List(ctx, category)
}

// DeleteTemplate removes a template.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id int64) error {
	return s.templates.Delete(ctx, id)
}
