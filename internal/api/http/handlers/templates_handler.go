package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// TemplatesHandler exposes canned reply management.
type TemplatesHandler struct {
	templates *service.TemplateService
}

// NewTemplatesHandler constructs the handler.
func NewTemplatesHandler(templates *service.TemplateService) *TemplatesHandler {
	return &TemplatesHandler{templates: templates}
}

// List handles GET /api/templates.
func (h *TemplatesHandler) List(c *fiber.Ctx) error {
	templates, err := h.templates.ListTemplates(c.UserContext(), optionalQuery(c, "category"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"templates": dto.FromTemplates(templates),
	})
}

// Get handles GET /api/templates/:id.
func (h *TemplatesHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	tpl, err := h.templates.GetTemplate(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"template": dto.FromTemplate(tpl),
	})
}

// Create handles POST /api/templates.
func (h *TemplatesHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	tpl, err := h.templates.CreateTemplate(c.UserContext(), actor.ID, service.TemplateInput{
		Title:    req.Title,
		Category: req.Category,
		Content:  req.Content,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "template created",
		"template": dto.FromTemplate(tpl),
	})
}

// Update handles PUT /api/templates/:id.
func (h *TemplatesHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	tpl, err := h.templates.UpdateTemplate(c.UserContext(), id, service.TemplateInput{
		Title:    req.Title,
		Category: req.Category,
		Content:  req.Content,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "template updated",
		"template": dto.FromTemplate(tpl),
	})
}

// Delete handles DELETE /api/templates/:id.
func (h *TemplatesHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.templates.DeleteTemplate(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "template deleted",
	})
}
