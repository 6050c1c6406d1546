package handlers

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler exposes ticket submission, dashboard, and tracking routes.
type TicketsHandler struct {
	tickets *service.TicketService
	uploads *storage.UploadStore
	budgets domain.SLABudgets
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(tickets *service.TicketService, uploads *storage.UploadStore, budgets domain.SLABudgets) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, uploads: uploads, budgets: budgets}
}

// Create handles POST /api/tickets. It is public and accepts multipart
// form data with an optional attachment.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	input := service.TicketCreateInput{
		RequesterName:  c.FormValue("requester_name"),
		RequesterEmail: c.FormValue("requester_email"),
		RequesterPhone: c.FormValue("requester_phone"),
		Department:     c.FormValue("department"),
		Category:       c.FormValue("category"),
		Priority:       domain.TicketPriority(strings.ToLower(c.FormValue("priority"))),
		Subject:        c.FormValue("subject"),
		Description:    c.FormValue("description"),
	}

	var stored string
	if file, err := c.FormFile("attachment"); err == nil && file != nil {
		stored, err = h.uploads.Save(file)
		if err != nil {
			return err
		}
		input.Attachment = &stored
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), input)
	if err != nil {
		// creation failed after the attachment landed on disk
		if stored != "" {
			h.uploads.Remove(stored)
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":       true,
		"message":       "ticket created",
		"ticket_number": ticket.TicketNumber,
		"ticket":        dto.FromTicket(ticket),
	})
}

// Track handles GET /api/tickets/track, the public status lookup.
func (h *TicketsHandler) Track(c *fiber.Ctx) error {
	tracked, err := h.tickets.TrackTickets(c.UserContext(), c.Query("ticket_number"), c.Query("email"))
	if err != nil {
		return err
	}

	results := make([]fiber.Map, 0, len(tracked))
	for i := range tracked {
		results = append(results, fiber.Map{
			"ticket":   dto.FromTicket(&tracked[i].Ticket),
			"comments": dto.FromComments(tracked[i].Comments),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"tickets": results,
	})
}

// List handles GET /api/tickets for the dashboard.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	viewer, ok := auth.UserFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}

	filter := service.TicketListFilter{
		Status:     statusParam(c.Query("status")),
		Priority:   priorityParam(c.Query("priority")),
		Category:   optionalQuery(c, "category"),
		Search:     optionalQuery(c, "search"),
		AssignedTo: optionalIntQuery(c, "assigned_to"),
	}

	tickets, err := h.tickets.ListTickets(c.UserContext(), viewer, filter)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rows := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		rows = append(rows, dto.FromTicketWithSLA(&tickets[i], h.budgets, now))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"tickets": rows,
	})
}

// Get handles GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	viewer, ok := auth.UserFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	detail, err := h.tickets.GetTicket(c.UserContext(), viewer, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"ticket":   dto.FromTicketWithSLA(detail.Ticket, h.budgets, time.Now().UTC()),
		"comments": dto.FromComments(detail.Comments),
		"history":  dto.FromHistoryList(detail.History),
	})
}

// Update handles PUT /api/tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req dto.TicketUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{Note: req.Note}
	if req.Status != nil {
		status := domain.TicketStatus(strings.ToLower(*req.Status))
		input.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(strings.ToLower(*req.Priority))
		input.Priority = &priority
	}
	// presence of the key matters: "assigned_to": null means unassign
	if bodyHasKey(c.Body(), "assigned_to") {
		input.AssignedToSet = true
		input.AssignedTo = req.AssignedTo
	}

	ticket, err := h.tickets.UpdateTicket(c.UserContext(), actor, id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "ticket updated",
		"ticket":  dto.FromTicket(ticket),
	})
}

// AddComment handles POST /api/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	comment, err := h.tickets.AddComment(c.UserContext(), actor, id, req.Comment, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "comment added",
		"comment": dto.FromComment(comment),
	})
}

// Delete handles DELETE /api/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), id, h.uploads.Remove); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "ticket deleted",
	})
}

// Attachment handles GET /api/tickets/attachments/:name, serving the
// stored file.
func (h *TicketsHandler) Attachment(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return util.NewValidationError("attachment name required", nil)
	}
	return c.SendFile(h.uploads.Path(name))
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.NewValidationError("invalid id", nil)
	}
	return id, nil
}

func statusParam(raw string) *domain.TicketStatus {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return nil
	}
	status := domain.TicketStatus(raw)
	return &status
}

func priorityParam(raw string) *domain.TicketPriority {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return nil
	}
	priority := domain.TicketPriority(raw)
	return &priority
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func optionalIntQuery(c *fiber.Ctx, key string) *int64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &val
}

// bodyHasKey reports whether the JSON body carries the key at the top
// level, which lets null-valued fields be distinguished from omitted ones.
func bodyHasKey(body []byte, key string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	_, ok := fields[key]
	return ok
}
