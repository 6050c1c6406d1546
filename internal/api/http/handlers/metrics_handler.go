package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// MetricsHandler exposes the reporting endpoints and the public wallboard.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler constructs the handler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Overview handles GET /api/metrics/overview.
func (h *MetricsHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.metrics.GetOverview(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"overview": overview,
	})
}

// Timeline handles GET /api/metrics/timeline.
func (h *MetricsHandler) Timeline(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	timeline, err := h.metrics.GetTimeline(c.UserContext(), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"timeline": timeline,
	})
}

// Technician handles GET /api/metrics/technician/:id.
func (h *MetricsHandler) Technician(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	detail, err := h.metrics.GetTechnicianDetail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"technician": detail,
	})
}

// Performance handles GET /api/metrics/performance.
func (h *MetricsHandler) Performance(c *fiber.Ctx) error {
	performance, err := h.metrics.GetPerformance(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"performance": performance,
	})
}

// History handles GET /api/metrics/history.
func (h *MetricsHandler) History(c *fiber.Ctx) error {
	report, err := h.metrics.GetHistory(c.UserContext(), exportFilterFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   report.Stats,
		"tickets": report.Tickets,
	})
}

// Export handles GET /api/metrics/export.
func (h *MetricsHandler) Export(c *fiber.Ctx) error {
	rows, err := h.metrics.Export(c.UserContext(), exportFilterFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"tickets": rows,
	})
}

// TV handles GET /api/public/tv, the unauthenticated wallboard snapshot.
func (h *MetricsHandler) TV(c *fiber.Ctx) error {
	snapshot, err := h.metrics.GetTVSnapshot(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"snapshot": snapshot,
	})
}

func exportFilterFromQuery(c *fiber.Ctx) repository.ExportFilter {
	filter := repository.ExportFilter{
		Category:   optionalQuery(c, "category"),
		Department: optionalQuery(c, "department"),
		StartDate:  optionalQuery(c, "start_date"),
		EndDate:    optionalQuery(c, "end_date"),
	}
	if raw := strings.ToLower(strings.TrimSpace(c.Query("status"))); raw != "" {
		status := domain.TicketStatus(raw)
		filter.Status = &status
	}
	if raw := strings.ToLower(strings.TrimSpace(c.Query("priority"))); raw != "" {
		priority := domain.TicketPriority(raw)
		filter.Priority = &priority
	}
	if raw := strings.TrimSpace(c.Query("technician")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.Technician = &id
		}
	}
	if limit := c.QueryInt("limit", 0); limit > 0 {
		filter.Limit = limit
	}
	return filter
}
