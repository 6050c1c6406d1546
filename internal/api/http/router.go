package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	Templates      *handlers.TemplatesHandler
	Metrics        *handlers.MetricsHandler
	Hub            *realtime.Hub
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	// public surface: submission, tracking, wallboard
	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/track", cfg.Tickets.Track)

	api.Get("/public/tv", cfg.Metrics.TV)

	// everything below requires a session
	protected := cfg.AuthMiddleware.Handle

	authGroup.Get("/me", protected, cfg.Auth.Me)
	authGroup.Post("/change-password", protected, cfg.Auth.ChangePassword)

	tickets.Get("/", protected, cfg.Tickets.List)
	tickets.Get("/attachments/:name", protected, cfg.Tickets.Attachment)
	tickets.Get("/:id", protected, cfg.Tickets.Get)
	tickets.Put("/:id", protected, cfg.Tickets.Update)
	tickets.Post("/:id/comments", protected, cfg.Tickets.AddComment)
	tickets.Delete("/:id", protected, auth.RequireRole(domain.RoleDeveloper), cfg.Tickets.Delete)

	adminOnly := auth.RequireRole(domain.RoleDeveloper)
	users := api.Group("/users", protected)
	users.Get("/technicians", cfg.Users.Technicians)
	users.Get("/", adminOnly, cfg.Users.List)
	users.Get("/:id", adminOnly, cfg.Users.Get)
	users.Post("/", adminOnly, cfg.Users.Create)
	users.Put("/:id", adminOnly, cfg.Users.Update)
	users.Put("/:id/reset-password", adminOnly, cfg.Users.ResetPassword)
	users.Delete("/:id", adminOnly, cfg.Users.Delete)

	managers := auth.RequireRole(domain.RoleDeveloper, domain.RoleCoordinator)
	templates := api.Group("/templates", protected)
	templates.Get("/", cfg.Templates.List)
	templates.Get("/:id", cfg.Templates.Get)
	templates.Post("/", managers, cfg.Templates.Create)
	templates.Put("/:id", managers, cfg.Templates.Update)
	templates.Delete("/:id", managers, cfg.Templates.Delete)

	metrics := api.Group("/metrics", protected, managers)
	metrics.Get("/overview", cfg.Metrics.Overview)
	metrics.Get("/timeline", cfg.Metrics.Timeline)
	metrics.Get("/performance", cfg.Metrics.Performance)
	metrics.Get("/history", cfg.Metrics.History)
	metrics.Get("/export", cfg.Metrics.Export)
	metrics.Get("/technician/:id", cfg.Metrics.Technician)

	// realtime dashboard updates
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(cfg.Hub.Handler()))
}
