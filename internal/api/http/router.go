package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-automation/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Tickets    *handlers.TicketsHandler
	Automation *handlers.AutomationHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/deadlines", cfg.Tickets.GetDeadlines)
	tickets.Post("/:id/transition", cfg.Tickets.Transition)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)

	automation := app.Group("/automation")
	automation.Post("/tasks", cfg.Automation.EnqueueTask)
	automation.Get("/runs/:ticketID", cfg.Automation.ListRuns)
}
