package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
}

// RegisterRoutes wires HTTP routes. Ticket routes are also served under /api
// for clients that proxy through that prefix.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	registerTicketRoutes(app.Group("/tickets"), cfg.Tickets)
	registerTicketRoutes(app.Group("/api/tickets"), cfg.Tickets)
}

// Static segments must precede /:id.
func registerTicketRoutes(group fiber.Router, h *handlers.TicketsHandler) {
	group.Get("/", h.ListTickets)
	group.Post("/", h.CreateTicket)
	group.Get("/stats", h.Stats)
	group.Post("/classify", h.Classify)
	group.Get("/:id", h.GetTicket)
	group.Patch("/:id", h.UpdateTicket)
}
