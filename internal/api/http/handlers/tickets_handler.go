package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/classifier"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler serves the ticket, stats and classification endpoints.
type TicketsHandler struct {
	tickets    *service.TicketService
	stats      *service.StatsService
	classifier *classifier.Classifier
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, stats *service.StatsService, cls *classifier.Classifier) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, stats: stats, classifier: cls}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(ticketResponse(ticket))
}

// ListTickets GET /tickets. Filters combine with AND; empty values are ignored.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	query := domain.TicketQuery{
		Category: domain.TicketCategory(c.Query("category")),
		Priority: domain.TicketPriority(c.Query("priority")),
		Status:   domain.TicketStatus(c.Query("status")),
		Search:   c.Query("search"),
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), query)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(items)
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), c.Params("id"), service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Compute(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.StatsResponse{
		TotalTickets:      stats.TotalTickets,
		OpenTickets:       stats.OpenTickets,
		AvgTicketsPerDay:  dto.OneDecimal(stats.AvgTicketsPerDay),
		PriorityBreakdown: stats.PriorityBreakdown,
		CategoryBreakdown: stats.CategoryBreakdown,
	})
}

// Classify POST /tickets/classify. Service failures still answer 200 with the
// default suggestion.
func (h *TicketsHandler) Classify(c *fiber.Ctx) error {
	var req dto.ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(classifier.ErrEmptyDescription.Error(), nil)
	}
	result, err := h.classifier.Classify(c.UserContext(), req.Description)
	if errors.Is(err, classifier.ErrEmptyDescription) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	if err != nil {
		return err
	}
	return c.JSON(dto.ClassifyResponse{
		SuggestedCategory: result.Suggestion.Category,
		SuggestedPriority: result.Suggestion.Priority,
	})
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Priority:    t.Priority,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
	}
}
