package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const maxTitleLength = 200

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload. Enum fields arrive
// unvalidated from the transport.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
	Status      string
}

// TicketUpdateInput describes a partial update; nil fields are left unchanged.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *string
	Status      *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket validates input and stores a new ticket. Status defaults to open.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    domain.TicketCategory(strings.TrimSpace(input.Category)),
		Priority:    domain.TicketPriority(strings.TrimSpace(input.Priority)),
		Status:      domain.TicketStatus(strings.TrimSpace(input.Status)),
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}

	details := map[string]any{}
	validateTitle(details, ticket.Title)
	validateDescription(details, ticket.Description)
	validateCategory(details, ticket.Category)
	validatePriority(details, ticket.Priority)
	validateStatus(details, ticket.Status)
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Category: ticket.Category,
			Priority: ticket.Priority,
			Status:   ticket.Status,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket by id. Ids that are not UUIDs are reported as not found.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound()
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}
	return ticket, nil
}

// ListTickets returns tickets matching every supplied criterion, newest first.
func (s *TicketService) ListTickets(ctx context.Context, query domain.TicketQuery) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// UpdateTicket applies a partial update. Id and creation time are immutable.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *ticket

	details := map[string]any{}
	if input.Title != nil {
		ticket.Title = strings.TrimSpace(*input.Title)
		validateTitle(details, ticket.Title)
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
		validateDescription(details, ticket.Description)
	}
	if input.Category != nil {
		ticket.Category = domain.TicketCategory(strings.TrimSpace(*input.Category))
		validateCategory(details, ticket.Category)
	}
	if input.Priority != nil {
		ticket.Priority = domain.TicketPriority(strings.TrimSpace(*input.Priority))
		validatePriority(details, ticket.Priority)
	}
	if input.Status != nil {
		ticket.Status = domain.TicketStatus(strings.TrimSpace(*input.Status))
		validateStatus(details, ticket.Status)
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	changed := changedFields(before, *ticket)
	if len(changed) == 0 {
		return ticket, nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("update ticket %s: %w", id, err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Payload: events.TicketUpdatedPayload{
			Changed:   changed,
			OldStatus: before.Status,
			NewStatus: ticket.Status,
			Title:     ticket.Title,
		},
	})
	return ticket, nil
}

func changedFields(before, after domain.Ticket) []string {
	var changed []string
	if before.Title != after.Title {
		changed = append(changed, "title")
	}
	if before.Description != after.Description {
		changed = append(changed, "description")
	}
	if before.Category != after.Category {
		changed = append(changed, "category")
	}
	if before.Priority != after.Priority {
		changed = append(changed, "priority")
	}
	if before.Status != after.Status {
		changed = append(changed, "status")
	}
	return changed
}

func validateTitle(details map[string]any, title string) {
	switch {
	case title == "":
		details["title"] = "This field is required."
	case utf8.RuneCountInString(title) > maxTitleLength:
		details["title"] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength)
	}
}

func validateDescription(details map[string]any, description string) {
	if description == "" {
		details["description"] = "This field is required."
	}
}

func validateCategory(details map[string]any, category domain.TicketCategory) {
	if category == "" {
		details["category"] = "This field is required."
	} else if !category.Valid() {
		details["category"] = fmt.Sprintf("%q is not a valid choice.", category)
	}
}

func validatePriority(details map[string]any, priority domain.TicketPriority) {
	if priority == "" {
		details["priority"] = "This field is required."
	} else if !priority.Valid() {
		details["priority"] = fmt.Sprintf("%q is not a valid choice.", priority)
	}
}

func validateStatus(details map[string]any, status domain.TicketStatus) {
	if !status.Valid() {
		details["status"] = fmt.Sprintf("%q is not a valid choice.", status)
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
