package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func strPtr(s string) *string { return &s }

func newTicketService(t *testing.T) (*TicketService, *[]events.Event) {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher(nil)
	published := &[]events.Event{}
	record := func(_ context.Context, e events.Event) error {
		*published = append(*published, e)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketCreated, record)
	dispatcher.Subscribe(events.EventTicketUpdated, record)
	svc := NewTicketService(TicketDependencies{
		TicketRepo: repository.NewMemoryTicketRepository(),
		Dispatcher: dispatcher,
	})
	return svc, published
}

func validationDetails(t *testing.T, err error) map[string]any {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected validation error, got %v", err)
	}
	return domainErr.Details
}

func TestCreateTicket(t *testing.T) {
	svc, published := newTicketService(t)
	ticket, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		Title:       "  Charged twice ",
		Description: "Refund requested",
		Category:    "billing",
		Priority:    "high",
	})
	if err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}
	if _, err := uuid.Parse(ticket.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", ticket.ID)
	}
	if ticket.Title != "Charged twice" || ticket.Status != domain.TicketStatusOpen || ticket.CreatedAt.IsZero() {
		t.Fatalf("unexpected ticket %+v", ticket)
	}
	if len(*published) != 1 || (*published)[0].Type != events.EventTicketCreated {
		t.Fatalf("expected created event, got %+v", *published)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	svc, published := newTicketService(t)
	_, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		Title:    strings.Repeat("x", 201),
		Category: "shipping",
		Status:   "archived",
	})
	details := validationDetails(t, err)
	for _, field := range []string{"title", "description", "category", "priority", "status"} {
		if _, ok := details[field]; !ok {
			t.Fatalf("expected detail for %s, got %v", field, details)
		}
	}
	if len(*published) != 0 {
		t.Fatalf("no event expected on validation failure")
	}
}

func TestGetTicketNotFound(t *testing.T) {
	svc, _ := newTicketService(t)
	for _, id := range []string{"42", uuid.NewString()} {
		_, err := svc.GetTicket(context.Background(), id)
		if apperrors.ToDomainError(err).HTTPStatus != 404 {
			t.Fatalf("id %s: expected not found, got %v", id, err)
		}
	}
}

func TestUpdateTicketPartial(t *testing.T) {
	svc, published := newTicketService(t)
	ctx := context.Background()
	created, err := svc.CreateTicket(ctx, TicketCreateInput{Title: "App crashes", Description: "On login", Category: "technical", Priority: "critical"})
	if err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	updated, err := svc.UpdateTicket(ctx, created.ID, TicketUpdateInput{Status: strPtr("in_progress")})
	if err != nil {
		t.Fatalf("UpdateTicket failed: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress || updated.Title != "App crashes" || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("unexpected update result %+v", updated)
	}
	last := (*published)[len(*published)-1]
	payload, ok := last.Payload.(events.TicketUpdatedPayload)
	if last.Type != events.EventTicketUpdated || !ok || !payload.StatusChanged() || payload.Changed[0] != "status" {
		t.Fatalf("unexpected update event %+v", last)
	}

	before := len(*published)
	if _, err := svc.UpdateTicket(ctx, created.ID, TicketUpdateInput{Status: strPtr("in_progress")}); err != nil {
		t.Fatalf("no-op update failed: %v", err)
	}
	if len(*published) != before {
		t.Fatalf("no-op update must not publish")
	}

	_, err = svc.UpdateTicket(ctx, created.ID, TicketUpdateInput{Priority: strPtr("urgent"), Title: strPtr("  ")})
	details := validationDetails(t, err)
	if len(details) != 2 {
		t.Fatalf("expected title and priority errors, got %v", details)
	}
	stored, _ := svc.GetTicket(ctx, created.ID)
	if stored.Priority != domain.TicketPriorityCritical {
		t.Fatalf("failed update must not persist, got %s", stored.Priority)
	}

	if _, err := svc.UpdateTicket(ctx, uuid.NewString(), TicketUpdateInput{Status: strPtr("closed")}); apperrors.ToDomainError(err).HTTPStatus != 404 {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListTicketsFilters(t *testing.T) {
	svc, _ := newTicketService(t)
	ctx := context.Background()
	inputs := []TicketCreateInput{
		{Title: "Charged twice", Description: "Refund requested", Category: "billing", Priority: "high"},
		{Title: "App crashes", Description: "On login", Category: "technical", Priority: "critical"},
		{Title: "Question", Description: "How do refunds work?", Category: "general", Priority: "low", Status: "closed"},
	}
	for _, in := range inputs {
		if _, err := svc.CreateTicket(ctx, in); err != nil {
			t.Fatalf("CreateTicket failed: %v", err)
		}
	}

	all, err := svc.ListTickets(ctx, domain.TicketQuery{})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected all tickets, got %d (%v)", len(all), err)
	}
	refunds, _ := svc.ListTickets(ctx, domain.TicketQuery{Search: "REFUND"})
	if len(refunds) != 2 {
		t.Fatalf("expected two refund tickets, got %d", len(refunds))
	}
	openRefunds, _ := svc.ListTickets(ctx, domain.TicketQuery{Search: "refund", Status: domain.TicketStatusOpen})
	if len(openRefunds) != 1 || openRefunds[0].Title != "Charged twice" {
		t.Fatalf("unexpected open refunds %+v", openRefunds)
	}
}
