package dto

import (
	"strconv"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload. Status is optional.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

// UpdateTicketRequest is a partial update; absent or null fields are untouched.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

// TicketResponse is the public ticket representation.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
}

// StatsResponse mirrors service.Stats.
type StatsResponse struct {
	TotalTickets      int64                           `json:"total_tickets"`
	OpenTickets       int64                           `json:"open_tickets"`
	AvgTicketsPerDay  OneDecimal                      `json:"avg_tickets_per_day"`
	PriorityBreakdown map[domain.TicketPriority]int64 `json:"priority_breakdown"`
	CategoryBreakdown map[domain.TicketCategory]int64 `json:"category_breakdown"`
}

// OneDecimal renders with exactly one fractional digit, so 2 encodes as 2.0.
type OneDecimal float64

func (d OneDecimal) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(d), 'f', 1, 64), nil
}

// ClassifyRequest payload.
type ClassifyRequest struct {
	Description string `json:"description"`
}

// ClassifyResponse carries a suggestion only; it is never persisted.
type ClassifyResponse struct {
	SuggestedCategory domain.TicketCategory `json:"suggested_category"`
	SuggestedPriority domain.TicketPriority `json:"suggested_priority"`
}
