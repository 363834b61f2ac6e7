package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type memoryTicketRepository struct {
	mu      sync.RWMutex
	now     func() time.Time
	tickets []domain.Ticket
	index   map[string]int
}

// NewMemoryTicketRepository returns a process-local store.
func NewMemoryTicketRepository() TicketRepository {
	return NewMemoryTicketRepositoryWithClock(time.Now)
}

// NewMemoryTicketRepositoryWithClock returns a process-local store that stamps
// CreatedAt using now.
func NewMemoryTicketRepositoryWithClock(now func() time.Time) TicketRepository {
	return &memoryTicketRepository{
		now:   now,
		index: make(map[string]int),
	}
}

func (r *memoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.CreatedAt = r.now().UTC()
	r.index[ticket.ID] = len(r.tickets)
	r.tickets = append(r.tickets, *ticket)
	return nil
}

func (r *memoryTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.index[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	stored := &r.tickets[idx]
	stored.Title = ticket.Title
	stored.Description = ticket.Description
	stored.Category = ticket.Category
	stored.Priority = ticket.Priority
	stored.Status = ticket.Status
	ticket.CreatedAt = stored.CreatedAt
	return nil
}

func (r *memoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	ticket := r.tickets[idx]
	return &ticket, nil
}

func (r *memoryTicketRepository) List(_ context.Context, query domain.TicketQuery) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Ticket, 0, len(r.tickets))
	for i := len(r.tickets) - 1; i >= 0; i-- {
		if query.Matches(r.tickets[i]) {
			result = append(result, r.tickets[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memoryTicketRepository) Count(_ context.Context, query domain.TicketQuery) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, ticket := range r.tickets {
		if query.Matches(ticket) {
			count++
		}
	}
	return count, nil
}

func (r *memoryTicketRepository) CountBy(_ context.Context, field GroupField) (map[string]int64, error) {
	if _, err := field.column(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, ticket := range r.tickets {
		switch field {
		case GroupByCategory:
			counts[string(ticket.Category)]++
		case GroupByPriority:
			counts[string(ticket.Priority)]++
		case GroupByStatus:
			counts[string(ticket.Status)]++
		}
	}
	return counts, nil
}

func (r *memoryTicketRepository) OldestCreatedAt(_ context.Context) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var oldest *time.Time
	for i := range r.tickets {
		created := r.tickets[i].CreatedAt
		if oldest == nil || created.Before(*oldest) {
			oldest = &created
		}
	}
	return oldest, nil
}

func (r *memoryTicketRepository) Ping(context.Context) error {
	return nil
}
