package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Stats summarises the whole ticket set. Breakdowns always carry every enum key.
type Stats struct {
	TotalTickets      int64
	OpenTickets       int64
	AvgTicketsPerDay  float64
	PriorityBreakdown map[domain.TicketPriority]int64
	CategoryBreakdown map[domain.TicketCategory]int64
}

// StatsService aggregates ticket metrics. The individual reads are not taken
// from one snapshot, so results may be slightly stale under concurrent writes.
type StatsService struct {
	tickets repository.TicketRepository
	now     func() time.Time
	logger  *zap.Logger
}

// StatsDependencies bundles collaborators for the stats service.
type StatsDependencies struct {
	TicketRepo repository.TicketRepository
	Clock      func() time.Time
	Logger     *zap.Logger
}

// NewStatsService constructs the service.
func NewStatsService(deps StatsDependencies) *StatsService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{tickets: deps.TicketRepo, now: clock, logger: logger}
}

// Compute gathers counts from the store and derives the summary.
func (s *StatsService) Compute(ctx context.Context) (*Stats, error) {
	total, err := s.tickets.Count(ctx, domain.TicketQuery{})
	if err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}
	open, err := s.tickets.Count(ctx, domain.TicketQuery{Status: domain.TicketStatusOpen})
	if err != nil {
		return nil, fmt.Errorf("count open tickets: %w", err)
	}

	var avg float64
	if total > 0 {
		oldest, err := s.tickets.OldestCreatedAt(ctx)
		if err != nil {
			return nil, fmt.Errorf("oldest ticket: %w", err)
		}
		if oldest != nil {
			avg = AverageTicketsPerDay(total, *oldest, s.now())
		}
	}

	rawPriorities, err := s.tickets.CountBy(ctx, repository.GroupByPriority)
	if err != nil {
		return nil, fmt.Errorf("count by priority: %w", err)
	}
	rawCategories, err := s.tickets.CountBy(ctx, repository.GroupByCategory)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}

	return &Stats{
		TotalTickets:      total,
		OpenTickets:       open,
		AvgTicketsPerDay:  avg,
		PriorityBreakdown: mergeBreakdown(domain.TicketPriorities, rawPriorities, s.logger),
		CategoryBreakdown: mergeBreakdown(domain.TicketCategories, rawCategories, s.logger),
	}, nil
}

// AverageTicketsPerDay divides total by the whole days since oldest (at least
// one) and rounds half away from zero to one decimal place.
func AverageTicketsPerDay(total int64, oldest, now time.Time) float64 {
	if total <= 0 {
		return 0
	}
	days := int64(math.Floor(now.Sub(oldest).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return math.Round(float64(total)/float64(days)*10) / 10
}

// mergeBreakdown overlays sparse grouped counts onto a zero-filled map keyed by
// every enum value. Keys outside the enum are dropped.
func mergeBreakdown[K ~string](keys []K, raw map[string]int64, logger *zap.Logger) map[K]int64 {
	out := make(map[K]int64, len(keys))
	for _, key := range keys {
		out[key] = 0
	}
	for key, count := range raw {
		if _, ok := out[K(key)]; !ok {
			logger.Debug("dropping unknown breakdown key", zap.String("key", key), zap.Int64("count", count))
			continue
		}
		out[K(key)] = count
	}
	return out
}
