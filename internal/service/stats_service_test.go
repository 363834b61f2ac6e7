package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

func TestAverageTicketsPerDay(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		total  int64
		oldest time.Time
		want   float64
	}{
		{name: "empty", total: 0, oldest: now, want: 0},
		{name: "within a day uses floor of one", total: 3, oldest: now.Add(-2 * time.Hour), want: 3},
		{name: "just under two days", total: 3, oldest: now.Add(-47 * time.Hour), want: 3},
		{name: "whole days", total: 10, oldest: now.Add(-5 * 24 * time.Hour), want: 2},
		{name: "rounds to one decimal", total: 7, oldest: now.Add(-3 * 24 * time.Hour), want: 2.3},
		{name: "tie rounds away from zero", total: 1, oldest: now.Add(-4 * 24 * time.Hour), want: 0.3},
		{name: "future oldest clamps", total: 2, oldest: now.Add(time.Hour), want: 2},
	}
	for _, tt := range tests {
		if got := AverageTicketsPerDay(tt.total, tt.oldest, now); got != tt.want {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStatsEmptyStore(t *testing.T) {
	svc := NewStatsService(StatsDependencies{TicketRepo: repository.NewMemoryTicketRepository()})
	stats, err := svc.Compute(context.Background())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if stats.TotalTickets != 0 || stats.OpenTickets != 0 || stats.AvgTicketsPerDay != 0 {
		t.Fatalf("expected zeros, got %+v", stats)
	}
	if len(stats.PriorityBreakdown) != 4 || len(stats.CategoryBreakdown) != 4 {
		t.Fatalf("expected all four keys, got %v / %v", stats.PriorityBreakdown, stats.CategoryBreakdown)
	}
	for _, p := range domain.TicketPriorities {
		if count, ok := stats.PriorityBreakdown[p]; !ok || count != 0 {
			t.Fatalf("priority %s: expected 0, got %d (present=%v)", p, count, ok)
		}
	}
	for _, c := range domain.TicketCategories {
		if count, ok := stats.CategoryBreakdown[c]; !ok || count != 0 {
			t.Fatalf("category %s: expected 0, got %d (present=%v)", c, count, ok)
		}
	}
}

func TestStatsOverTenTickets(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	created := now.Add(-5 * 24 * time.Hour)
	repo := repository.NewMemoryTicketRepositoryWithClock(func() time.Time { return created })

	priorities := []domain.TicketPriority{"low", "low", "medium", "high", "high", "high", "low", "medium", "high", "low"}
	categories := []domain.TicketCategory{"billing", "billing", "billing", "technical", "technical", "billing", "billing", "technical", "billing", "technical"}
	for i := 0; i < 10; i++ {
		status := domain.TicketStatusResolved
		if i < 3 {
			status = domain.TicketStatusOpen
		}
		ticket := &domain.Ticket{
			ID:          uuid.NewString(),
			Title:       "ticket",
			Description: "desc",
			Category:    categories[i],
			Priority:    priorities[i],
			Status:      status,
		}
		if err := repo.Create(context.Background(), ticket); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		created = created.Add(11 * time.Hour)
	}

	svc := NewStatsService(StatsDependencies{TicketRepo: repo, Clock: func() time.Time { return now }})
	stats, err := svc.Compute(context.Background())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if stats.TotalTickets != 10 || stats.OpenTickets != 3 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if stats.AvgTicketsPerDay != 2 {
		t.Fatalf("expected 2.0 per day, got %v", stats.AvgTicketsPerDay)
	}

	var prioritySum, categorySum int64
	for _, count := range stats.PriorityBreakdown {
		prioritySum += count
	}
	for _, count := range stats.CategoryBreakdown {
		categorySum += count
	}
	if prioritySum != 10 || categorySum != 10 {
		t.Fatalf("breakdowns must sum to 10, got %d and %d", prioritySum, categorySum)
	}
	if stats.PriorityBreakdown[domain.TicketPriorityCritical] != 0 || stats.CategoryBreakdown[domain.TicketCategoryAccount] != 0 {
		t.Fatalf("absent keys must be zero-filled: %v %v", stats.PriorityBreakdown, stats.CategoryBreakdown)
	}
	if stats.PriorityBreakdown[domain.TicketPriorityLow] != 4 || stats.CategoryBreakdown[domain.TicketCategoryBilling] != 6 {
		t.Fatalf("unexpected breakdowns %v %v", stats.PriorityBreakdown, stats.CategoryBreakdown)
	}
}

func TestStatsSoleRecentTicket(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	repo := repository.NewMemoryTicketRepositoryWithClock(func() time.Time { return now.Add(-30 * time.Minute) })
	ticket := &domain.Ticket{ID: uuid.NewString(), Title: "t", Description: "d", Category: "general", Priority: "medium", Status: "open"}
	if err := repo.Create(context.Background(), ticket); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	svc := NewStatsService(StatsDependencies{TicketRepo: repo, Clock: func() time.Time { return now }})
	stats, err := svc.Compute(context.Background())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if stats.AvgTicketsPerDay != 1 {
		t.Fatalf("expected 1.0 with one-day floor, got %v", stats.AvgTicketsPerDay)
	}
}

func TestMergeBreakdownDropsUnknownKeys(t *testing.T) {
	svc := NewStatsService(StatsDependencies{})
	got := mergeBreakdown(domain.TicketCategories, map[string]int64{"billing": 2, "legacy": 5}, svc.logger)
	if len(got) != 4 || got[domain.TicketCategoryBilling] != 2 || got[domain.TicketCategoryGeneral] != 0 {
		t.Fatalf("unexpected merge %v", got)
	}
}

type failingRepo struct {
	repository.TicketRepository
}

func (failingRepo) Count(context.Context, domain.TicketQuery) (int64, error) {
	return 0, errors.New("db down")
}

func TestStatsPropagatesStoreErrors(t *testing.T) {
	svc := NewStatsService(StatsDependencies{TicketRepo: failingRepo{}})
	if _, err := svc.Compute(context.Background()); err == nil {
		t.Fatalf("expected store error")
	}
}
