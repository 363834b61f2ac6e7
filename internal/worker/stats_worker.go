package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/service"
)

const statsReportTimeout = 30 * time.Second

// StatsReporter periodically logs the ticket summary.
type StatsReporter struct {
	stats  *service.StatsService
	logger *zap.Logger
	cron   *cron.Cron
}

// NewStatsReporter schedules reports on the five-field cron expression
// schedule. An empty schedule returns a nil reporter.
func NewStatsReporter(schedule string, stats *service.StatsService, logger *zap.Logger) (*StatsReporter, error) {
	if schedule == "" {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &StatsReporter{stats: stats, logger: logger, cron: cron.New()}
	if _, err := r.cron.AddFunc(schedule, func() { r.Report(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid stats report schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start runs the scheduler in its own goroutine.
func (r *StatsReporter) Start() {
	if r == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("stats reporter started", zap.Int("jobs", len(r.cron.Entries())))
}

// Stop halts scheduling and waits for a running report to finish.
func (r *StatsReporter) Stop() {
	if r == nil {
		return
	}
	<-r.cron.Stop().Done()
}

// Report computes the summary once and logs it.
func (r *StatsReporter) Report(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, statsReportTimeout)
	defer cancel()

	stats, err := r.stats.Compute(ctx)
	if err != nil {
		r.logger.Error("stats report failed", zap.Error(err))
		return
	}
	r.logger.Info("ticket stats",
		zap.Int64("total_tickets", stats.TotalTickets),
		zap.Int64("open_tickets", stats.OpenTickets),
		zap.Float64("avg_tickets_per_day", stats.AvgTicketsPerDay),
		zap.Any("priority_breakdown", stats.PriorityBreakdown),
		zap.Any("category_breakdown", stats.CategoryBreakdown))
}
