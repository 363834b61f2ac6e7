package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ErrNotFound is returned when a ticket id has no record.
var ErrNotFound = fmt.Errorf("ticket %w", errorutil.ErrNotFound)

// GroupField names a ticket column that supports grouped counts.
type GroupField string

const (
	GroupByCategory GroupField = "category"
	GroupByPriority GroupField = "priority"
	GroupByStatus   GroupField = "status"
)

func (f GroupField) column() (string, error) {
	switch f {
	case GroupByCategory, GroupByPriority, GroupByStatus:
		return string(f), nil
	default:
		return "", fmt.Errorf("unsupported group field %q", f)
	}
}

// TicketRepository encapsulates ticket persistence. Create assigns CreatedAt.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, query domain.TicketQuery) ([]domain.Ticket, error)
	Count(ctx context.Context, query domain.TicketQuery) (int64, error)
	// CountBy returns counts only for values that are present.
	CountBy(ctx context.Context, field GroupField) (map[string]int64, error)
	// OldestCreatedAt returns nil when there are no tickets.
	OldestCreatedAt(ctx context.Context) (*time.Time, error)
	Ping(ctx context.Context) error
}

// placeholderFunc renders the n-th (1-based) bind parameter for a SQL dialect.
type placeholderFunc func(n int) string

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func questionPlaceholder(int) string { return "?" }

// buildTicketWhere translates a TicketQuery into a WHERE clause shared by the SQL stores.
func buildTicketWhere(query domain.TicketQuery, placeholder placeholderFunc) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if query.Category != "" {
		args = append(args, string(query.Category))
		clauses = append(clauses, "category="+placeholder(len(args)))
	}
	if query.Priority != "" {
		args = append(args, string(query.Priority))
		clauses = append(clauses, "priority="+placeholder(len(args)))
	}
	if query.Status != "" {
		args = append(args, string(query.Status))
		clauses = append(clauses, "status="+placeholder(len(args)))
	}
	if query.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(query.Search)) + "%"
		args = append(args, pattern)
		titleArg := placeholder(len(args))
		args = append(args, pattern)
		descArg := placeholder(len(args))
		clauses = append(clauses, fmt.Sprintf(`(LOWER(title) LIKE %s ESCAPE '\' OR LOWER(description) LIKE %s ESCAPE '\')`, titleArg, descArg))
	}

	return strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
