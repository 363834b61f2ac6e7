package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// sqliteTicketRepository stores created_at as unix nanoseconds so ordering is numeric.
type sqliteTicketRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteTicketRepository instantiates the sqlite-backed store.
func NewSQLiteTicketRepository(db *sql.DB) TicketRepository {
	return &sqliteTicketRepository{db: db, now: time.Now}
}

func (r *sqliteTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, description, category, priority, status, created_at)
        VALUES (?,?,?,?,?,?,?)`
	createdAt := r.now().UTC()
	if _, err := r.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		string(ticket.Category),
		string(ticket.Priority),
		string(ticket.Status),
		createdAt.UnixNano(),
	); err != nil {
		return err
	}
	ticket.CreatedAt = createdAt
	return nil
}

func (r *sqliteTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=?, description=?, category=?, priority=?, status=?
        WHERE id=?`
	res, err := r.db.ExecContext(ctx, query,
		ticket.Title,
		ticket.Description,
		string(ticket.Category),
		string(ticket.Priority),
		string(ticket.Status),
		ticket.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	stored, err := r.GetByID(ctx, ticket.ID)
	if err != nil {
		return err
	}
	ticket.CreatedAt = stored.CreatedAt
	return nil
}

func (r *sqliteTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=?`, id)
	ticket, err := scanSQLiteTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *sqliteTicketRepository) List(ctx context.Context, query domain.TicketQuery) ([]domain.Ticket, error) {
	where, args := buildTicketWhere(query, questionPlaceholder)
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, rowid DESC`, ticketColumns, where),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanSQLiteTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *sqliteTicketRepository) Count(ctx context.Context, query domain.TicketQuery) (int64, error) {
	where, args := buildTicketWhere(query, questionPlaceholder)
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&count)
	return count, err
}

func (r *sqliteTicketRepository) CountBy(ctx context.Context, field GroupField) (map[string]int64, error) {
	column, err := field.column()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM tickets GROUP BY %s`, column, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

func (r *sqliteTicketRepository) OldestCreatedAt(ctx context.Context) (*time.Time, error) {
	var nanos int64
	err := r.db.QueryRowContext(ctx, `SELECT created_at FROM tickets ORDER BY created_at ASC LIMIT 1`).Scan(&nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	oldest := time.Unix(0, nanos).UTC()
	return &oldest, nil
}

func (r *sqliteTicketRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket    domain.Ticket
		category  string
		priority  string
		status    string
		createdAt int64
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&category,
		&priority,
		&status,
		&createdAt,
	); err != nil {
		return nil, err
	}
	ticket.Category = domain.TicketCategory(category)
	ticket.Priority = domain.TicketPriority(priority)
	ticket.Status = domain.TicketStatus(status)
	ticket.CreatedAt = time.Unix(0, createdAt).UTC()
	return &ticket, nil
}
