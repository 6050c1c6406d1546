package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures dashboard search parameters. ScopeAssignee, when set,
// restricts results to a single assignee regardless of the other filters.
type TicketFilter struct {
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	Category      *string
	AssignedTo    *int64
	Search        *string
	ScopeAssignee *int64
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Track(ctx context.Context, numberFragment, email string, limit int) ([]domain.Ticket, error)
	Delete(ctx context.Context, id int64) error
	CountActiveByAssignee(ctx context.Context, userID int64) (int, error)
	WithTx(tx *sql.Tx) TicketRepository
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) WithTx(tx *sql.Tx) TicketRepository {
	return &ticketRepository{db: tx}
}

const ticketSelect = `
        SELECT t.id, t.ticket_number, t.requester_name, t.requester_email, t.requester_phone,
               t.department, t.category, t.priority, t.subject, t.description, t.status,
               t.assigned_to, u.name, t.attachment, t.created_at, t.updated_at, t.resolved_at
        FROM tickets t
        LEFT JOIN users u ON u.id = t.assigned_to`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO tickets (ticket_number, requester_name, requester_email, requester_phone,
                             department, category, priority, subject, description, status,
                             assigned_to, attachment, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ticket.TicketNumber,
		ticket.RequesterName,
		ticket.RequesterEmail,
		ticket.RequesterPhone,
		ticket.Department,
		ticket.Category,
		ticket.Priority,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.AssignedTo,
		ticket.Attachment,
		now,
		now,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ticket.ID = id
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
        UPDATE tickets SET status=?, priority=?, assigned_to=?, resolved_at=?, updated_at=?
        WHERE id=?`,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.ResolvedAt,
		now,
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
		return sql.ErrNoRows
	}
	ticket.UpdatedAt = now
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx, ticketSelect+` WHERE t.id=?`, id)
	return scanTicketRow(row)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ScopeAssignee != nil {
		clauses = append(clauses, "t.assigned_to = ?")
		args = append(args, *filter.ScopeAssignee)
	}
	if filter.Status != nil {
		clauses = append(clauses, "t.status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		clauses = append(clauses, "t.priority = ?")
		args = append(args, *filter.Priority)
	}
	if filter.Category != nil {
		clauses = append(clauses, "t.category = ?")
		args = append(args, *filter.Category)
	}
	if filter.AssignedTo != nil {
		clauses = append(clauses, "t.assigned_to = ?")
		args = append(args, *filter.AssignedTo)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		clauses = append(clauses, `(LOWER(t.ticket_number) LIKE ? OR LOWER(t.subject) LIKE ?
            OR LOWER(t.requester_name) LIKE ? OR LOWER(t.requester_phone) LIKE ?
            OR LOWER(t.department) LIKE ? OR LOWER(t.requester_email) LIKE ?)`)
		for i := 0; i < 6; i++ {
			args = append(args, term)
		}
	}

	query := ticketSelect + ` WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Track(ctx context.Context, numberFragment, email string, limit int) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if numberFragment != "" {
		clauses = append(clauses, "t.ticket_number LIKE ?")
		args = append(args, "%"+numberFragment+"%")
	}
	if email != "" {
		clauses = append(clauses, "LOWER(t.requester_email) = LOWER(?)")
		args = append(args, email)
	}
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)

	query := ticketSelect + ` WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY t.created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id=?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountActiveByAssignee(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM tickets
        WHERE assigned_to = ? AND status NOT IN ('resolved', 'closed')`, userID).Scan(&count)
	return count, err
}

func scanTicketRow(row *sql.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.RequesterName,
		&ticket.RequesterEmail,
		&ticket.RequesterPhone,
		&ticket.Department,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.AssignedTo,
		&ticket.AssignedName,
		&ticket.Attachment,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows *sql.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.TicketNumber,
			&ticket.RequesterName,
			&ticket.RequesterEmail,
			&ticket.RequesterPhone,
			&ticket.Department,
			&ticket.Category,
			&ticket.Priority,
			&ticket.Subject,
			&ticket.Description,
			&ticket.Status,
			&ticket.AssignedTo,
			&ticket.AssignedName,
			&ticket.Attachment,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
