package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// StatusHistoryRepository stores the append-only transition audit trail.
type StatusHistoryRepository interface {
	Create(ctx context.Context, entry *domain.StatusHistory) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.StatusHistory, error)
	WithTx(tx *sql.Tx) StatusHistoryRepository
}

type statusHistoryRepository struct {
	db DBTX
}

// NewStatusHistoryRepository builds the repository.
func NewStatusHistoryRepository(db DBTX) StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

func (r *statusHistoryRepository) WithTx(tx *sql.Tx) StatusHistoryRepository {
	return &statusHistoryRepository{db: tx}
}

func (r *statusHistoryRepository) Create(ctx context.Context, entry *domain.StatusHistory) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO status_history (ticket_id, user_id, old_status, new_status, comment, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		entry.TicketID,
		entry.UserID,
		entry.OldStatus,
		entry.NewStatus,
		entry.Note,
		now,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	entry.CreatedAt = now
	return nil
}

func (r *statusHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.StatusHistory, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT h.id, h.ticket_id, h.user_id, u.name, h.old_status, h.new_status, h.comment, h.created_at
        FROM status_history h
        LEFT JOIN users u ON u.id = h.user_id
        WHERE h.ticket_id = ?
        ORDER BY h.created_at DESC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistory
	for rows.Next() {
		var entry domain.StatusHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.UserID,
			&entry.UserName,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
