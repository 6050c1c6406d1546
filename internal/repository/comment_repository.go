package repository

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CommentRepository stores immutable ticket comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID int64, includeInternal bool) ([]domain.Comment, error)
}

type commentRepository struct {
	db DBTX
}

// NewCommentRepository builds the repository.
func NewCommentRepository(db DBTX) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO comments (ticket_id, user_id, comment, is_internal, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		comment.TicketID,
		comment.UserID,
		comment.Body,
		comment.IsInternal,
		now,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	comment.ID = id
	comment.CreatedAt = now
	return nil
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID int64, includeInternal bool) ([]domain.Comment, error) {
	query := `
        SELECT c.id, c.ticket_id, c.user_id, u.name, c.comment, c.is_internal, c.created_at
        FROM comments c
        LEFT JOIN users u ON u.id = c.user_id
        WHERE c.ticket_id = ?`
	if !includeInternal {
		query += ` AND c.is_internal = 0`
	}
	query += ` ORDER BY c.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.UserID,
			&comment.UserName,
			&comment.Body,
			&comment.IsInternal,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
