package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TemplateRepository manages canned reply templates.
type TemplateRepository interface {
	Create(ctx context.Context, tpl *domain.ResponseTemplate) error
	Update(ctx context.Context, tpl *domain.ResponseTemplate) error
	GetByID(ctx context.Context, id int64) (*domain.ResponseTemplate, error)
	List(ctx context.Context, category *string) ([]domain.ResponseTemplate, error)
	Delete(ctx context.Context, id int64) error
}

type templateRepository struct {
	db DBTX
}

// NewTemplateRepository builds the repository.
func NewTemplateRepository(db DBTX) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, tpl *domain.ResponseTemplate) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO response_templates (title, category, content, created_by, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		tpl.Title, tpl.Category, tpl.Content, tpl.CreatedBy, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tpl.ID = id
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	return nil
}

func (r *templateRepository) Update(ctx context.Context, tpl *domain.ResponseTemplate) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
        UPDATE response_templates SET title=?, category=?, content=?, updated_at=?
        WHERE id=?`,
		tpl.Title, tpl.Category, tpl.Content, now, tpl.ID)
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
	tpl.UpdatedAt = now
	return nil
}

func (r *templateRepository) GetByID(ctx context.Context, id int64) (*domain.ResponseTemplate, error) {
	var tpl domain.ResponseTemplate
	if err := r.db.QueryRowContext(ctx, `
        SELECT id, title, category, content, created_by, created_at, updated_at
        FROM response_templates WHERE id=?`, id).Scan(
		&tpl.ID,
		&tpl.Title,
		&tpl.Category,
		&tpl.Content,
		&tpl.CreatedBy,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) List(ctx context.Context, category *string) ([]domain.ResponseTemplate, error) {
	query := `
        SELECT id, title, category, content, created_by, created_at, updated_at
        FROM response_templates WHERE 1=1`
	args := []any{}
	if category != nil {
		query += ` AND category = ?`
		args = append(args, *category)
	}
	query += ` ORDER BY category, title`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ResponseTemplate
	for rows.Next() {
		var tpl domain.ResponseTemplate
		if err := rows.Scan(
			&tpl.ID,
			&tpl.Title,
			&tpl.Category,
			&tpl.Content,
			&tpl.CreatedBy,
			&tpl.CreatedAt,
			&tpl.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tpl)
	}
	return result, rows.Err()
}

func (r *templateRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM response_templates WHERE id=?`, id)
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
