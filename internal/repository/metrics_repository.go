package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CategoryCount is a grouped row for category breakdowns.
type CategoryCount struct {
	Category string
	Count    int
}

// TechnicianRollup aggregates ticket counts for one technician.
type TechnicianRollup struct {
	UserID     int64
	Name       string
	Total      int
	Resolved   int
	InProgress int
	Open       int
}

// TimelinePoint is a per-day created/resolved pair.
type TimelinePoint struct {
	Date     string
	Created  int
	Resolved int
}

// BucketCount is a response-time histogram row.
type BucketCount struct {
	Bucket string
	Count  int
}

// SLAComplianceRow reports per-priority resolution within budget.
type SLAComplianceRow struct {
	Priority  domain.TicketPriority
	Total     int
	WithinSLA int
}

// ExportFilter bounds the historical export queries. All fields are optional
// and AND-combined.
type ExportFilter struct {
	StartDate  *string
	EndDate    *string
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Category   *string
	Technician *int64
	Department *string
	Limit      int
}

// ExportRow is one exported ticket with its derived resolution time.
type ExportRow struct {
	Ticket         domain.Ticket
	HoursToResolve *float64
}

// HistoryStats summarizes the filtered export window.
type HistoryStats struct {
	Total              int
	Open               int
	InProgress         int
	Resolved           int
	Closed             int
	AvgResolutionHours float64
}

// MetricsRepository runs the read-only reporting aggregations. It never
// mutates the store.
type MetricsRepository interface {
	StatusCounts(ctx context.Context) (map[domain.TicketStatus]int, error)
	PriorityCounts(ctx context.Context) (map[domain.TicketPriority]int, error)
	CategoryCounts(ctx context.Context, limit int) ([]CategoryCount, error)
	CountCreatedToday(ctx context.Context) (int, error)
	CountResolvedToday(ctx context.Context) (int, error)
	AvgResolutionHours(ctx context.Context, technician *int64) (float64, error)
	TechnicianRollups(ctx context.Context) ([]TechnicianRollup, error)
	Timeline(ctx context.Context, days int) ([]TimelinePoint, error)
	ResponseHistogram(ctx context.Context) ([]BucketCount, error)
	SLACompliance(ctx context.Context, budgets domain.SLABudgets) ([]SLAComplianceRow, error)
	StatusCountsByAssignee(ctx context.Context, userID int64) (map[domain.TicketStatus]int, error)
	PriorityCountsByAssignee(ctx context.Context, userID int64) (map[domain.TicketPriority]int, error)
	CountAssignedSince(ctx context.Context, userID int64, since time.Time) (int, error)
	CountResolvedSince(ctx context.Context, userID int64, since time.Time) (int, error)
	RecentByAssignee(ctx context.Context, userID int64, limit int) ([]domain.Ticket, error)
	Export(ctx context.Context, filter ExportFilter) ([]ExportRow, error)
	ExportStats(ctx context.Context, filter ExportFilter) (*HistoryStats, error)
}

type metricsRepository struct {
	db DBTX
}

// NewMetricsRepository builds the repository.
func NewMetricsRepository(db DBTX) MetricsRepository {
	return &metricsRepository{db: db}
}

func (r *metricsRepository) StatusCounts(ctx context.Context) (map[domain.TicketStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *metricsRepository) PriorityCounts(ctx context.Context) (map[domain.TicketPriority]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT priority, COUNT(*) FROM tickets GROUP BY priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketPriority]int)
	for rows.Next() {
		var priority domain.TicketPriority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		counts[priority] = count
	}
	return counts, rows.Err()
}

func (r *metricsRepository) CategoryCounts(ctx context.Context, limit int) ([]CategoryCount, error) {
	query := `SELECT category, COUNT(*) FROM tickets GROUP BY category ORDER BY COUNT(*) DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryCount
	for rows.Next() {
		var row CategoryCount
		if err := rows.Scan(&row.Category, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *metricsRepository) CountCreatedToday(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE DATE(created_at) = DATE('now')`).Scan(&count)
	return count, err
}

func (r *metricsRepository) CountResolvedToday(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE DATE(resolved_at) = DATE('now')`).Scan(&count)
	return count, err
}

func (r *metricsRepository) AvgResolutionHours(ctx context.Context, technician *int64) (float64, error) {
	query := `
        SELECT COALESCE(AVG((julianday(resolved_at) - julianday(created_at)) * 24), 0)
        FROM tickets WHERE resolved_at IS NOT NULL`
	args := []any{}
	if technician != nil {
		query += ` AND assigned_to = ?`
		args = append(args, *technician)
	}
	var avg float64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&avg)
	return avg, err
}

func (r *metricsRepository) TechnicianRollups(ctx context.Context) ([]TechnicianRollup, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT u.id, u.name,
               COUNT(t.id),
               SUM(CASE WHEN t.status = 'resolved' THEN 1 ELSE 0 END),
               SUM(CASE WHEN t.status = 'in_progress' THEN 1 ELSE 0 END),
               SUM(CASE WHEN t.status = 'open' THEN 1 ELSE 0 END)
        FROM users u
        LEFT JOIN tickets t ON u.id = t.assigned_to
        WHERE u.active = 1
        GROUP BY u.id, u.name
        ORDER BY COUNT(t.id) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TechnicianRollup
	for rows.Next() {
		var row TechnicianRollup
		if err := rows.Scan(&row.UserID, &row.Name, &row.Total, &row.Resolved, &row.InProgress, &row.Open); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *metricsRepository) Timeline(ctx context.Context, days int) ([]TimelinePoint, error) {
	if days <= 0 {
		days = 7
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT DATE(created_at),
               COUNT(*),
               SUM(CASE WHEN status = 'resolved' THEN 1 ELSE 0 END)
        FROM tickets
        WHERE created_at >= DATE('now', ?)
        GROUP BY DATE(created_at)
        ORDER BY DATE(created_at) ASC`, "-"+strconv.Itoa(days)+" days")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TimelinePoint
	for rows.Next() {
		var point TimelinePoint
		if err := rows.Scan(&point.Date, &point.Created, &point.Resolved); err != nil {
			return nil, err
		}
		result = append(result, point)
	}
	return result, rows.Err()
}

func (r *metricsRepository) ResponseHistogram(ctx context.Context) ([]BucketCount, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT CASE
                 WHEN (julianday(updated_at) - julianday(created_at)) * 24 <= 2 THEN '0-2h'
                 WHEN (julianday(updated_at) - julianday(created_at)) * 24 <= 4 THEN '2-4h'
                 WHEN (julianday(updated_at) - julianday(created_at)) * 24 <= 8 THEN '4-8h'
                 WHEN (julianday(updated_at) - julianday(created_at)) * 24 <= 24 THEN '8-24h'
                 ELSE '24h+'
               END AS time_range,
               COUNT(*)
        FROM tickets
        WHERE status != 'open'
        GROUP BY time_range`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BucketCount
	for rows.Next() {
		var row BucketCount
		if err := rows.Scan(&row.Bucket, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *metricsRepository) SLACompliance(ctx context.Context, budgets domain.SLABudgets) ([]SLAComplianceRow, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT priority,
               COUNT(*),
               SUM(CASE
                 WHEN priority = 'urgent' AND (julianday(resolved_at) - julianday(created_at)) * 24 <= ? THEN 1
                 WHEN priority = 'high' AND (julianday(resolved_at) - julianday(created_at)) * 24 <= ? THEN 1
                 WHEN priority = 'medium' AND (julianday(resolved_at) - julianday(created_at)) * 24 <= ? THEN 1
                 WHEN priority = 'low' AND (julianday(resolved_at) - julianday(created_at)) * 24 <= ? THEN 1
                 ELSE 0
               END)
        FROM tickets
        WHERE resolved_at IS NOT NULL
        GROUP BY priority`,
		budgets[domain.TicketPriorityUrgent].Hours(),
		budgets[domain.TicketPriorityHigh].Hours(),
		budgets[domain.TicketPriorityMedium].Hours(),
		budgets[domain.TicketPriorityLow].Hours(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SLAComplianceRow
	for rows.Next() {
		var row SLAComplianceRow
		if err := rows.Scan(&row.Priority, &row.Total, &row.WithinSLA); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *metricsRepository) StatusCountsByAssignee(ctx context.Context, userID int64) (map[domain.TicketStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tickets WHERE assigned_to = ? GROUP BY status`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *metricsRepository) PriorityCountsByAssignee(ctx context.Context, userID int64) (map[domain.TicketPriority]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT priority, COUNT(*) FROM tickets WHERE assigned_to = ? GROUP BY priority`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketPriority]int)
	for rows.Next() {
		var priority domain.TicketPriority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		counts[priority] = count
	}
	return counts, rows.Err()
}

func (r *metricsRepository) CountAssignedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE assigned_to = ? AND created_at >= ?`,
		userID, since).Scan(&count)
	return count, err
}

func (r *metricsRepository) CountResolvedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE assigned_to = ? AND resolved_at >= ?`,
		userID, since).Scan(&count)
	return count, err
}

func (r *metricsRepository) RecentByAssignee(ctx context.Context, userID int64, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, ticketSelect+`
        WHERE t.assigned_to = ? ORDER BY t.created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *metricsRepository) Export(ctx context.Context, filter ExportFilter) ([]ExportRow, error) {
	clauses, args := exportClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit)

	query := `
        SELECT t.id, t.ticket_number, t.requester_name, t.requester_email, t.requester_phone,
               t.department, t.category, t.priority, t.subject, t.description, t.status,
               t.assigned_to, u.name, t.attachment, t.created_at, t.updated_at, t.resolved_at,
               CASE WHEN t.resolved_at IS NOT NULL
                    THEN ROUND((julianday(t.resolved_at) - julianday(t.created_at)) * 24, 2)
                    ELSE NULL
               END
        FROM tickets t
        LEFT JOIN users u ON t.assigned_to = u.id
        WHERE ` + strings.Join(clauses, " AND ") + `
        ORDER BY t.created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(
			&row.Ticket.ID,
			&row.Ticket.TicketNumber,
			&row.Ticket.RequesterName,
			&row.Ticket.RequesterEmail,
			&row.Ticket.RequesterPhone,
			&row.Ticket.Department,
			&row.Ticket.Category,
			&row.Ticket.Priority,
			&row.Ticket.Subject,
			&row.Ticket.Description,
			&row.Ticket.Status,
			&row.Ticket.AssignedTo,
			&row.Ticket.AssignedName,
			&row.Ticket.Attachment,
			&row.Ticket.CreatedAt,
			&row.Ticket.UpdatedAt,
			&row.Ticket.ResolvedAt,
			&row.HoursToResolve,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *metricsRepository) ExportStats(ctx context.Context, filter ExportFilter) (*HistoryStats, error) {
	clauses, args := exportClauses(filter)

	query := `
        SELECT COUNT(*),
               SUM(CASE WHEN t.status = 'open' THEN 1 ELSE 0 END),
               SUM(CASE WHEN t.status = 'in_progress' THEN 1 ELSE 0 END),
               SUM(CASE WHEN t.status = 'resolved' THEN 1 ELSE 0 END),
               SUM(CASE WHEN t.status = 'closed' THEN 1 ELSE 0 END),
               COALESCE(AVG(CASE WHEN t.resolved_at IS NOT NULL
                   THEN (julianday(t.resolved_at) - julianday(t.created_at)) * 24
                   ELSE NULL END), 0)
        FROM tickets t
        WHERE ` + strings.Join(clauses, " AND ")

	var stats HistoryStats
	var open, inProgress, resolved, closed *int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.Total, &open, &inProgress, &resolved, &closed, &stats.AvgResolutionHours,
	); err != nil {
		return nil, err
	}
	stats.Open = intOrZero(open)
	stats.InProgress = intOrZero(inProgress)
	stats.Resolved = intOrZero(resolved)
	stats.Closed = intOrZero(closed)
	return &stats, nil
}

func exportClauses(filter ExportFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StartDate != nil {
		clauses = append(clauses, "DATE(t.created_at) >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		clauses = append(clauses, "DATE(t.created_at) <= ?")
		args = append(args, *filter.EndDate)
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
	if filter.Technician != nil {
		clauses = append(clauses, "t.assigned_to = ?")
		args = append(args, *filter.Technician)
	}
	if filter.Department != nil {
		clauses = append(clauses, "t.department LIKE ?")
		args = append(args, "%"+*filter.Department+"%")
	}
	return clauses, args
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

