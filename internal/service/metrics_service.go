package service

import (
	"context"
	"math"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// MetricsService assembles the reporting views from the read-only
// aggregation queries.
type MetricsService struct {
	metrics repository.MetricsRepository
	tickets repository.TicketRepository
	users   repository.UserRepository
	budgets domain.SLABudgets
}

// NewMetricsService builds the service.
func NewMetricsService(metrics repository.MetricsRepository, tickets repository.TicketRepository, users repository.UserRepository, budgets domain.SLABudgets) *MetricsService {
	return &MetricsService{metrics: metrics, tickets: tickets, users: users, budgets: budgets}
}

// Overview is the dashboard headline block.
type Overview struct {
	Total              int                           `json:"total"`
	ByStatus           map[domain.TicketStatus]int   `json:"by_status"`
	ByPriority         map[domain.TicketPriority]int `json:"by_priority"`
	ByCategory         []repository.CategoryCount    `json:"by_category"`
	CreatedToday       int                           `json:"created_today"`
	ResolvedToday      int                           `json:"resolved_today"`
	AvgResolutionHours float64                       `json:"avg_resolution_hours"`
	Technicians        []repository.TechnicianRollup `json:"technicians"`
}

// TechnicianDetail reports one technician's workload and throughput.
type TechnicianDetail struct {
	User               *domain.User                  `json:"user"`
	Total              int                           `json:"total"`
	ByStatus           map[domain.TicketStatus]int   `json:"by_status"`
	ByPriority         map[domain.TicketPriority]int `json:"by_priority"`
	AssignedLast30Days int                           `json:"assigned_last_30_days"`
	ResolvedLast30Days int                           `json:"resolved_last_30_days"`
	AvgResolutionHours float64                       `json:"avg_resolution_hours"`
	RecentTickets      []domain.Ticket               `json:"recent_tickets"`
}

// SLAComplianceEntry is one priority's compliance percentage.
type SLAComplianceEntry struct {
	Priority    domain.TicketPriority `json:"priority"`
	BudgetHours float64               `json:"budget_hours"`
	Total       int                   `json:"total"`
	WithinSLA   int                   `json:"within_sla"`
	Percent     float64               `json:"percent"`
}

// Performance groups the throughput views.
type Performance struct {
	ResolutionRatePercent float64                  `json:"resolution_rate_percent"`
	ResponseHistogram     []repository.BucketCount `json:"response_histogram"`
	SLACompliance         []SLAComplianceEntry     `json:"sla_compliance"`
}

// HistoryReport is the filtered export with its summary block.
type HistoryReport struct {
	Stats   *repository.HistoryStats `json:"stats"`
	Tickets []repository.ExportRow   `json:"tickets"`
}

// TVSnapshot is the public wallboard payload. It carries ticket rows but no
// aggregate beyond what the board displays.
type TVSnapshot struct {
	ByStatus   map[domain.TicketStatus]int   `json:"by_status"`
	ByPriority map[domain.TicketPriority]int `json:"by_priority"`
	ByCategory []repository.CategoryCount    `json:"by_category"`
	Recent     []domain.Ticket               `json:"recent"`
	InProgress []domain.Ticket               `json:"in_progress"`
	OpenQueue  []domain.Ticket               `json:"open_queue"`
}

// GetOverview assembles the headline dashboard block.
func (s *MetricsService) GetOverview(ctx context.Context) (*Overview, error) {
	byStatus, err := s.metrics.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.metrics.PriorityCounts(ctx)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.metrics.CategoryCounts(ctx, 0)
	if err != nil {
		return nil, err
	}
	createdToday, err := s.metrics.CountCreatedToday(ctx)
	if err != nil {
		return nil, err
	}
	resolvedToday, err := s.metrics.CountResolvedToday(ctx)
	if err != nil {
		return nil, err
	}
	avgHours, err := s.metrics.AvgResolutionHours(ctx, nil)
	if err != nil {
		return nil, err
	}
	rollups, err := s.metrics.TechnicianRollups(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range byStatus {
		total += count
	}
	return &Overview{
		Total:              total,
		ByStatus:           byStatus,
		ByPriority:         byPriority,
		ByCategory:         byCategory,
		CreatedToday:       createdToday,
		ResolvedToday:      resolvedToday,
		AvgResolutionHours: round1(avgHours),
		Technicians:        rollups,
	}, nil
}

// GetTimeline returns the per-day created/resolved series.
func (s *MetricsService) GetTimeline(ctx context.Context, days int) ([]repository.TimelinePoint, error) {
	return s.metrics.Timeline(ctx, days)
}

// GetTechnicianDetail reports one technician's numbers over the trailing
// thirty days plus their newest tickets.
func (s *MetricsService) GetTechnicianDetail(ctx context.Context, userID int64) (*TechnicianDetail, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.metrics.StatusCountsByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.metrics.PriorityCountsByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	since := time.Now().UTC().AddDate(0, 0, -30)
	assigned, err := s.metrics.CountAssignedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	resolved, err := s.metrics.CountResolvedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	avgHours, err := s.metrics.AvgResolutionHours(ctx, &userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.metrics.RecentByAssignee(ctx, userID, 10)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	total := 0
	for _, count := range byStatus {
		total += count
	}
	return &TechnicianDetail{
		User:               user,
		Total:              total,
		ByStatus:           byStatus,
		ByPriority:         byPriority,
		AssignedLast30Days: assigned,
		ResolvedLast30Days: resolved,
		AvgResolutionHours: round1(avgHours),
		RecentTickets:      recent,
	}, nil
}

// GetPerformance assembles the throughput block.
func (s *MetricsService) GetPerformance(ctx context.Context) (*Performance, error) {
	byStatus, err := s.metrics.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	histogram, err := s.metrics.ResponseHistogram(ctx)
	if err != nil {
		return nil, err
	}
	compliance, err := s.metrics.SLACompliance(ctx, s.budgets)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range byStatus {
		total += count
	}
	finished := byStatus[domain.TicketStatusResolved] + byStatus[domain.TicketStatusClosed]
	rate := 0.0
	if total > 0 {
		rate = round1(float64(finished) / float64(total) * 100)
	}

	entries := make([]SLAComplianceEntry, 0, len(compliance))
	for _, row := range compliance {
		percent := 0.0
		if row.Total > 0 {
			percent = round1(float64(row.WithinSLA) / float64(row.Total) * 100)
		}
		entries = append(entries, SLAComplianceEntry{
			Priority:    row.Priority,
			BudgetHours: s.budgets[row.Priority].Hours(),
			Total:       row.Total,
			WithinSLA:   row.WithinSLA,
			Percent:     percent,
		})
	}
	return &Performance{
		ResolutionRatePercent: rate,
		ResponseHistogram:     histogram,
		SLACompliance:         entries,
	}, nil
}

// GetHistory runs the filtered export together with its summary.
func (s *MetricsService) GetHistory(ctx context.Context, filter repository.ExportFilter) (*HistoryReport, error) {
	stats, err := s.metrics.ExportStats(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats.AvgResolutionHours = round1(stats.AvgResolutionHours)
	tickets, err := s.metrics.Export(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &HistoryReport{Stats: stats, Tickets: tickets}, nil
}

// Export returns the raw filtered rows for download.
func (s *MetricsService) Export(ctx context.Context, filter repository.ExportFilter) ([]repository.ExportRow, error) {
	return s.metrics.Export(ctx, filter)
}

// GetTVSnapshot builds the unauthenticated wallboard payload.
func (s *MetricsService) GetTVSnapshot(ctx context.Context) (*TVSnapshot, error) {
	byStatus, err := s.metrics.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.metrics.PriorityCounts(ctx)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.metrics.CategoryCounts(ctx, 5)
	if err != nil {
		return nil, err
	}

	recent, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, err
	}
	if len(recent) > 10 {
		recent = recent[:10]
	}

	inProgressStatus := domain.TicketStatusInProgress
	inProgress, err := s.tickets.List(ctx, repository.TicketFilter{Status: &inProgressStatus})
	if err != nil {
		return nil, err
	}
	openStatus := domain.TicketStatusOpen
	openQueue, err := s.tickets.List(ctx, repository.TicketFilter{Status: &openStatus})
	if err != nil {
		return nil, err
	}

	return &TVSnapshot{
		ByStatus:   byStatus,
		ByPriority: byPriority,
		ByCategory: byCategory,
		Recent:     recent,
		InProgress: inProgress,
		OpenQueue:  openQueue,
	}, nil
}

// Budgets exposes the configured SLA budgets for per-ticket evaluation.
func (s *MetricsService) Budgets() domain.SLABudgets {
	return s.budgets
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
