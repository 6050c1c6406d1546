package service

import (
	"context"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

func newMetricsService(env *testEnv) *MetricsService {
	db := env.store.DB()
	return NewMetricsService(
		repository.NewMetricsRepository(db),
		repository.NewTicketRepository(db),
		env.users,
		domain.DefaultSLABudgets(),
	)
}

func TestOverviewCounts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newMetricsService(env)
	tech := env.createUser(t, "vera", domain.RoleDeveloper)

	env.createTicket(t, TicketCreateInput{Category: "hardware"})
	env.createTicket(t, TicketCreateInput{Category: "hardware", Priority: domain.TicketPriorityHigh})
	third := env.createTicket(t, TicketCreateInput{Category: "software"})

	resolved := domain.TicketStatusResolved
	if _, err := env.tickets.UpdateTicket(context.Background(), tech, third.ID, TicketUpdateInput{Status: &resolved}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	overview, err := svc.GetOverview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Total != 3 {
		t.Errorf("total = %d, want 3", overview.Total)
	}
	if overview.ByStatus[domain.TicketStatusOpen] != 2 || overview.ByStatus[domain.TicketStatusResolved] != 1 {
		t.Errorf("by status = %v", overview.ByStatus)
	}
	if overview.ByPriority[domain.TicketPriorityMedium] != 2 || overview.ByPriority[domain.TicketPriorityHigh] != 1 {
		t.Errorf("by priority = %v", overview.ByPriority)
	}
	if overview.CreatedToday != 3 || overview.ResolvedToday != 1 {
		t.Errorf("created today = %d, resolved today = %d", overview.CreatedToday, overview.ResolvedToday)
	}
}

func TestAvgResolutionHoursRounding(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newMetricsService(env)
	tech := env.createUser(t, "walt", domain.RoleDeveloper)

	ticket := env.createTicket(t, TicketCreateInput{})
	resolved := domain.TicketStatusResolved
	if _, err := env.tickets.UpdateTicket(context.Background(), tech, ticket.ID, TicketUpdateInput{Status: &resolved}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// push the resolution time to 90 minutes after creation
	if _, err := env.store.DB().Exec(
		`UPDATE tickets SET resolved_at = datetime(created_at, '+90 minutes') WHERE id = ?`, ticket.ID,
	); err != nil {
		t.Fatalf("adjust resolved_at: %v", err)
	}

	overview, err := svc.GetOverview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.AvgResolutionHours != 1.5 {
		t.Errorf("avg resolution hours = %v, want 1.5", overview.AvgResolutionHours)
	}
}

func TestPerformanceResolutionRate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newMetricsService(env)
	tech := env.createUser(t, "xena", domain.RoleDeveloper)

	first := env.createTicket(t, TicketCreateInput{})
	env.createTicket(t, TicketCreateInput{})
	env.createTicket(t, TicketCreateInput{})

	closed := domain.TicketStatusClosed
	if _, err := env.tickets.UpdateTicket(context.Background(), tech, first.ID, TicketUpdateInput{Status: &closed}); err != nil {
		t.Fatalf("close: %v", err)
	}

	performance, err := svc.GetPerformance(context.Background())
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	if performance.ResolutionRatePercent != 33.3 {
		t.Errorf("resolution rate = %v, want 33.3", performance.ResolutionRatePercent)
	}

	// one terminal ticket means one histogram entry in some bucket
	total := 0
	for _, bucket := range performance.ResponseHistogram {
		total += bucket.Count
	}
	if total != 1 {
		t.Errorf("histogram total = %d, want 1", total)
	}
}

func TestSLAComplianceBudgets(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newMetricsService(env)
	tech := env.createUser(t, "yuri", domain.RoleDeveloper)

	fast := env.createTicket(t, TicketCreateInput{Priority: domain.TicketPriorityUrgent})
	slow := env.createTicket(t, TicketCreateInput{Priority: domain.TicketPriorityUrgent})

	resolved := domain.TicketStatusResolved
	for _, id := range []int64{fast.ID, slow.ID} {
		if _, err := env.tickets.UpdateTicket(context.Background(), tech, id, TicketUpdateInput{Status: &resolved}); err != nil {
			t.Fatalf("resolve %d: %v", id, err)
		}
	}
	// fast inside the 2h urgent budget, slow far outside it
	if _, err := env.store.DB().Exec(
		`UPDATE tickets SET resolved_at = datetime(created_at, '+30 minutes') WHERE id = ?`, fast.ID,
	); err != nil {
		t.Fatalf("adjust fast: %v", err)
	}
	if _, err := env.store.DB().Exec(
		`UPDATE tickets SET resolved_at = datetime(created_at, '+5 hours') WHERE id = ?`, slow.ID,
	); err != nil {
		t.Fatalf("adjust slow: %v", err)
	}

	performance, err := svc.GetPerformance(context.Background())
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	var urgent *SLAComplianceEntry
	for i := range performance.SLACompliance {
		if performance.SLACompliance[i].Priority == domain.TicketPriorityUrgent {
			urgent = &performance.SLACompliance[i]
		}
	}
	if urgent == nil {
		t.Fatal("no urgent compliance row")
	}
	if urgent.Total != 2 || urgent.WithinSLA != 1 || urgent.Percent != 50.0 {
		t.Errorf("urgent compliance = %+v, want 1 of 2 within budget", urgent)
	}
}

func TestHistoryFilterByStatus(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newMetricsService(env)
	tech := env.createUser(t, "zoe", domain.RoleDeveloper)

	keep := env.createTicket(t, TicketCreateInput{})
	env.createTicket(t, TicketCreateInput{})

	resolved := domain.TicketStatusResolved
	if _, err := env.tickets.UpdateTicket(context.Background(), tech, keep.ID, TicketUpdateInput{Status: &resolved}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	report, err := svc.GetHistory(context.Background(), repository.ExportFilter{Status: &resolved})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if report.Stats.Total != 1 || report.Stats.Resolved != 1 {
		t.Errorf("stats = %+v, want 1 resolved", report.Stats)
	}
	if len(report.Tickets) != 1 || report.Tickets[0].Ticket.ID != keep.ID {
		t.Errorf("tickets = %d rows, want the resolved one", len(report.Tickets))
	}
	if report.Tickets[0].HoursToResolve == nil {
		t.Error("resolved export row missing hours_to_resolve")
	}
}

func TestTVSnapshotQueues(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	svc := newMetricsService(env)
	tech := env.createUser(t, "abe", domain.RoleDeveloper)

	env.createTicket(t, TicketCreateInput{})
	working := env.createTicket(t, TicketCreateInput{})

	inProgress := domain.TicketStatusInProgress
	if _, err := env.tickets.UpdateTicket(context.Background(), tech, working.ID, TicketUpdateInput{Status: &inProgress}); err != nil {
		t.Fatalf("start: %v", err)
	}

	snapshot, err := svc.GetTVSnapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Recent) != 2 {
		t.Errorf("recent = %d, want 2", len(snapshot.Recent))
	}
	if len(snapshot.InProgress) != 1 || snapshot.InProgress[0].ID != working.ID {
		t.Errorf("in progress queue = %d rows", len(snapshot.InProgress))
	}
	if len(snapshot.OpenQueue) != 1 {
		t.Errorf("open queue = %d rows, want 1", len(snapshot.OpenQueue))
	}
}
