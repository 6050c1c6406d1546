package domain

import (
	"testing"
	"time"
)

func TestEvaluateSLAStates(t *testing.T) {
	t.Parallel()
	budgets := DefaultSLABudgets()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ticket := func(priority TicketPriority, age time.Duration, status TicketStatus) *Ticket {
		return &Ticket{Priority: priority, Status: status, CreatedAt: now.Add(-age)}
	}

	cases := []struct {
		name     string
		ticket   *Ticket
		overdue  bool
		near     bool
		zeroed   bool
	}{
		{"fresh urgent", ticket(TicketPriorityUrgent, 30*time.Minute, TicketStatusOpen), false, false, false},
		{"urgent near deadline", ticket(TicketPriorityUrgent, 100*time.Minute, TicketStatusOpen), false, true, false},
		{"urgent overdue", ticket(TicketPriorityUrgent, 3*time.Hour, TicketStatusInProgress), true, false, false},
		{"low well inside budget", ticket(TicketPriorityLow, 10*time.Hour, TicketStatusOpen), false, false, false},
		{"low near deadline", ticket(TicketPriorityLow, 19*time.Hour, TicketStatusOpen), false, true, false},
		{"resolved is out of scope", ticket(TicketPriorityUrgent, 10*time.Hour, TicketStatusResolved), false, false, true},
		{"closed is out of scope", ticket(TicketPriorityUrgent, 10*time.Hour, TicketStatusClosed), false, false, true},
	}

	for _, tc := range cases {
		state := budgets.Evaluate(tc.ticket, now)
		if state.Overdue != tc.overdue {
			t.Errorf("%s: overdue = %v, want %v", tc.name, state.Overdue, tc.overdue)
		}
		if state.NearDeadline != tc.near {
			t.Errorf("%s: near = %v, want %v", tc.name, state.NearDeadline, tc.near)
		}
		if tc.zeroed && state.Budget != 0 {
			t.Errorf("%s: budget = %v, want zero state", tc.name, state.Budget)
		}
	}
}

func TestEvaluateExactBoundary(t *testing.T) {
	t.Parallel()
	budgets := DefaultSLABudgets()
	now := time.Now()

	// exactly at the budget: not overdue yet, not near (remaining is zero)
	ticket := &Ticket{Priority: TicketPriorityHigh, Status: TicketStatusOpen, CreatedAt: now.Add(-4 * time.Hour)}
	state := budgets.Evaluate(ticket, now)
	if state.Overdue {
		t.Error("ticket exactly on budget reported overdue")
	}
	if state.NearDeadline {
		t.Error("ticket with zero remaining reported near deadline")
	}
}

func TestParseRoleClosedSet(t *testing.T) {
	t.Parallel()
	for raw, want := range map[string]Role{
		"developer":   RoleDeveloper,
		" Coordinator ": RoleCoordinator,
		"ASSISTANT":   RoleAssistant,
	} {
		got, err := ParseRole(raw)
		if err != nil || got != want {
			t.Errorf("ParseRole(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	for _, raw := range []string{"", "admin", "DEV", "assistant2"} {
		if _, err := ParseRole(raw); err == nil {
			t.Errorf("ParseRole(%q) accepted", raw)
		}
	}
}
