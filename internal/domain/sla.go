package domain

import "time"

// SLABudgets maps each priority to its resolution budget.
type SLABudgets map[TicketPriority]time.Duration

// DefaultSLABudgets returns the standard per-priority budgets.
func DefaultSLABudgets() SLABudgets {
	return SLABudgets{
		TicketPriorityUrgent: 2 * time.Hour,
		TicketPriorityHigh:   4 * time.Hour,
		TicketPriorityMedium: 8 * time.Hour,
		TicketPriorityLow:    24 * time.Hour,
	}
}

// SLAState is the derived deadline position of a ticket. It is computed on
// read and never persisted.
type SLAState struct {
	Budget       time.Duration
	Elapsed      time.Duration
	Remaining    time.Duration
	Overdue      bool
	NearDeadline bool
}

// Evaluate derives the SLA state of a ticket at the given instant. Tickets
// already resolved or closed are out of scope and report a zero state.
func (b SLABudgets) Evaluate(ticket *Ticket, now time.Time) SLAState {
	if ticket.Status.Terminal() {
		return SLAState{}
	}
	budget, ok := b[ticket.Priority]
	if !ok {
		return SLAState{}
	}
	elapsed := now.Sub(ticket.CreatedAt)
	remaining := budget - elapsed
	return SLAState{
		Budget:       budget,
		Elapsed:      elapsed,
		Remaining:    remaining,
		Overdue:      remaining < 0,
		NearDeadline: remaining > 0 && remaining < budget/4,
	}
}
