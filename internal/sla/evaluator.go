package sla

import (
	"time"

	"github.com/spec-kit/ticket-automation/internal/domain"
)

// FirstResponseOverdue reports whether the first-response SLA is breached at
// the given instant. A recorded first response or an absent deadline means
// never overdue.
func FirstResponseOverdue(ticket *domain.Ticket, deadlines Deadlines, now time.Time) bool {
	if ticket.FirstResponseAt != nil {
		return false
	}
	if deadlines.FirstResponseDueAt == nil {
		return false
	}
	return now.After(*deadlines.FirstResponseDueAt)
}

// ResolutionOverdue mirrors FirstResponseOverdue for the resolution SLA.
func ResolutionOverdue(ticket *domain.Ticket, deadlines Deadlines, now time.Time) bool {
	if ticket.ResolvedAt != nil {
		return false
	}
	if deadlines.ResolutionDueAt == nil {
		return false
	}
	return now.After(*deadlines.ResolutionDueAt)
}
