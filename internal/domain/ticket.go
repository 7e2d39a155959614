package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// IsTerminal reports whether the status permits no further lifecycle
// progression. Resolved is pre-terminal: auto-close still acts on it.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed || s == TicketStatusCancelled
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              string
	ExternalKey     string
	RequesterID     string
	AssigneeID      *string
	Type            string
	Title           string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	Tags            []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastActivityAt  time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	ClosedAt        *time.Time
}

// DaysSinceActivity returns whole days elapsed since the latest comment or
// update on the ticket, falling back to creation time.
func (t *Ticket) DaysSinceActivity(now time.Time) int {
	last := t.LastActivityAt
	if last.IsZero() {
		last = t.CreatedAt
	}
	if now.Before(last) {
		return 0
	}
	return int(now.Sub(last).Hours() / 24)
}
