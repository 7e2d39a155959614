package sla

import (
	"time"

	"github.com/spec-kit/ticket-automation/internal/config"
	"github.com/spec-kit/ticket-automation/internal/domain"
)

// Deadlines holds the derived SLA due timestamps for one ticket. A nil field
// means no deadline is configured for that dimension. Deadlines are always
// recomputed from the ticket and configuration, never persisted.
type Deadlines struct {
	FirstResponseDueAt *time.Time
	ResolutionDueAt    *time.Time
}

// Policy computes SLA deadlines from the per-type rule configuration.
type Policy struct {
	cfg config.SlaConfig
}

// NewPolicy constructs a Policy over the given configuration.
func NewPolicy(cfg config.SlaConfig) *Policy {
	return &Policy{cfg: cfg}
}

// DeadlinesFor derives the due timestamps for the ticket from its type's
// rule, falling back to the global default. Unconfigured minutes yield nil
// rather than a sentinel date.
func (p *Policy) DeadlinesFor(ticket *domain.Ticket) Deadlines {
	rule := p.cfg.RuleFor(ticket.Type)

	var deadlines Deadlines
	if rule.FirstResponseMinutes > 0 {
		due := ticket.CreatedAt.Add(time.Duration(rule.FirstResponseMinutes) * time.Minute)
		deadlines.FirstResponseDueAt = &due
	}
	if rule.ResolutionMinutes > 0 {
		due := ticket.CreatedAt.Add(time.Duration(rule.ResolutionMinutes) * time.Minute)
		deadlines.ResolutionDueAt = &due
	}
	return deadlines
}

// DefaultPriorityFor resolves the default priority for a ticket type.
func (p *Policy) DefaultPriorityFor(ticketType string) domain.TicketPriority {
	return p.cfg.RuleFor(ticketType).DefaultPriority
}
