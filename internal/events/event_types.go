package events

import (
	"time"

	"github.com/spec-kit/ticket-automation/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketTransitioned EventType = "ticket_transitioned"
	EventAutomationOutcome  EventType = "automation_outcome"
)

// Actor encapsulates who caused an event.
type Actor struct {
	Type domain.CommentAuthorType `json:"type"`
	Ref  *string                  `json:"ref,omitempty"`
}

// SystemActor returns the actor used for engine-initiated events.
func SystemActor() Actor {
	return Actor{Type: domain.AuthorTypeSystem}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketTransitionedPayload payload.
type TicketTransitionedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Note      string              `json:"note,omitempty"`
}

// AutomationOutcomePayload payload.
type AutomationOutcomePayload struct {
	TaskID   string               `json:"task_id"`
	TaskType domain.TaskType      `json:"task_type"`
	Status   domain.OutcomeStatus `json:"status"`
	Reason   string               `json:"reason,omitempty"`
	Warnings []string             `json:"warnings,omitempty"`
}
