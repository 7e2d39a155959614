package dto

import (
	"time"

	"github.com/spec-kit/ticket-automation/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	RequesterRef string                `json:"requester_ref"`
	Type         string                `json:"type"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	Tags         []string              `json:"tags"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Target domain.TicketStatus `json:"target"`
	Note   string              `json:"note"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	AuthorType domain.CommentAuthorType `json:"author_type"`
	AuthorRef  *string                  `json:"author_ref"`
	Body       string                   `json:"body"`
	IsInternal bool                     `json:"is_internal"`
}

// TicketResponse response.
type TicketResponse struct {
	ID              string                `json:"id"`
	ExternalKey     string                `json:"external_key"`
	RequesterRef    string                `json:"requester_ref"`
	AssigneeRef     *string               `json:"assignee_ref"`
	Type            string                `json:"type"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	Tags            []string              `json:"tags"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	LastActivityAt  time.Time             `json:"last_activity_at"`
	FirstResponseAt *time.Time            `json:"first_response_at"`
	ResolvedAt      *time.Time            `json:"resolved_at"`
	ClosedAt        *time.Time            `json:"closed_at"`
}

// DeadlinesResponse exposes derived SLA deadlines.
type DeadlinesResponse struct {
	FirstResponseDueAt *time.Time `json:"first_response_due_at"`
	ResolutionDueAt    *time.Time `json:"resolution_due_at"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID         string                   `json:"id"`
	AuthorType domain.CommentAuthorType `json:"author_type"`
	AuthorRef  *string                  `json:"author_ref"`
	Body       string                   `json:"body"`
	IsInternal bool                     `json:"is_internal"`
	CreatedAt  time.Time                `json:"created_at"`
}

// HistoryResponse represents an audit entry.
type HistoryResponse struct {
	ID            string                   `json:"id"`
	ChangedByType domain.CommentAuthorType `json:"changed_by_type"`
	ChangedByRef  *string                  `json:"changed_by_ref"`
	ChangeType    domain.TicketChangeType  `json:"change_type"`
	OldValue      map[string]any           `json:"old_value,omitempty"`
	NewValue      map[string]any           `json:"new_value,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}
