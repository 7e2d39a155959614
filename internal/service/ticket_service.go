package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-automation/internal/domain"
	"github.com/spec-kit/ticket-automation/internal/repository"
	"github.com/spec-kit/ticket-automation/internal/sla"
)

// TicketService coordinates ticket intake and comment workflows around the
// lifecycle engine.
type TicketService struct {
	tickets  repository.TicketRepository
	comments repository.CommentRepository
	history  repository.TicketHistoryRepository
	policy   *sla.Policy
	now      func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	RequesterRef string
	Type         string
	Title        string
	Description  string
	Priority     domain.TicketPriority
	Tags         []string
}

// CommentInput describes a comment append payload.
type CommentInput struct {
	AuthorType domain.CommentAuthorType
	AuthorRef  *string
	Body       string
	IsInternal bool
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, comments repository.CommentRepository, history repository.TicketHistoryRepository, policy *sla.Policy) *TicketService {
	return &TicketService{
		tickets:  tickets,
		comments: comments,
		history:  history,
		policy:   policy,
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (s *TicketService) WithClock(now func() time.Time) *TicketService {
	s.now = now
	return s
}

// CreateTicket creates a ticket, defaulting priority from the SLA rule for
// its type when none was given.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		RequesterID: input.RequesterRef,
		Type:        strings.TrimSpace(input.Type),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		Tags:        input.Tags,
	}
	if ticket.Type == "" {
		ticket.Type = "general"
	}
	if ticket.Priority == "" {
		ticket.Priority = s.policy.DefaultPriorityFor(ticket.Type)
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// GetTicket fetches a ticket by identifier.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

// DeadlinesFor derives the current SLA deadlines for a ticket.
func (s *TicketService) DeadlinesFor(ticket *domain.Ticket) sla.Deadlines {
	return s.policy.DeadlinesFor(ticket)
}

// AddComment appends a comment. A public staff reply on a ticket without a
// recorded first response stamps first_response_at exactly once.
func (s *TicketService) AddComment(ctx context.Context, ticketID string, input CommentInput) (*domain.TicketComment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		AuthorType: input.AuthorType,
		AuthorRef:  input.AuthorRef,
		Body:       strings.TrimSpace(input.Body),
		IsInternal: input.IsInternal,
	}
	if err := s.comments.Append(ctx, comment); err != nil {
		return nil, err
	}

	if input.AuthorType == domain.AuthorTypeStaff && !input.IsInternal && ticket.FirstResponseAt == nil {
		if err := s.tickets.StampFirstResponse(ctx, ticket.ID, comment.CreatedAt); err != nil {
			return nil, err
		}
	}
	return comment, nil
}

// ListComments returns the ticket thread oldest first.
func (s *TicketService) ListComments(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	return s.comments.ListByTicket(ctx, ticketID)
}

// ListHistory returns the audit trail for a ticket.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	return s.history.ListByTicket(ctx, ticketID)
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
