package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-automation/internal/domain"
	"github.com/spec-kit/ticket-automation/internal/events"
)

// fakeTicketRepo hands out copies so callers only mutate stored state
// through Update, mirroring a real store.
type fakeTicketRepo struct {
	tickets  map[string]*domain.Ticket
	updates  int
	failGet  error
	failSave error
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
	for _, ticket := range tickets {
		repo.put(ticket)
	}
	return repo
}

func (r *fakeTicketRepo) put(ticket *domain.Ticket) {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	clone := *ticket
	r.tickets[ticket.ID] = &clone
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if r.failSave != nil {
		return r.failSave
	}
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	ticket.LastActivityAt = ticket.CreatedAt
	r.put(ticket)
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	if r.failSave != nil {
		return r.failSave
	}
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.updates++
	r.put(ticket)
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if r.failGet != nil {
		return nil, r.failGet
	}
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.ExternalKey == key {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) StampFirstResponse(ctx context.Context, ticketID string, at time.Time) error {
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if ticket.FirstResponseAt == nil {
		stamp := at
		ticket.FirstResponseAt = &stamp
	}
	return nil
}

func (r *fakeTicketRepo) ListByStatuses(ctx context.Context, statuses []domain.TicketStatus, inactiveSince *time.Time, limit int) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		for _, status := range statuses {
			if ticket.Status != status {
				continue
			}
			if inactiveSince != nil && !ticket.LastActivityAt.Before(*inactiveSince) {
				continue
			}
			result = append(result, *ticket)
		}
	}
	return result, nil
}

type fakeCommentRepo struct {
	comments []domain.TicketComment
	failErr  error
}

func (r *fakeCommentRepo) Append(ctx context.Context, comment *domain.TicketComment) error {
	if r.failErr != nil {
		return r.failErr
	}
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	var result []domain.TicketComment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type fakeHistoryRepo struct {
	entries []domain.TicketHistory
}

func (r *fakeHistoryRepo) Create(ctx context.Context, history *domain.TicketHistory) error {
	history.ID = uuid.NewString()
	history.CreatedAt = time.Now()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fakeDispatcher struct {
	published []events.Event
}

func (d *fakeDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *fakeDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

type fakeRuleEvaluator struct {
	triggers []string
	err      error
}

func (e *fakeRuleEvaluator) Evaluate(ctx context.Context, ticket *domain.Ticket, trigger string) error {
	e.triggers = append(e.triggers, trigger)
	return e.err
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (n *fakeNotifier) NotifyAssignee(ctx context.Context, ticket *domain.Ticket, message string) error {
	n.messages = append(n.messages, message)
	return n.err
}

var errStoreDown = errors.New("store unavailable")
