package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-automation/internal/domain"
	"github.com/spec-kit/ticket-automation/internal/events"
	"github.com/spec-kit/ticket-automation/internal/repository"
)

// LifecycleService is the sole writer of ticket status. Every status change
// passes through the transition table; the saved mutation always precedes
// subscriber notification.
type LifecycleService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewLifecycleService constructs the service.
func NewLifecycleService(tickets repository.TicketRepository, history repository.TicketHistoryRepository, dispatcher events.Dispatcher, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		tickets:    tickets,
		history:    history,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (s *LifecycleService) WithClock(now func() time.Time) *LifecycleService {
	s.now = now
	return s
}

// Transition re-reads the ticket and moves it to target when the edge is
// legal. On denial it returns a TransitionError carrying both statuses and
// leaves the ticket untouched. The re-read makes the transition itself the
// single point of truth under concurrent automation runs.
func (s *LifecycleService) Transition(ctx context.Context, ticketID string, target domain.TicketStatus, actor events.Actor, note string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	if !domain.IsTransitionAllowed(oldStatus, target) {
		return nil, domain.NewTransitionError(oldStatus, target)
	}

	now := s.now()
	ticket.Status = target
	switch target {
	case domain.TicketStatusResolved:
		if ticket.ResolvedAt == nil {
			ticket.ResolvedAt = &now
		}
	case domain.TicketStatusClosed, domain.TicketStatusCancelled:
		if ticket.ClosedAt == nil {
			ticket.ClosedAt = &now
		}
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.recordStatusChange(ctx, actor, ticket.ID, oldStatus, target, note)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketTransitioned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketTransitionedPayload{
			OldStatus: oldStatus,
			NewStatus: target,
			Note:      note,
		},
	})
	return ticket, nil
}

// recordStatusChange writes the audit row. The transition is already
// committed, so audit failures are logged rather than surfaced.
func (s *LifecycleService) recordStatusChange(ctx context.Context, actor events.Actor, ticketID string, oldStatus, newStatus domain.TicketStatus, note string) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: actor.Type,
		ChangedByRef:  actor.Ref,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue: map[string]any{
			"status": oldStatus,
		},
		NewValue: map[string]any{
			"status": newStatus,
			"note":   note,
		},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record status change",
			zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
