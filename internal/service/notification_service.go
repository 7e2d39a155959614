package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-automation/internal/config"
	"github.com/spec-kit/ticket-automation/internal/domain"
	"github.com/spec-kit/ticket-automation/internal/events"
)

// NotificationService emits notifications for engine events and implements
// the assignee-notify collaborator used by follow-up automation.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AutomationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.AutomationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketTransitioned, n.handleTicketTransitioned)
	n.dispatcher.Subscribe(events.EventAutomationOutcome, n.handleAutomationOutcome)
}

// NotifyAssignee signals the current assignee about automation activity on
// one of their tickets. Unassigned tickets are ignored.
func (n *NotificationService) NotifyAssignee(ctx context.Context, ticket *domain.Ticket, message string) error {
	if ticket.AssigneeID == nil {
		return nil
	}
	n.logger.Info("NotifyAssignee",
		zap.String("ticket_id", ticket.ID),
		zap.String("assignee_ref", *ticket.AssigneeID),
		zap.String("message", message))
	n.sendEmailNotificationStub(ctx, ticket.ID, "assignee_follow_up")
	return nil
}

func (n *NotificationService) handleTicketTransitioned(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketTransitioned", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event.TicketID, string(event.Type))
	return nil
}

func (n *NotificationService) handleAutomationOutcome(ctx context.Context, event events.Event) error {
	n.logger.Info("AutomationOutcome", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, ticketID, kind string) {
	if strings.TrimSpace(n.cfg.NotifyEmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.NotifyEmailFrom),
		zap.String("ticket_id", ticketID),
		zap.String("kind", kind))
}
