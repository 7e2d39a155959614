package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-automation/internal/config"
	"github.com/spec-kit/ticket-automation/internal/domain"
	"github.com/spec-kit/ticket-automation/internal/events"
	"github.com/spec-kit/ticket-automation/internal/repository"
	"github.com/spec-kit/ticket-automation/internal/sla"
)

// RuleEvaluator is the external automation-rule engine collaborator. It is
// invoked exactly once per overdue detection and may itself mutate the
// ticket (reassign, bump priority).
type RuleEvaluator interface {
	Evaluate(ctx context.Context, ticket *domain.Ticket, trigger string) error
}

// AssigneeNotifier signals the ticket assignee about automation activity.
type AssigneeNotifier interface {
	NotifyAssignee(ctx context.Context, ticket *domain.Ticket, message string) error
}

// AutomationService dispatches scheduled automation tasks against tickets.
// Every handler re-reads ticket state at entry and re-validates its guards
// before mutating, tolerating races with concurrent executions rather than
// locking them out.
type AutomationService struct {
	tickets   repository.TicketRepository
	comments  repository.CommentRepository
	history   repository.TicketHistoryRepository
	lifecycle *LifecycleService
	policy    *sla.Policy
	rules     RuleEvaluator
	notifier  AssigneeNotifier
	logger    *zap.Logger
	cfg       config.AutomationConfig
	now       func() time.Time
}

// AutomationDependencies bundles collaborators for the dispatcher.
type AutomationDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	HistoryRepo repository.TicketHistoryRepository
	Lifecycle   *LifecycleService
	Policy      *sla.Policy
	Rules       RuleEvaluator
	Notifier    AssigneeNotifier
	Logger      *zap.Logger
}

// NewAutomationService constructs the dispatcher.
func NewAutomationService(deps AutomationDependencies, cfg config.AutomationConfig) *AutomationService {
	return &AutomationService{
		tickets:   deps.TicketRepo,
		comments:  deps.CommentRepo,
		history:   deps.HistoryRepo,
		lifecycle: deps.Lifecycle,
		policy:    deps.Policy,
		rules:     deps.Rules,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock overrides the time source.
func (s *AutomationService) WithClock(now func() time.Time) *AutomationService {
	s.now = now
	return s
}

// Run executes one automation task. A vanished ticket yields a Skipped
// outcome with a nil error; an unknown task type yields Rejected and must
// never be retried. Any returned error is transient from the caller's view.
func (s *AutomationService) Run(ctx context.Context, task domain.AutomationTask) (domain.AutomationOutcome, error) {
	outcome := domain.AutomationOutcome{
		TaskID:   task.ID,
		TicketID: task.TicketID,
		TaskType: task.Type,
	}

	ticket, err := s.tickets.GetByID(ctx, task.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			outcome.Status = domain.OutcomeSkipped
			outcome.Reason = domain.ReasonTicketNotFound
			return outcome, nil
		}
		return outcome, err
	}

	switch task.Type {
	case domain.TaskFollowUp:
		return s.runFollowUp(ctx, ticket, task, outcome)
	case domain.TaskEscalationCheck:
		return s.runEscalationCheck(ctx, ticket, outcome)
	case domain.TaskReminder:
		return s.runReminder(ctx, ticket, task, outcome)
	case domain.TaskAutoCloseCheck:
		return s.runAutoCloseCheck(ctx, ticket, task, outcome)
	default:
		outcome.Status = domain.OutcomeRejected
		outcome.Reason = domain.ReasonUnknownTaskType
		return outcome, nil
	}
}

func (s *AutomationService) runFollowUp(ctx context.Context, ticket *domain.Ticket, task domain.AutomationTask, outcome domain.AutomationOutcome) (domain.AutomationOutcome, error) {
	if ticket.Status.IsTerminal() {
		outcome.Status = domain.OutcomeSkipped
		outcome.Reason = domain.ReasonTerminalStatus
		return outcome, nil
	}

	days := ticket.DaysSinceActivity(s.now())
	if days < s.cfg.FollowUpAfterDays {
		outcome.Status = domain.OutcomeSkipped
		outcome.Reason = domain.ReasonBelowThreshold
		return outcome, nil
	}

	message := task.Parameters.String("message",
		fmt.Sprintf("This ticket has seen no activity for %d days. Is there anything else we can help with?", days))
	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		AuthorType: domain.AuthorTypeSystem,
		Body:       message,
		IsInternal: false,
	}
	if err := s.comments.Append(ctx, comment); err != nil {
		return outcome, err
	}
	s.recordAutomationAction(ctx, ticket.ID, task.Type, map[string]any{
		"days_inactive": days,
	})

	if task.Parameters.Bool("notifyAssignee", true) && s.notifier != nil {
		if err := s.notifier.NotifyAssignee(ctx, ticket, message); err != nil {
			outcome.Warnings = append(outcome.Warnings, "notify assignee: "+err.Error())
		}
	}

	outcome.Status = domain.OutcomeCompleted
	return outcome, nil
}

func (s *AutomationService) runEscalationCheck(ctx context.Context, ticket *domain.Ticket, outcome domain.AutomationOutcome) (domain.AutomationOutcome, error) {
	if ticket.Status.IsTerminal() {
		outcome.Status = domain.OutcomeSkipped
		outcome.Reason = domain.ReasonTerminalStatus
		return outcome, nil
	}

	now := s.now()
	deadlines := s.policy.DeadlinesFor(ticket)
	shouldEscalate := sla.FirstResponseOverdue(ticket, deadlines, now) ||
		sla.ResolutionOverdue(ticket, deadlines, now)
	if !shouldEscalate {
		outcome.Status = domain.OutcomeSkipped
		outcome.Reason = domain.ReasonNotOverdue
		return outcome, nil
	}

	if err := s.rules.Evaluate(ctx, ticket, "escalation_check"); err != nil {
		return outcome, err
	}
	s.recordAutomationAction(ctx, ticket.ID, domain.TaskEscalationCheck, map[string]any{
		"trigger": "escalation_check",
	})

	outcome.Status = domain.OutcomeCompleted
	return outcome, nil
}

func (s *AutomationService) runReminder(ctx context.Context, ticket *domain.Ticket, task domain.AutomationTask, outcome domain.AutomationOutcome) (domain.AutomationOutcome, error) {
	if ticket.Status.IsTerminal() {
		outcome.Status = domain.OutcomeSkipped
		outcome.Reason = domain.ReasonTerminalStatus
		return outcome, nil
	}

	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		AuthorType: domain.AuthorTypeSystem,
		Body:       task.Parameters.String("message", "Reminder: this ticket is awaiting attention."),
		IsInternal: task.Parameters.Bool("isInternal", true),
	}
	if err := s.comments.Append(ctx, comment); err != nil {
		return outcome, err
	}
	s.recordAutomationAction(ctx, ticket.ID, task.Type, nil)

	outcome.Status = domain.OutcomeCompleted
	return outcome, nil
}

func (s *AutomationService) runAutoCloseCheck(ctx context.Context, ticket *domain.Ticket, task domain.AutomationTask, outcome domain.AutomationOutcome) (domain.AutomationOutcome, error) {
	// Only the pre-close state qualifies; terminal tickets and anything
	// earlier in the lifecycle are left alone.
	if ticket.Status != domain.TicketStatusResolved {
		outcome.Status = domain.OutcomeSkipped
		outcome.Reason = domain.ReasonNotResolved
		return outcome, nil
	}

	days := ticket.DaysSinceActivity(s.now())
	threshold := task.Parameters.Int("days", s.cfg.AutoCloseAfterDays)
	if days < threshold {
		outcome.Status = domain.OutcomeSkipped
		outcome.Reason = domain.ReasonBelowThreshold
		return outcome, nil
	}

	_, err := s.lifecycle.Transition(ctx, ticket.ID, domain.TicketStatusClosed,
		events.SystemActor(), "auto_close")
	if err != nil {
		var transitionErr *domain.TransitionError
		if errors.As(err, &transitionErr) {
			// A concurrent transition beat us to it; expected, not a failure.
			outcome.Status = domain.OutcomeSkipped
			outcome.Reason = domain.ReasonTransitionDenied
			return outcome, nil
		}
		return outcome, err
	}

	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		AuthorType: domain.AuthorTypeSystem,
		Body:       fmt.Sprintf("Ticket closed automatically after %d days without activity.", days),
		IsInternal: true,
	}
	if err := s.comments.Append(ctx, comment); err != nil {
		// The close is committed; failing the attempt now would retry
		// against an already closed ticket and lose the audit comment.
		outcome.Warnings = append(outcome.Warnings, "audit comment: "+err.Error())
	}

	outcome.Status = domain.OutcomeCompleted
	return outcome, nil
}

// recordAutomationAction writes a best-effort audit row for automation
// side effects.
func (s *AutomationService) recordAutomationAction(ctx context.Context, ticketID string, taskType domain.TaskType, detail map[string]any) {
	if s.history == nil {
		return
	}
	newValue := map[string]any{"task_type": taskType}
	for k, v := range detail {
		newValue[k] = v
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.AuthorTypeSystem,
		ChangeType:    domain.ChangeTypeAutomation,
		NewValue:      newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record automation action",
			zap.String("ticket_id", ticketID), zap.Error(err))
	}
}
