package worker

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-automation/internal/config"
	"github.com/spec-kit/ticket-automation/internal/domain"
	"github.com/spec-kit/ticket-automation/internal/events"
	"github.com/spec-kit/ticket-automation/internal/observability"
	"github.com/spec-kit/ticket-automation/internal/repository"
)

// Dispatcher runs one automation task against a ticket.
type Dispatcher interface {
	Run(ctx context.Context, task domain.AutomationTask) (domain.AutomationOutcome, error)
}

// errRejected marks outcomes that must never be retried.
var errRejected = errors.New("task rejected")

// TaskRunner drives dispatcher runs with bounded retry. Transient failures
// are retried on the configured backoff schedule with a hard per-attempt
// timeout; exhaustion persists a failed run and reports the final error.
type TaskRunner struct {
	dispatcher Dispatcher
	runs       repository.TaskRunRepository
	reporter   observability.ErrorReporter
	events     events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.AutomationConfig
	timer      backoff.Timer
}

// NewTaskRunner constructs the runner.
func NewTaskRunner(dispatcher Dispatcher, runs repository.TaskRunRepository, reporter observability.ErrorReporter, eventBus events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, cfg config.AutomationConfig) *TaskRunner {
	return &TaskRunner{
		dispatcher: dispatcher,
		runs:       runs,
		reporter:   reporter,
		events:     eventBus,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// WithTimer overrides the backoff timer, letting tests observe delays
// without sleeping.
func (r *TaskRunner) WithTimer(timer backoff.Timer) *TaskRunner {
	r.timer = timer
	return r
}

// Execute runs the task to a terminal result: processed, rejected, or
// permanently failed after exhausting attempts.
func (r *TaskRunner) Execute(ctx context.Context, task domain.AutomationTask) error {
	attempt := 0
	var outcome domain.AutomationOutcome

	operation := func() error {
		attempt++
		task.Attempt = attempt

		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout())
		defer cancel()

		out, err := r.dispatcher.Run(attemptCtx, task)
		if err != nil {
			r.recordRun(ctx, task, domain.TaskRunRetrying, err.Error())
			return err
		}
		outcome = out
		if out.Rejected() {
			return backoff.Permanent(errRejected)
		}
		return nil
	}

	notify := func(err error, delay time.Duration) {
		r.logger.Warn("automation task attempt failed; retrying",
			zap.String("task_id", task.ID),
			zap.String("ticket_id", task.TicketID),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err))
	}

	schedule := &scheduleBackOff{
		schedule:   r.cfg.BackoffSchedule(),
		maxRetries: r.cfg.MaxAttempts - 1,
	}
	err := backoff.RetryNotifyWithTimer(operation, backoff.WithContext(schedule, ctx), notify, r.timer)

	if err != nil {
		if errors.Is(err, errRejected) {
			r.logger.Error("automation task rejected",
				zap.String("task_id", task.ID),
				zap.String("ticket_id", task.TicketID),
				zap.String("reason", outcome.Reason))
			r.recordRun(ctx, task, domain.TaskRunFailed, outcome.Reason)
			r.metrics.RecordTask(string(task.Type), "rejected")
			return nil
		}
		r.recordRun(ctx, task, domain.TaskRunFailed, err.Error())
		r.metrics.RecordTask(string(task.Type), "failed")
		if r.reporter != nil {
			r.reporter.Report(err)
		}
		return err
	}

	r.recordRun(ctx, task, domain.TaskRunProcessed, "")
	r.metrics.RecordTask(string(task.Type), "processed")
	r.publishOutcome(ctx, task, outcome)
	return nil
}

// recordRun persists execution state best effort; a run-store outage must
// not change the retry decision already made.
func (r *TaskRunner) recordRun(ctx context.Context, task domain.AutomationTask, status domain.TaskRunStatus, lastError string) {
	if r.runs == nil {
		return
	}
	run := &domain.TaskRun{
		TaskID:   task.ID,
		TicketID: task.TicketID,
		TaskType: task.Type,
		Attempt:  task.Attempt,
		Status:   status,
	}
	if lastError != "" {
		run.LastError = &lastError
	}
	if err := r.runs.RecordAttempt(ctx, run); err != nil {
		r.logger.Warn("failed to record task run",
			zap.String("task_id", task.ID), zap.Error(err))
	}
}

func (r *TaskRunner) publishOutcome(ctx context.Context, task domain.AutomationTask, outcome domain.AutomationOutcome) {
	if r.events == nil {
		return
	}
	_ = r.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAutomationOutcome,
		TicketID:  task.TicketID,
		Actor:     events.SystemActor(),
		Timestamp: time.Now(),
		Payload: events.AutomationOutcomePayload{
			TaskID:   task.ID,
			TaskType: task.Type,
			Status:   outcome.Status,
			Reason:   outcome.Reason,
			Warnings: outcome.Warnings,
		},
	})
}

// scheduleBackOff walks a fixed delay schedule, stopping once the retry
// ceiling or the schedule is exhausted.
type scheduleBackOff struct {
	schedule   []time.Duration
	maxRetries int
	taken      int
}

func (b *scheduleBackOff) NextBackOff() time.Duration {
	if b.taken >= b.maxRetries || b.taken >= len(b.schedule) {
		return backoff.Stop
	}
	delay := b.schedule[b.taken]
	b.taken++
	return delay
}

func (b *scheduleBackOff) Reset() {
	b.taken = 0
}
