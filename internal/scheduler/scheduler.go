package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-automation/internal/config"
	"github.com/spec-kit/ticket-automation/internal/domain"
	"github.com/spec-kit/ticket-automation/internal/repository"
)

const scanLimit = 500

// TaskEnqueuer submits automation tasks for asynchronous execution.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, task domain.AutomationTask) error
}

// activeStatuses are the non-terminal statuses automation scans consider.
var activeStatuses = []domain.TicketStatus{
	domain.TicketStatusOpen,
	domain.TicketStatusInProgress,
	domain.TicketStatusPending,
	domain.TicketStatusResolved,
}

// Scheduler periodically scans for automation candidates and enqueues tasks
// for the worker pool.
type Scheduler struct {
	cron    *cron.Cron
	tickets repository.TicketRepository
	queue   TaskEnqueuer
	logger  *zap.Logger
	cfg     config.AutomationConfig
	now     func() time.Time
}

// New constructs the scheduler.
func New(tickets repository.TicketRepository, queue TaskEnqueuer, logger *zap.Logger, cfg config.AutomationConfig) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		tickets: tickets,
		queue:   queue,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Start registers the scan jobs and begins ticking.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context)
	}{
		{"follow_up_scan", s.cfg.FollowUpCron, s.followUpScan},
		{"escalation_scan", s.cfg.EscalationCron, s.escalationScan},
		{"auto_close_scan", s.cfg.AutoCloseCron, s.autoCloseScan},
	}
	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() { job.run(ctx) }); err != nil {
			return err
		}
		s.logger.Info("scheduled automation scan",
			zap.String("job", job.name), zap.String("spec", job.spec))
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) followUpScan(ctx context.Context) {
	cutoff := s.now().AddDate(0, 0, -s.cfg.FollowUpAfterDays)
	s.enqueueForCandidates(ctx, "follow_up_scan", activeStatuses, &cutoff, domain.TaskFollowUp, nil)
}

func (s *Scheduler) escalationScan(ctx context.Context) {
	s.enqueueForCandidates(ctx, "escalation_scan", activeStatuses, nil, domain.TaskEscalationCheck, nil)
}

func (s *Scheduler) autoCloseScan(ctx context.Context) {
	cutoff := s.now().AddDate(0, 0, -s.cfg.AutoCloseAfterDays)
	s.enqueueForCandidates(ctx, "auto_close_scan",
		[]domain.TicketStatus{domain.TicketStatusResolved}, &cutoff,
		domain.TaskAutoCloseCheck,
		domain.TaskParameters{"days": s.cfg.AutoCloseAfterDays})
}

func (s *Scheduler) enqueueForCandidates(ctx context.Context, scan string, statuses []domain.TicketStatus, inactiveSince *time.Time, taskType domain.TaskType, params domain.TaskParameters) {
	tickets, err := s.tickets.ListByStatuses(ctx, statuses, inactiveSince, scanLimit)
	if err != nil {
		s.logger.Error("automation scan failed",
			zap.String("scan", scan), zap.Error(err))
		return
	}
	enqueued := 0
	for _, ticket := range tickets {
		task := domain.AutomationTask{
			TicketID:   ticket.ID,
			Type:       taskType,
			Parameters: params,
		}
		if err := s.queue.Enqueue(ctx, task); err != nil {
			s.logger.Error("failed to enqueue automation task",
				zap.String("scan", scan),
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		s.logger.Info("automation scan enqueued tasks",
			zap.String("scan", scan), zap.Int("count", enqueued))
	}
}
