package domain

// TaskType enumerates supported automation task kinds.
type TaskType string

const (
	TaskFollowUp        TaskType = "FOLLOW_UP"
	TaskEscalationCheck TaskType = "ESCALATION_CHECK"
	TaskReminder        TaskType = "REMINDER"
	TaskAutoCloseCheck  TaskType = "AUTO_CLOSE_CHECK"
)

// AutomationTask is one scheduled unit of automation work against a ticket.
type AutomationTask struct {
	ID         string         `json:"id"`
	TicketID   string         `json:"ticket_id"`
	Type       TaskType       `json:"type"`
	Parameters TaskParameters `json:"parameters,omitempty"`
	Attempt    int            `json:"attempt"`
}

// TaskParameters carries optional per-task tuning supplied by the scheduler.
type TaskParameters map[string]any

// String returns the string parameter under key, or fallback when absent or
// not a string.
func (p TaskParameters) String(key, fallback string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Bool returns the boolean parameter under key, or fallback when absent.
func (p TaskParameters) Bool(key string, fallback bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return fallback
}

// Int returns the integer parameter under key, or fallback when absent.
// JSON decoding yields float64 for numbers, so both forms are accepted.
func (p TaskParameters) Int(key string, fallback int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// OutcomeStatus classifies the result of one dispatcher run.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "COMPLETED"
	OutcomeSkipped   OutcomeStatus = "SKIPPED"
	OutcomeRejected  OutcomeStatus = "REJECTED"
)

// Skip and rejection reasons surfaced in AutomationOutcome.Reason.
const (
	ReasonTicketNotFound   = "ticket_not_found"
	ReasonTerminalStatus   = "terminal_status"
	ReasonNotResolved      = "not_resolved"
	ReasonBelowThreshold   = "below_threshold"
	ReasonNotOverdue       = "not_overdue"
	ReasonTransitionDenied = "transition_denied"
	ReasonUnknownTaskType  = "unknown_task_type"
)

// AutomationOutcome summarizes what one dispatcher run did.
type AutomationOutcome struct {
	TaskID   string        `json:"task_id"`
	TicketID string        `json:"ticket_id"`
	TaskType TaskType      `json:"task_type"`
	Status   OutcomeStatus `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Rejected reports whether the task must never be retried.
func (o AutomationOutcome) Rejected() bool {
	return o.Status == OutcomeRejected
}

// TaskRunStatus tracks the persisted execution state of a task.
type TaskRunStatus string

const (
	TaskRunRetrying  TaskRunStatus = "RETRYING"
	TaskRunProcessed TaskRunStatus = "PROCESSED"
	TaskRunFailed    TaskRunStatus = "FAILED"
)

// TaskRun is the persisted record of automation task execution, kept for
// manual inspection of stuck tickets.
type TaskRun struct {
	ID        string
	TaskID    string
	TicketID  string
	TaskType  TaskType
	Attempt   int
	Status    TaskRunStatus
	LastError *string
}
