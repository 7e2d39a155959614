package dto

import "github.com/spec-kit/ticket-automation/internal/domain"

// EnqueueTaskRequest payload for manual task submission.
type EnqueueTaskRequest struct {
	TicketID   string                `json:"ticket_id"`
	Type       domain.TaskType       `json:"type"`
	Parameters domain.TaskParameters `json:"parameters"`
}

// TaskRunResponse exposes persisted execution state.
type TaskRunResponse struct {
	TaskID    string               `json:"task_id"`
	TaskType  domain.TaskType      `json:"task_type"`
	Attempt   int                  `json:"attempt"`
	Status    domain.TaskRunStatus `json:"status"`
	LastError *string              `json:"last_error"`
}
