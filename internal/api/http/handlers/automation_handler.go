package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-automation/internal/api/dto"
	"github.com/spec-kit/ticket-automation/internal/domain"
	"github.com/spec-kit/ticket-automation/internal/repository"
	"github.com/spec-kit/ticket-automation/internal/worker"
	apperrors "github.com/spec-kit/ticket-automation/pkg/util"
)

// AutomationHandler exposes manual task submission and run inspection.
type AutomationHandler struct {
	queue *worker.Queue
	runs  repository.TaskRunRepository
}

// NewAutomationHandler constructs handler.
func NewAutomationHandler(queue *worker.Queue, runs repository.TaskRunRepository) *AutomationHandler {
	return &AutomationHandler{queue: queue, runs: runs}
}

// EnqueueTask POST /automation/tasks.
func (h *AutomationHandler) EnqueueTask(c *fiber.Ctx) error {
	var req dto.EnqueueTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TicketID == "" || req.Type == "" {
		return apperrors.NewValidationError("ticket_id and type required", nil)
	}

	task := domain.AutomationTask{
		TicketID:   req.TicketID,
		Type:       req.Type,
		Parameters: req.Parameters,
	}
	if err := h.queue.Enqueue(c.Context(), task); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{
		"ticket_id": req.TicketID,
		"type":      req.Type,
	}})
}

// ListRuns GET /automation/runs/:ticketID.
func (h *AutomationHandler) ListRuns(c *fiber.Ctx) error {
	runs, err := h.runs.ListByTicket(c.Context(), c.Params("ticketID"))
	if err != nil {
		return err
	}
	items := make([]dto.TaskRunResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, dto.TaskRunResponse{
			TaskID:    run.TaskID,
			TaskType:  run.TaskType,
			Attempt:   run.Attempt,
			Status:    run.Status,
			LastError: run.LastError,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
