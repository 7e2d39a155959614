package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-automation/internal/api/dto"
	"github.com/spec-kit/ticket-automation/internal/domain"
	"github.com/spec-kit/ticket-automation/internal/events"
	"github.com/spec-kit/ticket-automation/internal/service"
	apperrors "github.com/spec-kit/ticket-automation/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets   *service.TicketService
	lifecycle *service.LifecycleService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, lifecycle *service.LifecycleService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, lifecycle: lifecycle}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RequesterRef == "" || req.Title == "" {
		return apperrors.NewValidationError("requester_ref and title required", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.Context(), service.TicketCreateInput{
		RequesterRef: req.RequesterRef,
		Type:         req.Type,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Tags:         req.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// GetDeadlines GET /tickets/:id/deadlines.
func (h *TicketsHandler) GetDeadlines(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	deadlines := h.tickets.DeadlinesFor(ticket)
	return c.JSON(fiber.Map{"data": dto.DeadlinesResponse{
		FirstResponseDueAt: deadlines.FirstResponseDueAt,
		ResolutionDueAt:    deadlines.ResolutionDueAt,
	}})
}

// Transition POST /tickets/:id/transition.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Target == "" {
		return apperrors.NewValidationError("target required", nil)
	}

	actorRef := "api"
	ticket, err := h.lifecycle.Transition(c.Context(), c.Params("id"), req.Target,
		events.Actor{Type: domain.AuthorTypeStaff, Ref: &actorRef}, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}
	authorType := req.AuthorType
	if authorType == "" {
		authorType = domain.AuthorTypeStaff
	}

	comment, err := h.tickets.AddComment(c.Context(), c.Params("id"), service.CommentInput{
		AuthorType: authorType,
		AuthorRef:  req.AuthorRef,
		Body:       req.Body,
		IsInternal: req.IsInternal,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	comments, err := h.tickets.ListComments(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	history, err := h.tickets.ListHistory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.HistoryResponse, 0, len(history))
	for _, entry := range history {
		items = append(items, dto.HistoryResponse{
			ID:            entry.ID,
			ChangedByType: entry.ChangedByType,
			ChangedByRef:  entry.ChangedByRef,
			ChangeType:    entry.ChangeType,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:              ticket.ID,
		ExternalKey:     ticket.ExternalKey,
		RequesterRef:    ticket.RequesterID,
		AssigneeRef:     ticket.AssigneeID,
		Type:            ticket.Type,
		Title:           ticket.Title,
		Description:     ticket.Description,
		Status:          ticket.Status,
		Priority:        ticket.Priority,
		Tags:            ticket.Tags,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
		LastActivityAt:  ticket.LastActivityAt,
		FirstResponseAt: ticket.FirstResponseAt,
		ResolvedAt:      ticket.ResolvedAt,
		ClosedAt:        ticket.ClosedAt,
	}
}

func commentResponse(comment *domain.TicketComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		AuthorType: comment.AuthorType,
		AuthorRef:  comment.AuthorRef,
		Body:       comment.Body,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt,
	}
}
