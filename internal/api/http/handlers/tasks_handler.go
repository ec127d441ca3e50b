package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TasksHandler manages grouped-work endpoints.
type TasksHandler struct {
	service *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{service: taskService}
}

// CreateTask POST /tasks.
func (h *TasksHandler) CreateTask(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	task, err := h.service.CreateTask(c.Context(), principal, service.TaskCreateInput{
		Title:       req.Title,
		Description: req.Description,
		AreaIDs:     req.AreaIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": taskSummary(task)})
}

// ListTasks GET /tasks.
func (h *TasksHandler) ListTasks(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tasks, err := h.service.ListVisibleTasks(c.Context(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.TaskSummary, 0, len(tasks))
	for i := range tasks {
		items = append(items, taskSummary(&tasks[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTask GET /tasks/:id.
func (h *TasksHandler) GetTask(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	detail, err := h.service.GetTaskDetail(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	tickets := make([]dto.TicketSummary, 0, len(detail.Tickets))
	for i := range detail.Tickets {
		tickets = append(tickets, ticketSummary(&detail.Tickets[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TaskDetailResponse{
		TaskSummary: taskSummary(detail.Task),
		Tickets:     tickets,
	}})
}

// AttachTicket POST /tasks/:id/tickets.
func (h *TasksHandler) AttachTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AttachTicket(c.Context(), principal, c.Params("id"), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		AreaID:      req.AreaID,
		Attachments: attachmentInputs(req.Attachments),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func taskSummary(task *domain.Task) dto.TaskSummary {
	return dto.TaskSummary{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		CreatorID:   task.CreatorID,
		AreaIDs:     task.AreaIDs,
		CreatedAt:   task.CreatedAt,
	}
}
