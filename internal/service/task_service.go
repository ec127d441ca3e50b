package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TaskService groups tickets under tasks and answers task visibility.
type TaskService struct {
	tasks    repository.TaskRepository
	tickets  repository.TicketRepository
	areas    repository.AreaRepository
	ticketSv *TicketService
	policy   *policy.Evaluator
	recorder audit.Recorder
}

// TaskDependencies bundles collaborators for the task service.
type TaskDependencies struct {
	TaskRepo      repository.TaskRepository
	TicketRepo    repository.TicketRepository
	AreaRepo      repository.AreaRepository
	TicketService *TicketService
	Policy        *policy.Evaluator
	Recorder      audit.Recorder
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		tasks:    deps.TaskRepo,
		tickets:  deps.TicketRepo,
		areas:    deps.AreaRepo,
		ticketSv: deps.TicketService,
		policy:   deps.Policy,
		recorder: deps.Recorder,
	}
}

// TaskCreateInput describes task creation payload.
type TaskCreateInput struct {
	Title       string
	Description string
	AreaIDs     []string
}

// TaskDetail is a task with the child tickets the viewer may see.
type TaskDetail struct {
	Task    *domain.Task
	Tickets []domain.Ticket
}

// CreateTask persists a task with its assigned-area set. No ticket is
// touched here; children arrive through AttachTicket.
func (s *TaskService) CreateTask(ctx context.Context, actor *domain.Account, input TaskCreateInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", map[string]any{"field": "title"})
	}
	for _, areaID := range input.AreaIDs {
		if _, err := s.areas.GetByID(ctx, areaID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown area", map[string]any{"field": "area_ids"})
			}
			return nil, apperrors.MapError(err)
		}
	}

	task := &domain.Task{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CreatorID:   actor.ID,
		AreaIDs:     input.AreaIDs,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recorder.Record(audit.KindTaskCreated, actor.Username,
		fmt.Sprintf("created task #%s '%s'", task.ID, task.Title))
	return task, nil
}

// AttachTicket creates a child ticket under the task, using the same
// creation rules as a standalone ticket (forced initial status; later
// comments drive auto-assignment).
func (s *TaskService) AttachTicket(ctx context.Context, actor *domain.Account, taskID string, input TicketCreateInput) (*domain.Ticket, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewTask(actor, task) {
		return nil, apperrors.NewForbidden("not permitted")
	}
	input.TaskID = &task.ID
	return s.ticketSv.CreateTicket(ctx, actor, input)
}

// ListVisibleTasks returns tasks newest-first, filtered by the task
// visibility predicate. Superusers bypass the filter.
func (s *TaskService) ListVisibleTasks(ctx context.Context, actor *domain.Account) ([]domain.Task, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if actor.IsSuperuser {
		return tasks, nil
	}
	visible := make([]domain.Task, 0, len(tasks))
	for i := range tasks {
		if s.policy.CanViewTask(actor, &tasks[i]) {
			visible = append(visible, tasks[i])
		}
	}
	return visible, nil
}

// GetTaskDetail returns the task and its child tickets. Viewers who see
// the task only through a child in their area get just those children:
// task-level visibility never widens ticket-level visibility.
func (s *TaskService) GetTaskDetail(ctx context.Context, actor *domain.Account, taskID string) (*TaskDetail, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewTask(actor, task) {
		return nil, apperrors.NewForbidden("not permitted")
	}
	children, err := s.tickets.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.policy.TaskMember(actor, task) {
		area := actor.HomeArea()
		filtered := make([]domain.Ticket, 0, len(children))
		for _, child := range children {
			if child.AreaID != nil && *child.AreaID == area {
				filtered = append(filtered, child)
			}
		}
		children = filtered
	}
	return &TaskDetail{Task: task, Tickets: children}, nil
}

func (s *TaskService) loadTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return nil, apperrors.MapError(err)
	}
	return task, nil
}
