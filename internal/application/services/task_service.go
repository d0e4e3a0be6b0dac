package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/core/internal/domain/entities"
	"github.com/taskhive/core/internal/infrastructure/logger"
	"github.com/taskhive/core/internal/ports"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// TaskService handles task operations. Every operation is scoped to the
// calling owner: a task id belonging to someone else reads as not found, so
// existence never leaks across owners. Each operation is one
// load-mutate-persist unit; last write wins under concurrent updates.
type TaskService struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logger:   logger,
	}
}

// CreateTask creates a new task for the owner. A due date in the past is
// rejected here; updates carry no such constraint.
func (s *TaskService) CreateTask(ctx context.Context, ownerID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	if req.DueDate != nil && req.DueDate.Before(time.Now()) {
		return nil, entities.NewValidationError("due_date", "must not be in the past")
	}

	priority := entities.PriorityLow
	if req.Priority != nil {
		priority = *req.Priority
	}

	task := &entities.Task{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		DueDate:     req.DueDate,
		Subtasks:    entities.SubtaskList{},
	}

	for _, st := range req.Subtasks {
		task.Subtasks = append(task.Subtasks, entities.Subtask{
			ID:          uuid.New(),
			Title:       st.Title,
			IsCompleted: st.IsCompleted,
		})
	}
	task.RecomputeCompletion()

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "owner_id", ownerID, "title", task.Title)

	return task, nil
}

// GetTask retrieves a task scoped by owner.
func (s *TaskService) GetTask(ctx context.Context, ownerID uuid.UUID, taskID int64) (*entities.Task, error) {
	return s.taskRepo.GetByID(ctx, taskID, ownerID)
}

// UpdateTask applies a partial update. Changing the due date resets the
// notification flag so a rescheduled task gets reminded again.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID uuid.UUID, taskID int64, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.IsCompleted != nil {
		task.IsCompleted = *req.IsCompleted
	}
	if req.DueDate != nil && !dueDateEqual(task.DueDate, req.DueDate) {
		task.DueDate = req.DueDate
		task.NotificationSent = false
	}

	task.RecomputeCompletion()

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Infow("Task updated", "task_id", task.ID, "owner_id", ownerID)

	return task, nil
}

// DeleteTask permanently removes the task and its subtasks.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID uuid.UUID, taskID int64) error {
	if err := s.taskRepo.Delete(ctx, taskID, ownerID); err != nil {
		return err
	}

	s.logger.Infow("Task deleted", "task_id", taskID, "owner_id", ownerID)

	return nil
}

// ListTasks retrieves the owner's tasks with filtering and pagination.
func (s *TaskService) ListTasks(ctx context.Context, ownerID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, ports.Pagination, error) {
	filter = normalizeFilter(filter)

	tasks, total, err := s.taskRepo.List(ctx, ownerID, filter)
	if err != nil {
		return nil, ports.Pagination{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, ports.NewPagination(total, filter.Page, filter.Limit), nil
}

// GetStats returns the owner's aggregate counts.
func (s *TaskService) GetStats(ctx context.Context, ownerID uuid.UUID) (*ports.TaskStats, error) {
	stats, err := s.taskRepo.Stats(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task stats: %w", err)
	}

	return stats, nil
}

// ToggleTaskCompletion flips the task's completion without touching subtasks.
func (s *TaskService) ToggleTaskCompletion(ctx context.Context, ownerID uuid.UUID, taskID int64) (*entities.Task, error) {
	return s.mutate(ctx, ownerID, taskID, func(task *entities.Task) error {
		task.ToggleCompletion()
		return nil
	})
}

// AddSubtask appends a subtask to the task.
func (s *TaskService) AddSubtask(ctx context.Context, ownerID uuid.UUID, taskID int64, req ports.CreateSubtaskRequest) (*entities.Task, error) {
	return s.mutate(ctx, ownerID, taskID, func(task *entities.Task) error {
		st, err := task.AddSubtask(req.Title)
		if err != nil {
			return err
		}
		if req.IsCompleted {
			st.IsCompleted = true
			task.RecomputeCompletion()
		}
		return nil
	})
}

// UpdateSubtask applies a partial update to a subtask.
func (s *TaskService) UpdateSubtask(ctx context.Context, ownerID uuid.UUID, taskID int64, subtaskID uuid.UUID, req ports.UpdateSubtaskRequest) (*entities.Task, error) {
	return s.mutate(ctx, ownerID, taskID, func(task *entities.Task) error {
		_, err := task.UpdateSubtask(subtaskID, entities.SubtaskPatch{
			Title:       req.Title,
			IsCompleted: req.IsCompleted,
		})
		return err
	})
}

// RemoveSubtask removes a subtask from the task.
func (s *TaskService) RemoveSubtask(ctx context.Context, ownerID uuid.UUID, taskID int64, subtaskID uuid.UUID) (*entities.Task, error) {
	return s.mutate(ctx, ownerID, taskID, func(task *entities.Task) error {
		return task.RemoveSubtask(subtaskID)
	})
}

// ToggleSubtaskCompletion flips a subtask's completion.
func (s *TaskService) ToggleSubtaskCompletion(ctx context.Context, ownerID uuid.UUID, taskID int64, subtaskID uuid.UUID) (*entities.Task, error) {
	return s.mutate(ctx, ownerID, taskID, func(task *entities.Task) error {
		_, err := task.ToggleSubtask(subtaskID)
		return err
	})
}

func (s *TaskService) mutate(ctx context.Context, ownerID uuid.UUID, taskID int64, fn func(*entities.Task) error) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := fn(task); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

func normalizeFilter(filter ports.TaskFilter) ports.TaskFilter {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	return filter
}

func dueDateEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
