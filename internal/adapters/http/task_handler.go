package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskhive/core/internal/domain/entities"
	"github.com/taskhive/core/internal/infrastructure/logger"
	"github.com/taskhive/core/internal/ports"
)

// listQueryKeys is the closed set of recognized list parameters. Anything
// else is rejected rather than silently ignored.
var listQueryKeys = map[string]bool{
	"page":          true,
	"limit":         true,
	"priority":      true,
	"is_completed":  true,
	"sort_by":       true,
	"sort_order":    true,
	"due_date_from": true,
	"due_date_to":   true,
	"search":        true,
}

var sortableColumns = map[string]bool{
	"due_date":   true,
	"priority":   true,
	"created_at": true,
}

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks returns a filtered, sorted page of the caller's tasks
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter, err := parseListFilter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tasks, pagination, err := h.taskService.ListTasks(c.Request().Context(), ownerIDFromContext(c), filter)
	if err != nil {
		return translateError(err)
	}

	if tasks == nil {
		tasks = []*entities.Task{}
	}

	return c.JSON(http.StatusOK, ports.TaskListResponse{
		Tasks:      tasks,
		Pagination: pagination,
	})
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), ownerIDFromContext(c), req)
	if err != nil {
		return translateError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// GetTask returns a single task
func (h *TaskHandler) GetTask(c echo.Context) error {
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), ownerIDFromContext(c), taskID)
	if err != nil {
		return translateError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateTask applies a partial update to a task
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), ownerIDFromContext(c), taskID, req)
	if err != nil {
		return translateError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask permanently deletes a task and its subtasks
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), ownerIDFromContext(c), taskID); err != nil {
		return translateError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ToggleTask flips the task's completion
func (h *TaskHandler) ToggleTask(c echo.Context) error {
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.ToggleTaskCompletion(c.Request().Context(), ownerIDFromContext(c), taskID)
	if err != nil {
		return translateError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// GetStats returns the caller's aggregate task counts
func (h *TaskHandler) GetStats(c echo.Context) error {
	stats, err := h.taskService.GetStats(c.Request().Context(), ownerIDFromContext(c))
	if err != nil {
		return translateError(err)
	}

	return c.JSON(http.StatusOK, stats)
}

// AddSubtask appends a subtask to a task
func (h *TaskHandler) AddSubtask(c echo.Context) error {
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req ports.CreateSubtaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.AddSubtask(c.Request().Context(), ownerIDFromContext(c), taskID, req)
	if err != nil {
		return translateError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// UpdateSubtask applies a partial update to a subtask
func (h *TaskHandler) UpdateSubtask(c echo.Context) error {
	taskID, subtaskID, err := parseSubtaskIDs(c)
	if err != nil {
		return err
	}

	var req ports.UpdateSubtaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateSubtask(c.Request().Context(), ownerIDFromContext(c), taskID, subtaskID, req)
	if err != nil {
		return translateError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// RemoveSubtask deletes a subtask
func (h *TaskHandler) RemoveSubtask(c echo.Context) error {
	taskID, subtaskID, err := parseSubtaskIDs(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.RemoveSubtask(c.Request().Context(), ownerIDFromContext(c), taskID, subtaskID)
	if err != nil {
		return translateError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// ToggleSubtask flips a subtask's completion
func (h *TaskHandler) ToggleSubtask(c echo.Context) error {
	taskID, subtaskID, err := parseSubtaskIDs(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.ToggleSubtaskCompletion(c.Request().Context(), ownerIDFromContext(c), taskID, subtaskID)
	if err != nil {
		return translateError(err)
	}

	return c.JSON(http.StatusOK, task)
}

func parseTaskID(c echo.Context) (int64, error) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid task id")
	}
	return taskID, nil
}

func parseSubtaskIDs(c echo.Context) (int64, uuid.UUID, error) {
	taskID, err := parseTaskID(c)
	if err != nil {
		return 0, uuid.Nil, err
	}

	subtaskID, err := uuid.Parse(c.Param("subtaskId"))
	if err != nil {
		return 0, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid subtask id")
	}

	return taskID, subtaskID, nil
}

// parseListFilter maps the query string onto the closed filter record.
func parseListFilter(c echo.Context) (ports.TaskFilter, error) {
	var filter ports.TaskFilter

	for key := range c.QueryParams() {
		if !listQueryKeys[key] {
			return filter, fmt.Errorf("unknown query parameter %q", key)
		}
	}

	if v := c.QueryParam("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return filter, fmt.Errorf("page must be a positive integer")
		}
		filter.Page = page
	}

	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 100 {
			return filter, fmt.Errorf("limit must be between 1 and 100")
		}
		filter.Limit = limit
	}

	if v := c.QueryParam("priority"); v != "" {
		priority := entities.Priority(v)
		if !priority.IsValid() {
			return filter, fmt.Errorf("priority must be one of low, medium, high")
		}
		filter.Priority = &priority
	}

	if v := c.QueryParam("is_completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("is_completed must be a boolean")
		}
		filter.IsCompleted = &completed
	}

	if v := c.QueryParam("sort_by"); v != "" {
		if !sortableColumns[v] {
			return filter, fmt.Errorf("sort_by must be one of due_date, priority, created_at")
		}
		filter.SortBy = v
	}

	if v := c.QueryParam("sort_order"); v != "" {
		order := strings.ToLower(v)
		if order != "asc" && order != "desc" {
			return filter, fmt.Errorf("sort_order must be asc or desc")
		}
		filter.SortOrder = order
	}

	if v := c.QueryParam("due_date_from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("due_date_from must be an RFC 3339 timestamp")
		}
		filter.DueDateFrom = &from
	}

	if v := c.QueryParam("due_date_to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("due_date_to must be an RFC 3339 timestamp")
		}
		filter.DueDateTo = &to
	}

	if v := c.QueryParam("search"); v != "" {
		filter.Search = &v
	}

	return filter, nil
}
