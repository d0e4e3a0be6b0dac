package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/core/internal/domain/entities"
	"github.com/taskhive/core/internal/infrastructure/logger"
	"github.com/taskhive/core/internal/ports"
)

type mockTaskRepository struct {
	mock.Mock
}

func (m *mockTaskRepository) Create(ctx context.Context, task *entities.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *mockTaskRepository) GetByID(ctx context.Context, id int64, ownerID uuid.UUID) (*entities.Task, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Task), args.Error(1)
}

func (m *mockTaskRepository) Update(ctx context.Context, task *entities.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *mockTaskRepository) Delete(ctx context.Context, id int64, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *mockTaskRepository) List(ctx context.Context, ownerID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entities.Task), args.Int(1), args.Error(2)
}

func (m *mockTaskRepository) Stats(ctx context.Context, ownerID uuid.UUID) (*ports.TaskStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.TaskStats), args.Error(1)
}

func (m *mockTaskRepository) FindOverdueUnnotified(ctx context.Context) ([]ports.ReminderTask, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.ReminderTask), args.Error(1)
}

func (m *mockTaskRepository) FindDueWithinWindow(ctx context.Context, from, to time.Time) ([]ports.ReminderTask, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.ReminderTask), args.Error(1)
}

func (m *mockTaskRepository) MarkNotificationSent(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTaskService(repo *mockTaskRepository) *TaskService {
	return NewTaskService(repo, logger.NewNop())
}

func ownedTask(ownerID uuid.UUID) *entities.Task {
	return &entities.Task{
		ID:       7,
		OwnerID:  ownerID,
		Title:    "Review budget",
		Priority: entities.PriorityMedium,
	}
}

func TestCreateTask(t *testing.T) {
	ownerID := uuid.New()

	t.Run("defaults to low priority", func(t *testing.T) {
		repo := new(mockTaskRepository)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Task")).Return(nil)

		task, err := newTaskService(repo).CreateTask(context.Background(), ownerID, ports.CreateTaskRequest{
			Title: "Plan sprint",
		})

		require.NoError(t, err)
		assert.Equal(t, entities.PriorityLow, task.Priority)
		assert.Equal(t, ownerID, task.OwnerID)
		assert.False(t, task.IsCompleted)
		repo.AssertExpectations(t)
	})

	t.Run("past due date rejected", func(t *testing.T) {
		repo := new(mockTaskRepository)
		past := time.Now().Add(-time.Hour)

		_, err := newTaskService(repo).CreateTask(context.Background(), ownerID, ports.CreateTaskRequest{
			Title:   "Too late",
			DueDate: &past,
		})

		require.Error(t, err)
		assert.True(t, entities.IsValidationError(err))
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("invalid title rejected", func(t *testing.T) {
		repo := new(mockTaskRepository)

		_, err := newTaskService(repo).CreateTask(context.Background(), ownerID, ports.CreateTaskRequest{})

		assert.True(t, entities.IsValidationError(err))
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("all completed subtasks complete the task", func(t *testing.T) {
		repo := new(mockTaskRepository)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Task")).Return(nil)

		task, err := newTaskService(repo).CreateTask(context.Background(), ownerID, ports.CreateTaskRequest{
			Title: "Prepped",
			Subtasks: []ports.CreateSubtaskRequest{
				{Title: "a", IsCompleted: true},
				{Title: "b", IsCompleted: true},
			},
		})

		require.NoError(t, err)
		assert.True(t, task.IsCompleted)
		require.Len(t, task.Subtasks, 2)
		assert.NotEqual(t, task.Subtasks[0].ID, task.Subtasks[1].ID)
	})
}

func TestGetTaskScopedByOwner(t *testing.T) {
	repo := new(mockTaskRepository)
	ownerID := uuid.New()
	repo.On("GetByID", mock.Anything, int64(7), ownerID).Return(nil, entities.ErrTaskNotFound)

	_, err := newTaskService(repo).GetTask(context.Background(), ownerID, 7)

	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestUpdateTask(t *testing.T) {
	ownerID := uuid.New()

	t.Run("due date change resets notification flag", func(t *testing.T) {
		repo := new(mockTaskRepository)
		task := ownedTask(ownerID)
		oldDue := time.Now().Add(24 * time.Hour)
		task.DueDate = &oldDue
		task.NotificationSent = true

		repo.On("GetByID", mock.Anything, int64(7), ownerID).Return(task, nil)
		repo.On("Update", mock.Anything, task).Return(nil)

		newDue := time.Now().Add(48 * time.Hour)
		updated, err := newTaskService(repo).UpdateTask(context.Background(), ownerID, 7, ports.UpdateTaskRequest{
			DueDate: &newDue,
		})

		require.NoError(t, err)
		assert.False(t, updated.NotificationSent)
		assert.True(t, updated.DueDate.Equal(newDue))
	})

	t.Run("same due date keeps notification flag", func(t *testing.T) {
		repo := new(mockTaskRepository)
		task := ownedTask(ownerID)
		due := time.Now().Add(24 * time.Hour)
		task.DueDate = &due
		task.NotificationSent = true

		repo.On("GetByID", mock.Anything, int64(7), ownerID).Return(task, nil)
		repo.On("Update", mock.Anything, task).Return(nil)

		sameDue := due
		updated, err := newTaskService(repo).UpdateTask(context.Background(), ownerID, 7, ports.UpdateTaskRequest{
			DueDate: &sameDue,
		})

		require.NoError(t, err)
		assert.True(t, updated.NotificationSent)
	})

	t.Run("past due date allowed on update", func(t *testing.T) {
		repo := new(mockTaskRepository)
		task := ownedTask(ownerID)
		repo.On("GetByID", mock.Anything, int64(7), ownerID).Return(task, nil)
		repo.On("Update", mock.Anything, task).Return(nil)

		past := time.Now().Add(-time.Hour)
		updated, err := newTaskService(repo).UpdateTask(context.Background(), ownerID, 7, ports.UpdateTaskRequest{
			DueDate: &past,
		})

		require.NoError(t, err)
		assert.True(t, updated.IsOverdue())
	})

	t.Run("wrong owner reads as not found", func(t *testing.T) {
		repo := new(mockTaskRepository)
		stranger := uuid.New()
		repo.On("GetByID", mock.Anything, int64(7), stranger).Return(nil, entities.ErrTaskNotFound)

		title := "hijack"
		_, err := newTaskService(repo).UpdateTask(context.Background(), stranger, 7, ports.UpdateTaskRequest{Title: &title})

		assert.ErrorIs(t, err, entities.ErrTaskNotFound)
		repo.AssertNotCalled(t, "Update")
	})
}

func TestDeleteTask(t *testing.T) {
	repo := new(mockTaskRepository)
	ownerID := uuid.New()
	repo.On("Delete", mock.Anything, int64(7), ownerID).Return(entities.ErrTaskNotFound)

	err := newTaskService(repo).DeleteTask(context.Background(), ownerID, 7)

	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestListTasks(t *testing.T) {
	repo := new(mockTaskRepository)
	ownerID := uuid.New()

	expected := ports.TaskFilter{Page: 2, Limit: 10}
	repo.On("List", mock.Anything, ownerID, expected).Return([]*entities.Task{ownedTask(ownerID)}, 15, nil)

	tasks, pagination, err := newTaskService(repo).ListTasks(context.Background(), ownerID, ports.TaskFilter{Page: 2})

	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, 15, pagination.Total)
	assert.Equal(t, 2, pagination.TotalPages)
	assert.False(t, pagination.HasNextPage)
	assert.True(t, pagination.HasPrevPage)
}

func TestListTasksClampsLimit(t *testing.T) {
	repo := new(mockTaskRepository)
	ownerID := uuid.New()

	expected := ports.TaskFilter{Page: 1, Limit: 100}
	repo.On("List", mock.Anything, ownerID, expected).Return([]*entities.Task{}, 0, nil)

	_, _, err := newTaskService(repo).ListTasks(context.Background(), ownerID, ports.TaskFilter{Page: 0, Limit: 500})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetStats(t *testing.T) {
	repo := new(mockTaskRepository)
	ownerID := uuid.New()
	repo.On("Stats", mock.Anything, ownerID).Return(&ports.TaskStats{
		Total: 4, Completed: 1, Pending: 3, HighPriority: 2, Overdue: 1,
	}, nil)

	stats, err := newTaskService(repo).GetStats(context.Background(), ownerID)

	require.NoError(t, err)
	assert.Equal(t, stats.Total, stats.Completed+stats.Pending)
}

func TestToggleTaskCompletion(t *testing.T) {
	repo := new(mockTaskRepository)
	ownerID := uuid.New()
	task := ownedTask(ownerID)
	task.Subtasks = entities.SubtaskList{{ID: uuid.New(), Title: "open"}}

	repo.On("GetByID", mock.Anything, int64(7), ownerID).Return(task, nil)
	repo.On("Update", mock.Anything, task).Return(nil)

	toggled, err := newTaskService(repo).ToggleTaskCompletion(context.Background(), ownerID, 7)

	require.NoError(t, err)
	assert.True(t, toggled.IsCompleted)
	// Parent toggle never cascades down.
	assert.False(t, toggled.Subtasks[0].IsCompleted)
}

func TestSubtaskOperations(t *testing.T) {
	ownerID := uuid.New()

	t.Run("add", func(t *testing.T) {
		repo := new(mockTaskRepository)
		task := ownedTask(ownerID)
		repo.On("GetByID", mock.Anything, int64(7), ownerID).Return(task, nil)
		repo.On("Update", mock.Anything, task).Return(nil)

		updated, err := newTaskService(repo).AddSubtask(context.Background(), ownerID, 7, ports.CreateSubtaskRequest{Title: "step one"})

		require.NoError(t, err)
		require.Len(t, updated.Subtasks, 1)
		assert.Equal(t, "step one", updated.Subtasks[0].Title)
	})

	t.Run("toggle last open subtask completes parent", func(t *testing.T) {
		repo := new(mockTaskRepository)
		task := ownedTask(ownerID)
		subtaskID := uuid.New()
		task.Subtasks = entities.SubtaskList{{ID: subtaskID, Title: "only"}}
		repo.On("GetByID", mock.Anything, int64(7), ownerID).Return(task, nil)
		repo.On("Update", mock.Anything, task).Return(nil)

		updated, err := newTaskService(repo).ToggleSubtaskCompletion(context.Background(), ownerID, 7, subtaskID)

		require.NoError(t, err)
		assert.True(t, updated.Subtasks[0].IsCompleted)
		assert.True(t, updated.IsCompleted)
	})

	t.Run("unknown subtask id", func(t *testing.T) {
		repo := new(mockTaskRepository)
		task := ownedTask(ownerID)
		repo.On("GetByID", mock.Anything, int64(7), ownerID).Return(task, nil)

		_, err := newTaskService(repo).RemoveSubtask(context.Background(), ownerID, 7, uuid.New())

		assert.ErrorIs(t, err, entities.ErrSubtaskNotFound)
		repo.AssertNotCalled(t, "Update")
	})
}
