package entities

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask() *Task {
	return &Task{
		ID:       1,
		OwnerID:  uuid.New(),
		Title:    "Ship release",
		Priority: PriorityMedium,
	}
}

func TestTaskValidate(t *testing.T) {
	task := newTask()
	require.NoError(t, task.Validate())

	t.Run("empty title", func(t *testing.T) {
		task := newTask()
		task.Title = ""

		err := task.Validate()
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("title too long", func(t *testing.T) {
		task := newTask()
		task.Title = strings.Repeat("x", 201)

		assert.True(t, IsValidationError(task.Validate()))
	})

	t.Run("title at limit", func(t *testing.T) {
		task := newTask()
		task.Title = strings.Repeat("x", 200)

		assert.NoError(t, task.Validate())
	})

	t.Run("multibyte title counted in runes", func(t *testing.T) {
		task := newTask()
		task.Title = strings.Repeat("ü", 200)

		assert.NoError(t, task.Validate())
	})

	t.Run("description too long", func(t *testing.T) {
		task := newTask()
		desc := strings.Repeat("x", 1001)
		task.Description = &desc

		assert.True(t, IsValidationError(task.Validate()))
	})

	t.Run("invalid priority", func(t *testing.T) {
		task := newTask()
		task.Priority = "urgent"

		assert.True(t, IsValidationError(task.Validate()))
	})

	t.Run("subtask with empty title", func(t *testing.T) {
		task := newTask()
		task.Subtasks = SubtaskList{{ID: uuid.New(), Title: ""}}

		assert.True(t, IsValidationError(task.Validate()))
	})
}

func TestAddSubtask(t *testing.T) {
	task := newTask()

	first, err := task.AddSubtask("write changelog")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.False(t, first.IsCompleted)

	second, err := task.AddSubtask("tag version")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, "write changelog", task.Subtasks[0].Title)
	assert.Equal(t, "tag version", task.Subtasks[1].Title)

	_, err = task.AddSubtask("")
	assert.True(t, IsValidationError(err))
	assert.Len(t, task.Subtasks, 2)
}

func TestAddSubtaskToCompletedTaskReopensNothing(t *testing.T) {
	task := newTask()
	task.IsCompleted = true

	_, err := task.AddSubtask("forgotten step")
	require.NoError(t, err)

	// Completion never flips back automatically.
	assert.True(t, task.IsCompleted)
}

func TestUpdateSubtask(t *testing.T) {
	task := newTask()
	st, err := task.AddSubtask("draft")
	require.NoError(t, err)

	newTitle := "final draft"
	updated, err := task.UpdateSubtask(st.ID, SubtaskPatch{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "final draft", updated.Title)
	assert.False(t, updated.IsCompleted)

	done := true
	updated, err = task.UpdateSubtask(st.ID, SubtaskPatch{IsCompleted: &done})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	assert.True(t, task.IsCompleted)

	_, err = task.UpdateSubtask(uuid.New(), SubtaskPatch{Title: &newTitle})
	assert.ErrorIs(t, err, ErrSubtaskNotFound)
}

func TestRemoveSubtaskPreservesOrder(t *testing.T) {
	task := newTask()
	a, _ := task.AddSubtask("a")
	b, _ := task.AddSubtask("b")
	c, _ := task.AddSubtask("c")

	require.NoError(t, task.RemoveSubtask(b.ID))

	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, a.ID, task.Subtasks[0].ID)
	assert.Equal(t, c.ID, task.Subtasks[1].ID)

	assert.ErrorIs(t, task.RemoveSubtask(b.ID), ErrSubtaskNotFound)
}

func TestRemoveLastIncompleteSubtaskCompletesTask(t *testing.T) {
	task := newTask()
	done, _ := task.AddSubtask("done")
	open, _ := task.AddSubtask("open")

	_, err := task.ToggleSubtask(done.ID)
	require.NoError(t, err)
	assert.False(t, task.IsCompleted)

	require.NoError(t, task.RemoveSubtask(open.ID))
	assert.True(t, task.IsCompleted)
}

func TestToggleSubtaskPropagation(t *testing.T) {
	task := newTask()
	a, _ := task.AddSubtask("a")
	b, _ := task.AddSubtask("b")

	_, err := task.ToggleSubtask(a.ID)
	require.NoError(t, err)
	assert.False(t, task.IsCompleted)

	_, err = task.ToggleSubtask(b.ID)
	require.NoError(t, err)
	assert.True(t, task.IsCompleted)

	// Reopening a subtask leaves the parent completed.
	st, err := task.ToggleSubtask(a.ID)
	require.NoError(t, err)
	assert.False(t, st.IsCompleted)
	assert.True(t, task.IsCompleted)

	_, err = task.ToggleSubtask(uuid.New())
	assert.ErrorIs(t, err, ErrSubtaskNotFound)
}

func TestToggleCompletionDoesNotCascade(t *testing.T) {
	task := newTask()
	task.AddSubtask("a")

	task.ToggleCompletion()
	assert.True(t, task.IsCompleted)
	assert.False(t, task.Subtasks[0].IsCompleted)

	task.ToggleCompletion()
	assert.False(t, task.IsCompleted)
}

func TestRecomputeCompletionEmptyList(t *testing.T) {
	task := newTask()
	task.RecomputeCompletion()
	assert.False(t, task.IsCompleted)
}

func TestIsOverdue(t *testing.T) {
	task := newTask()
	assert.False(t, task.IsOverdue())

	past := time.Now().Add(-time.Hour)
	task.DueDate = &past
	assert.True(t, task.IsOverdue())

	task.IsCompleted = true
	assert.False(t, task.IsOverdue())

	future := time.Now().Add(time.Hour)
	task.DueDate = &future
	task.IsCompleted = false
	assert.False(t, task.IsOverdue())
}

func TestSubtaskListScanValue(t *testing.T) {
	list := SubtaskList{{ID: uuid.New(), Title: "a", IsCompleted: true}}

	value, err := list.Value()
	require.NoError(t, err)

	var decoded SubtaskList
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, list, decoded)

	t.Run("nil column", func(t *testing.T) {
		var decoded SubtaskList
		require.NoError(t, decoded.Scan(nil))
		assert.Nil(t, decoded)
	})

	t.Run("nil list marshals as empty array", func(t *testing.T) {
		var list SubtaskList
		value, err := list.Value()
		require.NoError(t, err)
		assert.JSONEq(t, "[]", string(value.([]byte)))
	})

	t.Run("unsupported type", func(t *testing.T) {
		var decoded SubtaskList
		assert.Error(t, decoded.Scan(42))
	})
}
