package entities

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidToken    = errors.New("invalid token")
)

// ValidationError reports a malformed field on input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Priority of a task. Sorting treats these as plain strings.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// User represents an account in the system. Tasks reference it by owner id.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Subtask is owned exclusively by its parent task. Its id is unique within
// the task only.
type Subtask struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"is_completed"`
}

// SubtaskList is stored as a JSONB column, preserving insertion order.
type SubtaskList []Subtask

// Value implements driver.Valuer.
func (l SubtaskList) Value() (driver.Value, error) {
	if l == nil {
		l = SubtaskList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *SubtaskList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported subtasks column type %T", src)
	}
}

// Task is the aggregate root: the task row together with its subtasks.
type Task struct {
	ID               int64       `json:"id" db:"id"`
	OwnerID          uuid.UUID   `json:"owner_id" db:"owner_id"`
	Title            string      `json:"title" db:"title"`
	Description      *string     `json:"description" db:"description"`
	IsCompleted      bool        `json:"is_completed" db:"is_completed"`
	Priority         Priority    `json:"priority" db:"priority"`
	DueDate          *time.Time  `json:"due_date" db:"due_date"`
	Subtasks         SubtaskList `json:"subtasks" db:"subtasks"`
	NotificationSent bool        `json:"notification_sent" db:"notification_sent"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// SubtaskPatch is a partial update for a subtask.
type SubtaskPatch struct {
	Title       *string
	IsCompleted *bool
}

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

func validateTitle(field, title string) error {
	if title == "" {
		return NewValidationError(field, "is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return NewValidationError(field, fmt.Sprintf("must be at most %d characters", maxTitleLen))
	}
	return nil
}

// Validate checks the task's own fields.
func (t *Task) Validate() error {
	if err := validateTitle("title", t.Title); err != nil {
		return err
	}
	if t.Description != nil && utf8.RuneCountInString(*t.Description) > maxDescriptionLen {
		return NewValidationError("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLen))
	}
	if !t.Priority.IsValid() {
		return NewValidationError("priority", "must be one of low, medium, high")
	}
	for _, st := range t.Subtasks {
		if err := validateTitle("subtasks.title", st.Title); err != nil {
			return err
		}
	}
	return nil
}

// AddSubtask appends a new subtask with a fresh id and recomputes completion.
func (t *Task) AddSubtask(title string) (*Subtask, error) {
	if err := validateTitle("title", title); err != nil {
		return nil, err
	}

	t.Subtasks = append(t.Subtasks, Subtask{
		ID:    uuid.New(),
		Title: title,
	})
	t.RecomputeCompletion()

	return &t.Subtasks[len(t.Subtasks)-1], nil
}

// UpdateSubtask applies a partial update to the matching subtask.
func (t *Task) UpdateSubtask(subtaskID uuid.UUID, patch SubtaskPatch) (*Subtask, error) {
	idx := t.findSubtask(subtaskID)
	if idx < 0 {
		return nil, ErrSubtaskNotFound
	}

	if patch.Title != nil {
		if err := validateTitle("title", *patch.Title); err != nil {
			return nil, err
		}
		t.Subtasks[idx].Title = *patch.Title
	}
	if patch.IsCompleted != nil {
		t.Subtasks[idx].IsCompleted = *patch.IsCompleted
	}
	t.RecomputeCompletion()

	return &t.Subtasks[idx], nil
}

// RemoveSubtask removes the matching subtask, preserving the order of the
// rest. Removing the last incomplete subtask may flip the task to completed.
func (t *Task) RemoveSubtask(subtaskID uuid.UUID) error {
	idx := t.findSubtask(subtaskID)
	if idx < 0 {
		return ErrSubtaskNotFound
	}

	t.Subtasks = append(t.Subtasks[:idx], t.Subtasks[idx+1:]...)
	t.RecomputeCompletion()

	return nil
}

// ToggleSubtask flips a subtask's completion and recomputes the parent's.
func (t *Task) ToggleSubtask(subtaskID uuid.UUID) (*Subtask, error) {
	idx := t.findSubtask(subtaskID)
	if idx < 0 {
		return nil, ErrSubtaskNotFound
	}

	t.Subtasks[idx].IsCompleted = !t.Subtasks[idx].IsCompleted
	t.RecomputeCompletion()

	return &t.Subtasks[idx], nil
}

// RecomputeCompletion forces the task complete when every subtask is done.
// It never auto-uncompletes: manually completed tasks stay completed even if
// a subtask is reopened afterwards. That asymmetry is intentional.
func (t *Task) RecomputeCompletion() {
	if len(t.Subtasks) == 0 {
		return
	}
	for _, st := range t.Subtasks {
		if !st.IsCompleted {
			return
		}
	}
	t.IsCompleted = true
}

// ToggleCompletion flips the task's completion. It does not cascade to
// subtasks.
func (t *Task) ToggleCompletion() {
	t.IsCompleted = !t.IsCompleted
}

// IsOverdue reports whether the task has a due date in the past and is not
// completed.
func (t *Task) IsOverdue() bool {
	if t.DueDate == nil {
		return false
	}
	return time.Now().After(*t.DueDate) && !t.IsCompleted
}

func (t *Task) findSubtask(subtaskID uuid.UUID) int {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subtaskID {
			return i
		}
	}
	return -1
}
