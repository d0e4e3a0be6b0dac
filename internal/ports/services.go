package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/core/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ValidateToken(tokenString string) (*Claims, error)
}

// UserService interface for profile operations
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*entities.User, error)
}

// TaskService interface for task management operations. Every operation is
// scoped to the calling owner.
type TaskService interface {
	CreateTask(ctx context.Context, ownerID uuid.UUID, req CreateTaskRequest) (*entities.Task, error)
	GetTask(ctx context.Context, ownerID uuid.UUID, taskID int64) (*entities.Task, error)
	UpdateTask(ctx context.Context, ownerID uuid.UUID, taskID int64, req UpdateTaskRequest) (*entities.Task, error)
	DeleteTask(ctx context.Context, ownerID uuid.UUID, taskID int64) error
	ListTasks(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]*entities.Task, Pagination, error)
	GetStats(ctx context.Context, ownerID uuid.UUID) (*TaskStats, error)
	ToggleTaskCompletion(ctx context.Context, ownerID uuid.UUID, taskID int64) (*entities.Task, error)
	AddSubtask(ctx context.Context, ownerID uuid.UUID, taskID int64, req CreateSubtaskRequest) (*entities.Task, error)
	UpdateSubtask(ctx context.Context, ownerID uuid.UUID, taskID int64, subtaskID uuid.UUID, req UpdateSubtaskRequest) (*entities.Task, error)
	RemoveSubtask(ctx context.Context, ownerID uuid.UUID, taskID int64, subtaskID uuid.UUID) (*entities.Task, error)
	ToggleSubtaskCompletion(ctx context.Context, ownerID uuid.UUID, taskID int64, subtaskID uuid.UUID) (*entities.Task, error)
}

// Mailer sends a rendered reminder. Implementations own their timeouts; the
// sweeper only sees pass/fail.
type Mailer interface {
	Send(toEmail, subject, htmlBody string) error
}

// Request/Response Types

// Auth related types
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *entities.User `json:"user"`
}

type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// Task related types
type CreateTaskRequest struct {
	Title       string                 `json:"title" validate:"required,max=200"`
	Description *string                `json:"description" validate:"omitempty,max=1000"`
	Priority    *entities.Priority     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time             `json:"due_date"`
	Subtasks    []CreateSubtaskRequest `json:"subtasks" validate:"omitempty,dive"`
}

type UpdateTaskRequest struct {
	Title       *string            `json:"title" validate:"omitempty,max=200"`
	Description *string            `json:"description" validate:"omitempty,max=1000"`
	Priority    *entities.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	IsCompleted *bool              `json:"is_completed"`
	DueDate     *time.Time         `json:"due_date"`
}

type CreateSubtaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	IsCompleted bool   `json:"is_completed"`
}

type UpdateSubtaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	IsCompleted *bool   `json:"is_completed"`
}

// TaskListResponse is a page of tasks plus paging metadata.
type TaskListResponse struct {
	Tasks      []*entities.Task `json:"tasks"`
	Pagination Pagination       `json:"pagination"`
}
