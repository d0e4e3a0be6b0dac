package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/core/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// TaskRepository defines the interface for task data operations. All reads
// and writes of a single task are scoped by owner: a task that exists but
// belongs to someone else is indistinguishable from one that does not exist.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id int64, ownerID uuid.UUID) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id int64, ownerID uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]*entities.Task, int, error)
	Stats(ctx context.Context, ownerID uuid.UUID) (*TaskStats, error)
	FindOverdueUnnotified(ctx context.Context) ([]ReminderTask, error)
	FindDueWithinWindow(ctx context.Context, from, to time.Time) ([]ReminderTask, error)
	MarkNotificationSent(ctx context.Context, id int64) error
}

// AuthRepository defines the interface for refresh token operations
type AuthRepository interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context) error
}

// TaskFilter narrows and orders task listings. Only the fields here are
// recognized; the HTTP layer rejects anything else.
type TaskFilter struct {
	Priority    *entities.Priority
	IsCompleted *bool
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	Search      *string
	SortBy      string
	SortOrder   string
	Page        int
	Limit       int
}

// TaskStats holds one owner's aggregate counts, computed in a single pass.
type TaskStats struct {
	Total        int `json:"total" db:"total"`
	Completed    int `json:"completed" db:"completed"`
	Pending      int `json:"pending" db:"pending"`
	HighPriority int `json:"high_priority" db:"high_priority"`
	Overdue      int `json:"overdue" db:"overdue"`
}

// ReminderTask joins a due task with its owner's email for dispatch.
type ReminderTask struct {
	Task       entities.Task
	OwnerEmail string
}

// Pagination metadata returned alongside a page of tasks.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNextPage bool `json:"has_next_page"`
	HasPrevPage bool `json:"has_prev_page"`
}

// NewPagination computes paging metadata from the filtered total.
func NewPagination(total, page, limit int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && total > 0,
	}
}

// RefreshToken represents a refresh token record
type RefreshToken struct {
	ID        int64      `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash string     `json:"token_hash" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at" db:"revoked_at"`
}

// IsExpired checks if the refresh token is expired
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// IsRevoked checks if the refresh token is revoked
func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

// IsValid checks if the refresh token is valid
func (rt *RefreshToken) IsValid() bool {
	return !rt.IsExpired() && !rt.IsRevoked()
}
