package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskhive/core/internal/domain/entities"
	"github.com/taskhive/core/internal/ports"
)

const taskColumns = "id, owner_id, title, description, is_completed, priority, due_date, subtasks, notification_sent, created_at, updated_at"

// taskSortColumns whitelists the sortable columns. Priority sorts on the raw
// enum text; ties always break by id, which is insertion order.
var taskSortColumns = map[string]string{
	"due_date":   "due_date",
	"priority":   "priority",
	"created_at": "created_at",
}

// TaskRepository implements the task repository interface on Postgres. The
// subtasks of a task live in a JSONB column on the task row, so the whole
// aggregate is written and deleted as a single atomic statement.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task and fills in its generated id and timestamps.
func (r *TaskRepository) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (owner_id, title, description, is_completed, priority, due_date, subtasks, notification_sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		task.OwnerID,
		task.Title,
		task.Description,
		task.IsCompleted,
		task.Priority,
		task.DueDate,
		task.Subtasks,
		task.NotificationSent,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task scoped by owner. A task owned by someone else is
// reported the same way as a missing one.
func (r *TaskRepository) GetByID(ctx context.Context, id int64, ownerID uuid.UUID) (*entities.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1 AND owner_id = $2", taskColumns)

	var task entities.Task
	err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID), &task)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// Update writes the task back, owner-scoped, and refreshes updated_at.
func (r *TaskRepository) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $3, description = $4, is_completed = $5, priority = $6, due_date = $7, subtasks = $8, notification_sent = $9, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.IsCompleted,
		task.Priority,
		task.DueDate,
		task.Subtasks,
		task.NotificationSent,
	).Scan(&task.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.ErrTaskNotFound
		}
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

// Delete removes the task row. Subtasks live in the row, so the cascade is
// the same single statement.
func (r *TaskRepository) Delete(ctx context.Context, id int64, ownerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

// List retrieves one owner's tasks with filtering, sorting and pagination.
// The total is counted with the same filters as the page query.
func (r *TaskRepository) List(ctx context.Context, ownerID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	whereClause, args := buildTaskFilter(ownerID, filter)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tasks %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM tasks %s ORDER BY %s LIMIT $%d OFFSET $%d",
		taskColumns,
		whereClause,
		taskOrderBy(filter.SortBy, filter.SortOrder),
		len(args)+1,
		len(args)+2,
	)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*entities.Task
	for rows.Next() {
		var task entities.Task
		if err := scanTask(rows, &task); err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return tasks, total, nil
}

// Stats returns one owner's aggregate counts in a single pass.
func (r *TaskRepository) Stats(ctx context.Context, ownerID uuid.UUID) (*ports.TaskStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE is_completed) AS completed,
			COUNT(*) FILTER (WHERE NOT is_completed) AS pending,
			COUNT(*) FILTER (WHERE priority = 'high') AS high_priority,
			COUNT(*) FILTER (WHERE due_date IS NOT NULL AND due_date < NOW() AND NOT is_completed) AS overdue
		FROM tasks
		WHERE owner_id = $1
	`

	var stats ports.TaskStats
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&stats.Total,
		&stats.Completed,
		&stats.Pending,
		&stats.HighPriority,
		&stats.Overdue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate task stats: %w", err)
	}

	return &stats, nil
}

// FindOverdueUnnotified returns unnotified incomplete tasks past their due
// date, joined with the owner's email. Inactive owners are skipped.
func (r *TaskRepository) FindOverdueUnnotified(ctx context.Context) ([]ports.ReminderTask, error) {
	query := fmt.Sprintf(`
		SELECT %s, u.email
		FROM tasks t
		JOIN users u ON u.id = t.owner_id
		WHERE t.due_date IS NOT NULL
		  AND t.due_date < NOW()
		  AND NOT t.is_completed
		  AND NOT t.notification_sent
		  AND u.is_active
		ORDER BY t.due_date ASC
	`, prefixedTaskColumns("t"))

	return r.queryReminders(ctx, query)
}

// FindDueWithinWindow returns unnotified incomplete tasks due inside
// [from, to], joined with the owner's email.
func (r *TaskRepository) FindDueWithinWindow(ctx context.Context, from, to time.Time) ([]ports.ReminderTask, error) {
	query := fmt.Sprintf(`
		SELECT %s, u.email
		FROM tasks t
		JOIN users u ON u.id = t.owner_id
		WHERE t.due_date BETWEEN $1 AND $2
		  AND NOT t.is_completed
		  AND NOT t.notification_sent
		  AND u.is_active
		ORDER BY t.due_date ASC
	`, prefixedTaskColumns("t"))

	return r.queryReminders(ctx, query, from, to)
}

// MarkNotificationSent flips the idempotency flag after a confirmed send.
func (r *TaskRepository) MarkNotificationSent(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "UPDATE tasks SET notification_sent = TRUE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepository) queryReminders(ctx context.Context, query string, args ...interface{}) ([]ports.ReminderTask, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder tasks: %w", err)
	}
	defer rows.Close()

	var reminders []ports.ReminderTask
	for rows.Next() {
		var rt ports.ReminderTask
		err := rows.Scan(
			&rt.Task.ID,
			&rt.Task.OwnerID,
			&rt.Task.Title,
			&rt.Task.Description,
			&rt.Task.IsCompleted,
			&rt.Task.Priority,
			&rt.Task.DueDate,
			&rt.Task.Subtasks,
			&rt.Task.NotificationSent,
			&rt.Task.CreatedAt,
			&rt.Task.UpdatedAt,
			&rt.OwnerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder task: %w", err)
		}
		reminders = append(reminders, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return reminders, nil
}

// buildTaskFilter assembles the owner-scoped WHERE clause and its arguments.
func buildTaskFilter(ownerID uuid.UUID, filter ports.TaskFilter) (string, []interface{}) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{ownerID}
	argIndex := 2

	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argIndex))
		args = append(args, *filter.Priority)
		argIndex++
	}

	if filter.IsCompleted != nil {
		conditions = append(conditions, fmt.Sprintf("is_completed = $%d", argIndex))
		args = append(args, *filter.IsCompleted)
		argIndex++
	}

	if filter.DueDateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", argIndex))
		args = append(args, *filter.DueDateFrom)
		argIndex++
	}

	if filter.DueDateTo != nil {
		conditions = append(conditions, fmt.Sprintf("due_date <= $%d", argIndex))
		args = append(args, *filter.DueDateTo)
		argIndex++
	}

	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+escapeLike(*filter.Search)+"%")
		argIndex++
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// taskOrderBy maps the requested sort onto whitelisted columns. Unknown sort
// keys fall back to created_at; the default order is descending.
func taskOrderBy(sortBy, sortOrder string) string {
	column, ok := taskSortColumns[sortBy]
	if !ok {
		column = "created_at"
	}

	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}

	return fmt.Sprintf("%s %s, id ASC", column, direction)
}

func prefixedTaskColumns(alias string) string {
	cols := strings.Split(taskColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner, task *entities.Task) error {
	return row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.IsCompleted,
		&task.Priority,
		&task.DueDate,
		&task.Subtasks,
		&task.NotificationSent,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
}
