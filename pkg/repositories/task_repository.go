package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/doit-inc/doit-engine/pkg/apperrors"
	"github.com/doit-inc/doit-engine/pkg/database"
	"github.com/doit-inc/doit-engine/pkg/models"
)

// TaskRepository defines data access for tasks. List methods return the full
// matching set; pagination happens above, after the visibility union is
// materialized.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, id uuid.UUID) (*models.Task, error)
	// Update never touches project_id; a task cannot move between projects.
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListByProject(ctx context.Context, projectID uuid.UUID, assigneeID *uuid.UUID) ([]*models.Task, error)
	ListByProjects(ctx context.Context, projectIDs []uuid.UUID, assigneeID *uuid.UUID) ([]*models.Task, error)
	// ListAll is the superuser path across every project.
	ListAll(ctx context.Context, assigneeID *uuid.UUID) ([]*models.Task, error)
}

type taskRepository struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *database.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, project_id, section_id, owner_id, assignee_id, title, COALESCE(description, ''), status, priority, COALESCE(due_date, ''), created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	query := `
		INSERT INTO tasks (id, project_id, section_id, owner_id, assignee_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, NULLIF($10, ''), $11, $12)`

	_, err := r.db.Exec(ctx, query,
		task.ID, task.ProjectID, task.SectionID, task.OwnerID, task.AssigneeID,
		task.Title, task.Description, task.Status, task.Priority, task.DueDate,
		task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return storageErr("create task", err)
	}
	return nil
}

func (r *taskRepository) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, scanErr("get task", err)
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now()

	query := `
		UPDATE tasks
		SET section_id = $2, assignee_id = $3, title = $4,
		    description = NULLIF($5, ''), status = $6, priority = $7,
		    due_date = NULLIF($8, ''), updated_at = $9
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		task.ID, task.SectionID, task.AssigneeID, task.Title,
		task.Description, task.Status, task.Priority, task.DueDate,
		task.UpdatedAt)
	if err != nil {
		return storageErr("update task", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete task", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *taskRepository) ListByProject(ctx context.Context, projectID uuid.UUID, assigneeID *uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1`
	args := []any{projectID}
	if assigneeID != nil {
		query += ` AND assignee_id = $2`
		args = append(args, *assigneeID)
	}
	query += ` ORDER BY created_at`
	return r.queryTasks(ctx, query, args...)
}

func (r *taskRepository) ListByProjects(ctx context.Context, projectIDs []uuid.UUID, assigneeID *uuid.UUID) ([]*models.Task, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ANY($1)`
	args := []any{projectIDs}
	if assigneeID != nil {
		query += ` AND assignee_id = $2`
		args = append(args, *assigneeID)
	}
	query += ` ORDER BY created_at`
	return r.queryTasks(ctx, query, args...)
}

func (r *taskRepository) ListAll(ctx context.Context, assigneeID *uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if assigneeID != nil {
		query += ` WHERE assignee_id = $1`
		args = append(args, *assigneeID)
	}
	query += ` ORDER BY created_at`
	return r.queryTasks(ctx, query, args...)
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, storageErr("scan task", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tasks", err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.SectionID, &t.OwnerID, &t.AssigneeID,
		&t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var _ TaskRepository = (*taskRepository)(nil)
