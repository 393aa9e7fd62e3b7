package repo

import (
	"context"
	"errors"
	"fmt"

	"agileboard-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrTaskNotFound indicates the task id does not exist
	ErrTaskNotFound = errors.New("task not found")
)

// TaskRepository handles database operations for tasks and their watcher set.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository instance.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

const taskColumns = `id, project_id, type, priority, status, title, description, assignee, reporter, visible, created_at, updated_at`

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.Type, &t.Priority, &t.Status, &t.Title,
		&t.Description, &t.Assignee, &t.Reporter, &t.Visible, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Create inserts a new task. The reporter and assignee are not written to
// the watcher table; notification recipients union them in, and the unwatch
// lock keeps them from opting out.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (id, project_id, type, priority, status, title, description, assignee, reporter, visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		t.ID, t.ProjectID, t.Type, t.Priority, t.Status, t.Title,
		t.Description, t.Assignee, t.Reporter, t.Visible,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Get retrieves a task with its watcher set. Returns ErrTaskNotFound when
// absent.
func (r *TaskRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1
	`

	t, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("query task: %w", err)
	}

	watchers, err := r.listWatchers(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Watchers = watchers
	return &t, nil
}

// GetWorkspaceID resolves a task to its owning workspace id by walking
// task -> project -> workspace.
func (r *TaskRepository) GetWorkspaceID(ctx context.Context, taskID string) (string, error) {
	query := `
		SELECT p.workspace_id
		FROM tasks t
		JOIN projects p ON t.project_id = p.id
		WHERE t.id = $1
	`

	var workspaceID string
	err := r.pool.QueryRow(ctx, query, taskID).Scan(&workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrTaskNotFound
		}
		return "", fmt.Errorf("query task workspace: %w", err)
	}
	return workspaceID, nil
}

// ListByWorkspace retrieves every task in the workspace across all projects,
// ordered by title.
func (r *TaskRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Task, error) {
	query := `
		SELECT t.` + taskJoinColumns() + `
		FROM tasks t
		JOIN projects p ON t.project_id = p.id
		WHERE p.workspace_id = $1
		ORDER BY t.title
	`

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query workspace tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListByProject retrieves a project's tasks with the given visibility flag,
// ordered by title. The handler groups the result into board columns.
func (r *TaskRepository) ListByProject(ctx context.Context, projectID string, visible bool) ([]domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE project_id = $1 AND visible = $2
		ORDER BY title
	`

	rows, err := r.pool.Query(ctx, query, projectID, visible)
	if err != nil {
		return nil, fmt.Errorf("query project tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// Update applies the non-nil fields of req to the task.
func (r *TaskRepository) Update(ctx context.Context, id string, req *domain.UpdateTaskRequest) error {
	query := `
		UPDATE tasks
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    type = COALESCE($4, type),
		    priority = COALESCE($5, priority),
		    status = COALESCE($6, status),
		    assignee = COALESCE($7, assignee),
		    visible = COALESCE($8, visible),
		    updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id,
		req.Title, req.Description, req.Type, req.Priority, req.Status, req.Assignee, req.Visible)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task and its comments and watcher rows via cascade.
// Callers that fan out a deletion notice must build the message payload from
// a snapshot taken before calling this.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// AddWatcher adds a user to the task's watcher set; re-adding is a no-op.
func (r *TaskRepository) AddWatcher(ctx context.Context, taskID, username string) error {
	query := `
		INSERT INTO task_watchers (task_id, username)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, taskID, username); err != nil {
		return fmt.Errorf("add watcher: %w", err)
	}
	return nil
}

// RemoveWatcher removes a user from the task's watcher set.
func (r *TaskRepository) RemoveWatcher(ctx context.Context, taskID, username string) error {
	query := `
		DELETE FROM task_watchers
		WHERE task_id = $1 AND username = $2
	`

	if _, err := r.pool.Exec(ctx, query, taskID, username); err != nil {
		return fmt.Errorf("remove watcher: %w", err)
	}
	return nil
}

func (r *TaskRepository) listWatchers(ctx context.Context, taskID string) ([]string, error) {
	query := `
		SELECT username
		FROM task_watchers
		WHERE task_id = $1
		ORDER BY username
	`

	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("query watchers: %w", err)
	}
	defer rows.Close()

	var watchers []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("scan watcher: %w", err)
		}
		watchers = append(watchers, username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchers: %w", err)
	}
	return watchers, nil
}

func taskJoinColumns() string {
	return `id, t.project_id, t.type, t.priority, t.status, t.title, t.description, t.assignee, t.reporter, t.visible, t.created_at, t.updated_at`
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		err := rows.Scan(&t.ID, &t.ProjectID, &t.Type, &t.Priority, &t.Status, &t.Title,
			&t.Description, &t.Assignee, &t.Reporter, &t.Visible, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}
