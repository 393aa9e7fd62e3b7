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
	// ErrWorkspaceNotFound indicates the workspace id does not exist
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

// WorkspaceRepository handles database operations for workspaces.
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository instance.
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

// Create inserts a new workspace.
func (r *WorkspaceRepository) Create(ctx context.Context, ws *domain.Workspace) error {
	query := `
		INSERT INTO workspaces (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, ws.ID, ws.Name, ws.Description).Scan(&ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert workspace: %w", err)
	}
	return nil
}

// Get retrieves a workspace by id. Returns ErrWorkspaceNotFound when absent.
func (r *WorkspaceRepository) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM workspaces
		WHERE id = $1
	`

	var ws domain.Workspace
	err := r.pool.QueryRow(ctx, query, id).Scan(&ws.ID, &ws.Name, &ws.Description, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("query workspace: %w", err)
	}
	return &ws, nil
}

// List retrieves all workspaces ordered by name. Read access is global, so
// there is no per-user filter here.
func (r *WorkspaceRepository) List(ctx context.Context) ([]domain.Workspace, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM workspaces
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []domain.Workspace
	for rows.Next() {
		var ws domain.Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Description, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspaces: %w", err)
	}
	return workspaces, nil
}

// ListIDsExcluding retrieves all workspace ids not in the given set, used to
// compute the implicit-viewer bucket of a user's scope.
func (r *WorkspaceRepository) ListIDsExcluding(ctx context.Context, exclude []string) ([]string, error) {
	query := `
		SELECT id
		FROM workspaces
		WHERE NOT (id = ANY($1))
		ORDER BY id
	`

	if exclude == nil {
		exclude = []string{}
	}

	rows, err := r.pool.Query(ctx, query, exclude)
	if err != nil {
		return nil, fmt.Errorf("query workspace ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan workspace id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspace ids: %w", err)
	}
	return ids, nil
}

// Delete removes a workspace. Projects, tasks, comments and permission rows
// go with it via ON DELETE CASCADE.
func (r *WorkspaceRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkspaceNotFound
	}
	return nil
}

// Exists reports whether the workspace id is present.
func (r *WorkspaceRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM workspaces WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check workspace existence: %w", err)
	}
	return exists, nil
}
