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
	// ErrProjectNotFound indicates the project id does not exist
	ErrProjectNotFound = errors.New("project not found")
)

// ProjectRepository handles database operations for projects.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new ProjectRepository instance.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	query := `
		INSERT INTO projects (id, workspace_id, name, description, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, p.ID, p.WorkspaceID, p.Name, p.Description, p.Owner).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// Get retrieves a project by id. Returns ErrProjectNotFound when absent.
func (r *ProjectRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	query := `
		SELECT id, workspace_id, name, description, owner, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var p domain.Project
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Description, &p.Owner, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("query project: %w", err)
	}
	return &p, nil
}

// GetWorkspaceID resolves a project to its owning workspace id.
// The authorization resolver uses this to walk the ownership chain.
func (r *ProjectRepository) GetWorkspaceID(ctx context.Context, projectID string) (string, error) {
	var workspaceID string
	err := r.pool.QueryRow(ctx, `SELECT workspace_id FROM projects WHERE id = $1`, projectID).Scan(&workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProjectNotFound
		}
		return "", fmt.Errorf("query project workspace: %w", err)
	}
	return workspaceID, nil
}

// ListByWorkspace retrieves a workspace's projects ordered by name.
func (r *ProjectRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Project, error) {
	query := `
		SELECT id, workspace_id, name, description, owner, created_at, updated_at
		FROM projects
		WHERE workspace_id = $1
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Description, &p.Owner, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// Update applies the non-nil fields of req to the project. The owning
// workspace is immutable and never part of the update.
func (r *ProjectRepository) Update(ctx context.Context, id string, req *domain.UpdateProjectRequest) error {
	query := `
		UPDATE projects
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, req.Name, req.Description)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Delete removes a project and, via cascade, its tasks and their comments.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}
