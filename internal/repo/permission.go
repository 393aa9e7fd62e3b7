package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agileboard-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrPermissionNotFound indicates no explicit row exists for the
	// (workspace, user) pair. Callers must map this to the implicit viewer
	// role through the authorization resolver, never inline.
	ErrPermissionNotFound = errors.New("no explicit permission for this user in this workspace")
)

// PermissionRepository is the role store: the persisted mapping of
// (workspace, user) to role. Only admin and editor rows exist; viewer status
// is the absence of a row.
type PermissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository creates a new PermissionRepository instance.
func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

const permissionColumns = `workspace_id, username, role, granted_by, granted_at, last_updated_at`

func scanPermission(row pgx.Row) (domain.Permission, error) {
	var p domain.Permission
	err := row.Scan(&p.WorkspaceID, &p.Username, &p.Role, &p.GrantedBy, &p.GrantedAt, &p.LastUpdatedAt)
	return p, err
}

// Get retrieves the explicit permission row for a user in a workspace.
// Returns ErrPermissionNotFound when no row exists.
func (r *PermissionRepository) Get(ctx context.Context, workspaceID, username string) (*domain.Permission, error) {
	query := `
		SELECT ` + permissionColumns + `
		FROM permissions
		WHERE workspace_id = $1 AND username = $2
	`

	p, err := scanPermission(r.pool.QueryRow(ctx, query, workspaceID, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("query permission: %w", err)
	}
	return &p, nil
}

// ListByWorkspace retrieves all explicit rows for a workspace, sorted by
// username.
func (r *PermissionRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Permission, error) {
	query := `
		SELECT ` + permissionColumns + `
		FROM permissions
		WHERE workspace_id = $1
		ORDER BY username
	`

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query workspace permissions: %w", err)
	}
	defer rows.Close()

	return collectPermissions(rows)
}

// ListWorkspaceIDsByRole retrieves the ids of every workspace in which the
// user holds the given explicit role, used for the user-scope view.
func (r *PermissionRepository) ListWorkspaceIDsByRole(ctx context.Context, username string, role domain.Role) ([]string, error) {
	query := `
		SELECT workspace_id
		FROM permissions
		WHERE username = $1 AND role = $2
		ORDER BY workspace_id
	`

	rows, err := r.pool.Query(ctx, query, username, role)
	if err != nil {
		return nil, fmt.Errorf("query workspaces by role: %w", err)
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

// Grant upserts a single explicit row outside any reconciliation, used to
// seed the creator of a fresh workspace as its admin.
func (r *PermissionRepository) Grant(ctx context.Context, workspaceID, username string, role domain.Role, grantedBy string) error {
	query := `
		INSERT INTO permissions (workspace_id, username, role, granted_by, granted_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (workspace_id, username)
		DO UPDATE SET role = EXCLUDED.role, granted_by = EXCLUDED.granted_by, last_updated_at = EXCLUDED.last_updated_at
	`

	if _, err := r.pool.Exec(ctx, query, workspaceID, username, role, grantedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}

// =====================================================
// Reconciliation primitives
// =====================================================
// The role reconciler runs its update/insert/delete batches inside a single
// transaction. ListByWorkspaceForUpdate takes row-level locks on the
// workspace's existing rows, serializing concurrent reconciliations of the
// same workspace; reconciliations for different workspaces do not contend.

// BeginTx starts a transaction for a reconciliation.
func (r *PermissionRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// ListByWorkspaceForUpdate retrieves the workspace's explicit rows under
// FOR UPDATE locks. The returned snapshot is the "before" state the
// changelist is computed against.
func (r *PermissionRepository) ListByWorkspaceForUpdate(ctx context.Context, tx pgx.Tx, workspaceID string) ([]domain.Permission, error) {
	query := `
		SELECT ` + permissionColumns + `
		FROM permissions
		WHERE workspace_id = $1
		ORDER BY username
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("lock workspace permissions: %w", err)
	}
	defer rows.Close()

	return collectPermissions(rows)
}

// UpdateRoles batch-updates the role of existing rows for the given
// usernames, refreshing granter and update timestamp in the same statement.
func (r *PermissionRepository) UpdateRoles(ctx context.Context, tx pgx.Tx, workspaceID string, usernames []string, role domain.Role, grantedBy string) error {
	if len(usernames) == 0 {
		return nil
	}

	query := `
		UPDATE permissions
		SET role = $3, granted_by = $4, last_updated_at = $5
		WHERE workspace_id = $1 AND username = ANY($2)
	`

	if _, err := tx.Exec(ctx, query, workspaceID, usernames, role, grantedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("batch update permissions: %w", err)
	}
	return nil
}

// CreateRoles batch-inserts new rows for usernames with no existing entry.
// Uses a pgx batch so the inserts ride a single round trip.
func (r *PermissionRepository) CreateRoles(ctx context.Context, tx pgx.Tx, workspaceID string, usernames []string, role domain.Role, grantedBy string) error {
	if len(usernames) == 0 {
		return nil
	}

	query := `
		INSERT INTO permissions (workspace_id, username, role, granted_by, granted_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, username := range usernames {
		batch.Queue(query, workspaceID, username, role, grantedBy, now)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("batch create permissions: %w", err)
	}
	return nil
}

// DeleteRoles batch-deletes the rows for the given usernames, reverting them
// to implicit viewer.
func (r *PermissionRepository) DeleteRoles(ctx context.Context, tx pgx.Tx, workspaceID string, usernames []string) error {
	if len(usernames) == 0 {
		return nil
	}

	query := `
		DELETE FROM permissions
		WHERE workspace_id = $1 AND username = ANY($2)
	`

	if _, err := tx.Exec(ctx, query, workspaceID, usernames); err != nil {
		return fmt.Errorf("batch delete permissions: %w", err)
	}
	return nil
}

func collectPermissions(rows pgx.Rows) ([]domain.Permission, error) {
	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		err := rows.Scan(&p.WorkspaceID, &p.Username, &p.Role, &p.GrantedBy, &p.GrantedAt, &p.LastUpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}
	return perms, nil
}
