package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"agileboard-api/internal/domain"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/repo"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Validation messages keyed per offending field/username in the aggregated
// 400 response.
const (
	msgUnknownWorkspace = "Object with this ID does not exist."
	msgUnknownUser      = "Object with this ID does not exist."
	msgInvalidRole      = "Value should be one of: admin, editor, viewer."
)

// PermissionStore is the role store surface the reconciler consumes.
// The transactional methods take the pgx.Tx returned by BeginTx; the
// FOR UPDATE snapshot serializes concurrent reconciliations per workspace.
type PermissionStore interface {
	Get(ctx context.Context, workspaceID, username string) (*domain.Permission, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Permission, error)
	ListWorkspaceIDsByRole(ctx context.Context, username string, role domain.Role) ([]string, error)
	BeginTx(ctx context.Context) (pgx.Tx, error)
	ListByWorkspaceForUpdate(ctx context.Context, tx pgx.Tx, workspaceID string) ([]domain.Permission, error)
	UpdateRoles(ctx context.Context, tx pgx.Tx, workspaceID string, usernames []string, role domain.Role, grantedBy string) error
	CreateRoles(ctx context.Context, tx pgx.Tx, workspaceID string, usernames []string, role domain.Role, grantedBy string) error
	DeleteRoles(ctx context.Context, tx pgx.Tx, workspaceID string, usernames []string) error
}

// UserStore is the user lookup surface the reconciler consumes.
type UserStore interface {
	ExistingUsernames(ctx context.Context, usernames []string) (map[string]bool, error)
	ListUsernamesExcluding(ctx context.Context, exclude []string) ([]string, error)
}

// WorkspaceStore is the workspace surface the permission service consumes.
type WorkspaceStore interface {
	Get(ctx context.Context, id string) (*domain.Workspace, error)
	ListIDsExcluding(ctx context.Context, exclude []string) ([]string, error)
}

// PermissionNotifier delivers a committed changelist to the affected users'
// mailboxes. Failures are the notifier's to report; they never roll back the
// permission change.
type PermissionNotifier interface {
	NotifyPermissionChange(ctx context.Context, actor string, workspace *domain.Workspace, changes domain.ChangeList) error
}

// PermissionService owns the workspace user-role table: the read view with
// synthesized viewer entries, the per-user scope view, and the bulk
// reconciliation an admin triggers by saving the table.
type PermissionService struct {
	perms      PermissionStore
	users      UserStore
	workspaces WorkspaceStore
	notifier   PermissionNotifier
	log        *logger.Logger
}

// NewPermissionService creates a new PermissionService.
func NewPermissionService(perms PermissionStore, users UserStore, workspaces WorkspaceStore, notifier PermissionNotifier, log *logger.Logger) *PermissionService {
	return &PermissionService{
		perms:      perms,
		users:      users,
		workspaces: workspaces,
		notifier:   notifier,
		log:        log,
	}
}

// UserTable returns the full user-role table of a workspace: the persisted
// admin and editor rows plus a synthesized viewer entry for every other
// user, sorted by username. An unknown workspace yields an empty table, not
// an error.
func (s *PermissionService) UserTable(ctx context.Context, workspaceID string) ([]domain.Permission, error) {
	ws, err := s.workspaces.Get(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, repo.ErrWorkspaceNotFound) {
			return []domain.Permission{}, nil
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}

	explicit, err := s.perms.ListByWorkspace(ctx, ws.ID)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	explicitNames := make([]string, 0, len(explicit))
	for _, p := range explicit {
		explicitNames = append(explicitNames, p.Username)
	}

	common, err := s.users.ListUsernamesExcluding(ctx, explicitNames)
	if err != nil {
		return nil, fmt.Errorf("list viewer usernames: %w", err)
	}

	table := make([]domain.Permission, 0, len(explicit)+len(common))
	table = append(table, explicit...)
	for _, username := range common {
		table = append(table, domain.Permission{
			WorkspaceID: ws.ID,
			Username:    username,
			Role:        domain.RoleViewer,
		})
	}
	sort.Slice(table, func(i, j int) bool { return table[i].Username < table[j].Username })
	return table, nil
}

// Scope groups all workspace ids by the caller's effective role. The viewer
// bucket is the complement: every workspace without an explicit row.
func (s *PermissionService) Scope(ctx context.Context, username string) (*domain.UserScope, error) {
	admin, err := s.perms.ListWorkspaceIDsByRole(ctx, username, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admin workspaces: %w", err)
	}
	editor, err := s.perms.ListWorkspaceIDsByRole(ctx, username, domain.RoleEditor)
	if err != nil {
		return nil, fmt.Errorf("list editor workspaces: %w", err)
	}

	explicit := make([]string, 0, len(admin)+len(editor))
	explicit = append(explicit, admin...)
	explicit = append(explicit, editor...)

	viewer, err := s.workspaces.ListIDsExcluding(ctx, explicit)
	if err != nil {
		return nil, fmt.Errorf("list viewer workspaces: %w", err)
	}

	return &domain.UserScope{
		Admin:  emptyIfNil(admin),
		Editor: emptyIfNil(editor),
		Viewer: emptyIfNil(viewer),
	}, nil
}

// Reconcile drives the role store to the desired end state for one
// workspace. The desired map is authoritative: users mapped to admin or
// editor end up with exactly that explicit row, and every other user ends up
// as an implicit viewer, whether the map names them as viewer or omits them
// entirely.
//
// All input problems are aggregated into one ValidationError; nothing is
// applied unless the whole map is valid. The update/insert/delete batches
// run inside a single transaction holding FOR UPDATE locks on the
// workspace's existing rows, so concurrent reconciliations of the same
// workspace serialize. The returned changelist is computed against the
// locked pre-write snapshot and fans out to mailboxes only after commit.
func (s *PermissionService) Reconcile(ctx context.Context, workspaceID string, desired map[string]string, granter string) (domain.ChangeList, error) {
	// Phase 1: validate everything, reporting all problems at once.
	fields := make(map[string]string)

	ws, err := s.workspaces.Get(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, repo.ErrWorkspaceNotFound) {
			fields["workspaceId"] = msgUnknownWorkspace
		} else {
			return nil, fmt.Errorf("get workspace: %w", err)
		}
	}

	desiredRoles := make(map[string]domain.Role, len(desired))
	usernames := make([]string, 0, len(desired))
	for username, roleStr := range desired {
		role, parseErr := domain.ParseRole(roleStr)
		if parseErr != nil {
			fields[username] = msgInvalidRole
			continue
		}
		desiredRoles[username] = role
		usernames = append(usernames, username)
	}

	known, err := s.users.ExistingUsernames(ctx, usernames)
	if err != nil {
		return nil, fmt.Errorf("check usernames: %w", err)
	}
	for _, username := range usernames {
		if !known[username] {
			fields[username] = msgUnknownUser
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// Phase 2: snapshot, diff and apply inside one transaction.
	tx, err := s.perms.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reconcile transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	snapshot, err := s.perms.ListByWorkspaceForUpdate(ctx, tx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("snapshot permissions: %w", err)
	}

	before := make(map[string]domain.Role, len(snapshot))
	for _, p := range snapshot {
		before[p.Username] = p.Role
	}

	changes := diffRoles(before, desiredRoles)

	var updates, inserts, deletes map[domain.Role][]string
	updates, inserts = partitionWrites(before, desiredRoles)
	deletes = map[domain.Role][]string{}

	// Every explicit row whose target is viewer (named or implied by
	// absence) is deleted, reverting the user to the implicit default.
	var withdrawn []string
	for username := range before {
		if role, ok := desiredRoles[username]; !ok || role == domain.RoleViewer {
			withdrawn = append(withdrawn, username)
		}
	}
	sort.Strings(withdrawn)
	deletes[domain.RoleViewer] = withdrawn

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleEditor} {
		if err := s.perms.UpdateRoles(ctx, tx, workspaceID, updates[role], role, granter); err != nil {
			return nil, err
		}
		if err := s.perms.CreateRoles(ctx, tx, workspaceID, inserts[role], role, granter); err != nil {
			return nil, err
		}
	}
	if err := s.perms.DeleteRoles(ctx, tx, workspaceID, deletes[domain.RoleViewer]); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reconcile transaction: %w", err)
	}

	s.log.Info(ctx, "workspace roles reconciled",
		logger.Module("permission"),
		zap.String("workspace_id", workspaceID),
		zap.String("granter", granter),
		zap.Int("changes", len(changes)),
	)

	// Phase 3: fanout after commit. A delivery failure never undoes the
	// committed role changes; the notifier reports it to operators.
	if len(changes) > 0 {
		if err := s.notifier.NotifyPermissionChange(ctx, granter, ws, changes); err != nil {
			s.log.Error(ctx, "permission change fanout incomplete",
				logger.Module("permission"),
				zap.String("workspace_id", workspaceID),
				zap.Error(err),
			)
		}
	}

	return changes, nil
}

// diffRoles compares the pre-write snapshot with the desired end state and
// records one entry per user whose effective role changes. Users absent from
// the desired map are headed for implicit viewer.
func diffRoles(before map[string]domain.Role, desired map[string]domain.Role) domain.ChangeList {
	changes := domain.ChangeList{}
	for username, newRole := range desired {
		oldRole, ok := before[username]
		if !ok {
			oldRole = domain.RoleViewer
		}
		if oldRole != newRole {
			changes = append(changes, domain.ChangeEntry{Username: username, OldRole: oldRole, NewRole: newRole})
		}
	}
	for username, oldRole := range before {
		if _, ok := desired[username]; !ok {
			changes = append(changes, domain.ChangeEntry{Username: username, OldRole: oldRole, NewRole: domain.RoleViewer})
		}
	}
	changes.Sort()
	return changes
}

// partitionWrites splits the admin and editor groups into the batch-update
// set (existing rows whose role differs) and the batch-insert set (no row
// yet). Rows already holding the target role are untouched, which is what
// makes a repeated reconcile a no-op.
func partitionWrites(before map[string]domain.Role, desired map[string]domain.Role) (updates, inserts map[domain.Role][]string) {
	updates = map[domain.Role][]string{}
	inserts = map[domain.Role][]string{}
	for username, role := range desired {
		if !role.IsExplicit() {
			continue
		}
		oldRole, exists := before[username]
		switch {
		case !exists:
			inserts[role] = append(inserts[role], username)
		case oldRole != role:
			updates[role] = append(updates[role], username)
		}
	}
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleEditor} {
		sort.Strings(updates[role])
		sort.Strings(inserts[role])
	}
	return updates, inserts
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
