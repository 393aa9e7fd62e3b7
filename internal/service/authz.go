package service

import (
	"context"
	"errors"
	"fmt"

	"agileboard-api/internal/domain"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/repo"

	"go.uber.org/zap"
)

// ResourceKind names the resource types the resolver can walk to a
// workspace.
type ResourceKind string

const (
	ResourceWorkspace ResourceKind = "workspace"
	ResourceProject   ResourceKind = "project"
	ResourceTask      ResourceKind = "task"
	ResourceComment   ResourceKind = "comment"
)

// OperationClass is the category of a mutating operation, deciding which
// role check applies.
type OperationClass string

const (
	// OpModifyPermissions covers edits to a workspace's user-role table.
	// Only a workspace admin passes; the implicit viewer never does.
	OpModifyPermissions OperationClass = "modify_permissions"

	// OpModifyData covers project, task and comment mutations. Admins and
	// editors pass.
	OpModifyData OperationClass = "modify_data"

	// OpExempt bypasses workspace-role checks. Watcher toggling and mailbox
	// operations are per-user, not per-workspace.
	OpExempt OperationClass = "exempt"
)

// Authorization reasons returned with 403 responses.
const (
	reasonPermissions = "Only admins can grant user permissions."
	reasonData        = "Only admins and editors can modify backend data."
)

// PermissionGetter reads a single explicit role row.
type PermissionGetter interface {
	Get(ctx context.Context, workspaceID, username string) (*domain.Permission, error)
}

// WorkspaceChecker verifies a workspace id exists.
type WorkspaceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// WorkspaceIDResolver walks one resource type to its owning workspace.
type WorkspaceIDResolver interface {
	GetWorkspaceID(ctx context.Context, id string) (string, error)
}

// Authorizer resolves resources to their workspace scope and issues
// allow/deny decisions for mutating operations. Read operations never pass
// through here: read access is global by design.
type Authorizer struct {
	permissions PermissionGetter
	workspaces  WorkspaceChecker
	projects    WorkspaceIDResolver
	tasks       WorkspaceIDResolver
	comments    WorkspaceIDResolver
	log         *logger.Logger
}

// NewAuthorizer creates a new Authorizer.
func NewAuthorizer(
	permissions PermissionGetter,
	workspaces WorkspaceChecker,
	projects WorkspaceIDResolver,
	tasks WorkspaceIDResolver,
	comments WorkspaceIDResolver,
	log *logger.Logger,
) *Authorizer {
	return &Authorizer{
		permissions: permissions,
		workspaces:  workspaces,
		projects:    projects,
		tasks:       tasks,
		comments:    comments,
		log:         log,
	}
}

// ResolveWorkspace walks the ownership chain from a resource to its
// workspace: workspace -> itself, project -> its workspace, task -> its
// project's workspace, comment -> its task's project's workspace. An unknown
// resource id resolves to ErrNotFound, which callers treat as pass-through
// rather than a permission failure.
func (a *Authorizer) ResolveWorkspace(ctx context.Context, kind ResourceKind, id string) (string, error) {
	switch kind {
	case ResourceWorkspace:
		exists, err := a.workspaces.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("resolve workspace: %w", err)
		}
		if !exists {
			return "", ErrNotFound
		}
		return id, nil
	case ResourceProject:
		return a.resolveVia(ctx, a.projects, id)
	case ResourceTask:
		return a.resolveVia(ctx, a.tasks, id)
	case ResourceComment:
		return a.resolveVia(ctx, a.comments, id)
	default:
		return "", fmt.Errorf("unknown resource kind %q", kind)
	}
}

func (a *Authorizer) resolveVia(ctx context.Context, resolver WorkspaceIDResolver, id string) (string, error) {
	workspaceID, err := resolver.GetWorkspaceID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrProjectNotFound) ||
			errors.Is(err, repo.ErrTaskNotFound) ||
			errors.Is(err, repo.ErrCommentNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	return workspaceID, nil
}

// RoleFor resolves a user's effective role in a workspace. A missing
// permission row means viewer; this is the only place in the codebase where
// that default is applied.
func (a *Authorizer) RoleFor(ctx context.Context, username, workspaceID string) (domain.Role, error) {
	perm, err := a.permissions.Get(ctx, workspaceID, username)
	if err != nil {
		if errors.Is(err, repo.ErrPermissionNotFound) {
			return domain.RoleViewer, nil
		}
		return "", fmt.Errorf("get permission: %w", err)
	}
	return perm.Role, nil
}

// Check issues an allow/deny decision for a user's mutating operation in a
// workspace. A nil return is Allow; an AuthorizationError is Deny with the
// reason to report.
func (a *Authorizer) Check(ctx context.Context, username, workspaceID string, op OperationClass) error {
	if op == OpExempt {
		return nil
	}

	role, err := a.RoleFor(ctx, username, workspaceID)
	if err != nil {
		return err
	}

	var allowed bool
	var reason string
	switch op {
	case OpModifyPermissions:
		allowed = role.CanModifyPermissions()
		reason = reasonPermissions
	case OpModifyData:
		allowed = role.CanModifyData()
		reason = reasonData
	default:
		return fmt.Errorf("unknown operation class %q", op)
	}

	if !allowed {
		a.log.Warn(ctx, "mutation denied",
			logger.Module("authz"),
			zap.String("username", username),
			zap.String("workspace_id", workspaceID),
			zap.String("role", string(role)),
			zap.String("operation_class", string(op)),
		)
		return forbidden(reason)
	}
	return nil
}

// CheckAuthor enforces an author-only mutation: the caller must be the
// resource's original author, independent of workspace role. Comments use
// this instead of the role classes above.
func (a *Authorizer) CheckAuthor(ctx context.Context, username, author, reason string) error {
	if username != author {
		a.log.Warn(ctx, "author-only mutation denied",
			logger.Module("authz"),
			zap.String("username", username),
			zap.String("author", author),
		)
		return forbidden(reason)
	}
	return nil
}
