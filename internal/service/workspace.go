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

// WorkspaceManager is the workspace repository surface the workspace
// service consumes.
type WorkspaceManager interface {
	Create(ctx context.Context, ws *domain.Workspace) error
	Get(ctx context.Context, id string) (*domain.Workspace, error)
	List(ctx context.Context) ([]domain.Workspace, error)
	Delete(ctx context.Context, id string) error
}

// RoleGranter seeds a single explicit permission row.
type RoleGranter interface {
	Grant(ctx context.Context, workspaceID, username string, role domain.Role, grantedBy string) error
}

// WorkspaceService handles workspace lifecycle. Creation is unrestricted:
// any authenticated user may open a new workspace and becomes its first
// admin.
type WorkspaceService struct {
	workspaces WorkspaceManager
	grants     RoleGranter
	log        *logger.Logger
}

// NewWorkspaceService creates a new WorkspaceService.
func NewWorkspaceService(workspaces WorkspaceManager, grants RoleGranter, log *logger.Logger) *WorkspaceService {
	return &WorkspaceService{workspaces: workspaces, grants: grants, log: log}
}

// List returns all workspaces ordered by name. Read access is global.
func (s *WorkspaceService) List(ctx context.Context) ([]domain.Workspace, error) {
	workspaces, err := s.workspaces.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	if workspaces == nil {
		workspaces = []domain.Workspace{}
	}
	return workspaces, nil
}

// Get returns one workspace, or ErrNotFound.
func (s *WorkspaceService) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	ws, err := s.workspaces.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrWorkspaceNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return ws, nil
}

// Create opens a new workspace.
func (s *WorkspaceService) Create(ctx context.Context, actor string, req *domain.CreateWorkspaceRequest) (*domain.Workspace, error) {
	ws := &domain.Workspace{
		ID:          generateID(),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.workspaces.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	if err := s.grants.Grant(ctx, ws.ID, actor, domain.RoleAdmin, actor); err != nil {
		return nil, fmt.Errorf("grant creator admin: %w", err)
	}

	s.log.Info(ctx, "workspace created",
		logger.Module("workspace"),
		zap.String("workspace_id", ws.ID),
		zap.String("actor", actor),
	)
	return ws, nil
}

// Delete removes a workspace with everything in it.
func (s *WorkspaceService) Delete(ctx context.Context, actor, id string) error {
	if err := s.workspaces.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrWorkspaceNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete workspace: %w", err)
	}

	s.log.Info(ctx, "workspace deleted",
		logger.Module("workspace"),
		zap.String("workspace_id", id),
		zap.String("actor", actor),
	)
	return nil
}
