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

// ProjectManager is the project repository surface the project service
// consumes.
type ProjectManager interface {
	Create(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, id string) (*domain.Project, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Project, error)
	Update(ctx context.Context, id string, req *domain.UpdateProjectRequest) error
	Delete(ctx context.Context, id string) error
}

// ProjectService handles project lifecycle inside a workspace.
type ProjectService struct {
	projects   ProjectManager
	workspaces WorkspaceChecker
	log        *logger.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projects ProjectManager, workspaces WorkspaceChecker, log *logger.Logger) *ProjectService {
	return &ProjectService{projects: projects, workspaces: workspaces, log: log}
}

// ListByWorkspace returns the workspace's projects ordered by name.
func (s *ProjectService) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Project, error) {
	ok, err := s.workspaces.Exists(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("check workspace: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	projects, err := s.projects.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return projects, nil
}

// Get returns one project, or ErrNotFound.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrProjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// Create adds a project to the workspace. The caller becomes its owner.
func (s *ProjectService) Create(ctx context.Context, actor, workspaceID string, req *domain.CreateProjectRequest) (*domain.Project, error) {
	ok, err := s.workspaces.Exists(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("check workspace: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	p := &domain.Project{
		ID:          generateID(),
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Description: req.Description,
		Owner:       actor,
	}

	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.log.Info(ctx, "project created",
		logger.Module("project"),
		zap.String("project_id", p.ID),
		zap.String("workspace_id", workspaceID),
		zap.String("actor", actor),
	)
	return p, nil
}

// Update applies a partial update and returns the refreshed project.
func (s *ProjectService) Update(ctx context.Context, actor, id string, req *domain.UpdateProjectRequest) (*domain.Project, error) {
	if err := s.projects.Update(ctx, id, req); err != nil {
		if errors.Is(err, repo.ErrProjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update project: %w", err)
	}

	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload project: %w", err)
	}

	s.log.Info(ctx, "project updated",
		logger.Module("project"),
		zap.String("project_id", id),
		zap.String("actor", actor),
	)
	return p, nil
}

// Delete removes a project together with its tasks and comments.
func (s *ProjectService) Delete(ctx context.Context, actor, id string) error {
	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrProjectNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}

	s.log.Info(ctx, "project deleted",
		logger.Module("project"),
		zap.String("project_id", id),
		zap.String("actor", actor),
	)
	return nil
}
