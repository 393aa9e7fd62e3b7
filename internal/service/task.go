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

const reasonWatcherLocked = "Task assignee and reporter cannot unwatch."

// TaskManager is the task repository surface the task service consumes.
type TaskManager interface {
	Create(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, id string) (*domain.Task, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Task, error)
	ListByProject(ctx context.Context, projectID string, visible bool) ([]domain.Task, error)
	Update(ctx context.Context, id string, req *domain.UpdateTaskRequest) error
	Delete(ctx context.Context, id string) error
	AddWatcher(ctx context.Context, taskID, username string) error
	RemoveWatcher(ctx context.Context, taskID, username string) error
}

// CommentLister loads a task's comment thread for the detail view.
type CommentLister interface {
	ListByTask(ctx context.Context, taskID string) ([]domain.Comment, error)
}

// TaskNotifier is the fanout surface task mutations publish through.
type TaskNotifier interface {
	NotifyTaskEvent(ctx context.Context, kind domain.MessageKind, actor string, task *domain.Task, comment string) error
}

// ProjectChecker verifies a project exists before tasks are attached to it.
type ProjectChecker interface {
	Get(ctx context.Context, id string) (*domain.Project, error)
}

// TaskService handles task lifecycle, the kanban board view and the watcher
// set. Every mutation fans out to the task's recipients after the write
// lands; fanout failures are logged and counted, never returned to the
// caller.
type TaskService struct {
	tasks    TaskManager
	comments CommentLister
	projects ProjectChecker
	notifier TaskNotifier
	log      *logger.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(tasks TaskManager, comments CommentLister, projects ProjectChecker, notifier TaskNotifier, log *logger.Logger) *TaskService {
	return &TaskService{
		tasks:    tasks,
		comments: comments,
		projects: projects,
		notifier: notifier,
		log:      log,
	}
}

// ListByWorkspace returns every task in the workspace, hidden ones included,
// ordered by title.
func (s *TaskService) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list workspace tasks: %w", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// Board returns the project's tasks grouped by status, filtered on the
// visible flag. Every status column is present even when empty.
func (s *TaskService) Board(ctx context.Context, projectID string, visible bool) (domain.TaskBoard, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		if errors.Is(err, repo.ErrProjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("check project: %w", err)
	}

	tasks, err := s.tasks.ListByProject(ctx, projectID, visible)
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}
	return domain.NewTaskBoard(tasks), nil
}

// Get returns the task with its comment thread, newest comment first.
func (s *TaskService) Get(ctx context.Context, id string) (*domain.TaskDetail, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	comments, err := s.comments.ListByTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list task comments: %w", err)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}

	return &domain.TaskDetail{Task: *task, Comments: comments}, nil
}

// Create adds a task to the project. The reporter defaults to the caller
// when the request leaves it blank. Recipients other than the actor are
// notified after the insert commits.
func (s *TaskService) Create(ctx context.Context, actor, projectID string, req *domain.CreateTaskRequest) (*domain.Task, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		if errors.Is(err, repo.ErrProjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("check project: %w", err)
	}

	reporter := req.Reporter
	if reporter == "" {
		reporter = actor
	}

	task := &domain.Task{
		ID:          generateID(),
		ProjectID:   projectID,
		Type:        req.Type,
		Priority:    req.Priority,
		Status:      req.Status,
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		Reporter:    reporter,
		Visible:     true,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.log.Info(ctx, "task created",
		logger.Module("task"),
		zap.String("task_id", task.ID),
		zap.String("project_id", projectID),
		zap.String("actor", actor),
	)

	s.notify(ctx, domain.MessageTaskCreated, actor, task)
	return task, nil
}

// Update applies a partial update, then notifies recipients with the
// refreshed task state.
func (s *TaskService) Update(ctx context.Context, actor, id string, req *domain.UpdateTaskRequest) (*domain.Task, error) {
	if err := s.tasks.Update(ctx, id, req); err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload task: %w", err)
	}

	s.log.Info(ctx, "task updated",
		logger.Module("task"),
		zap.String("task_id", id),
		zap.String("actor", actor),
	)

	s.notify(ctx, domain.MessageTaskUpdated, actor, task)
	return task, nil
}

// Delete removes a task. The notification payload is built from the task as
// it existed at deletion time, so recipients are told which task vanished;
// messages are enqueued before the row goes away.
func (s *TaskService) Delete(ctx context.Context, actor, id string) error {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get task: %w", err)
	}

	s.notify(ctx, domain.MessageTaskDeleted, actor, task)

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}

	s.log.Info(ctx, "task deleted",
		logger.Module("task"),
		zap.String("task_id", id),
		zap.String("actor", actor),
	)
	return nil
}

// Watch adds the caller to the task's watcher set. Watching twice is a
// no-op.
func (s *TaskService) Watch(ctx context.Context, username, taskID string) error {
	if _, err := s.tasks.Get(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get task: %w", err)
	}

	if err := s.tasks.AddWatcher(ctx, taskID, username); err != nil {
		return fmt.Errorf("add watcher: %w", err)
	}
	return nil
}

// Unwatch removes the caller from the watcher set. The assignee and the
// reporter are permanent recipients and may not leave.
func (s *TaskService) Unwatch(ctx context.Context, username, taskID string) error {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get task: %w", err)
	}

	if task.Assignee == username || task.Reporter == username {
		return forbidden(reasonWatcherLocked)
	}

	if err := s.tasks.RemoveWatcher(ctx, taskID, username); err != nil {
		return fmt.Errorf("remove watcher: %w", err)
	}
	return nil
}

func (s *TaskService) notify(ctx context.Context, kind domain.MessageKind, actor string, task *domain.Task) {
	if err := s.notifier.NotifyTaskEvent(ctx, kind, actor, task, ""); err != nil {
		s.log.Error(ctx, "task event fanout failed",
			logger.Module("task"),
			zap.String("task_id", task.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}
