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

const (
	reasonCommentEdit   = "Only the original commenter can edit a comment."
	reasonCommentDelete = "Only the original commenter can delete a comment."
)

// CommentManager is the comment repository surface the comment service
// consumes.
type CommentManager interface {
	Create(ctx context.Context, c *domain.Comment) error
	Get(ctx context.Context, id string) (*domain.Comment, error)
	Update(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// TaskGetter resolves the commented task for existence checks and fanout.
type TaskGetter interface {
	Get(ctx context.Context, id string) (*domain.Task, error)
}

// CommentService handles the comment thread under a task. Creating is open
// to anyone the role gate lets through; editing and deleting belong to the
// original author alone, whatever their workspace role.
type CommentService struct {
	comments CommentManager
	tasks    TaskGetter
	authz    *Authorizer
	notifier TaskNotifier
	log      *logger.Logger
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments CommentManager, tasks TaskGetter, authz *Authorizer, notifier TaskNotifier, log *logger.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		tasks:    tasks,
		authz:    authz,
		notifier: notifier,
		log:      log,
	}
}

// Create attaches a comment to the task and notifies the task's recipients,
// minus the commenter.
func (s *CommentService) Create(ctx context.Context, actor, taskID string, req *domain.CreateCommentRequest) (*domain.Comment, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	comment := &domain.Comment{
		ID:      generateID(),
		TaskID:  taskID,
		Author:  actor,
		Content: req.Content,
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.log.Info(ctx, "comment created",
		logger.Module("comment"),
		zap.String("comment_id", comment.ID),
		zap.String("task_id", taskID),
		zap.String("actor", actor),
	)

	if err := s.notifier.NotifyTaskEvent(ctx, domain.MessageCommentAdded, actor, task, comment.Content); err != nil {
		s.log.Error(ctx, "comment fanout failed",
			logger.Module("comment"),
			zap.String("comment_id", comment.ID),
			zap.Error(err),
		)
	}
	return comment, nil
}

// Update rewrites the comment's content. Author only.
func (s *CommentService) Update(ctx context.Context, actor, id string, req *domain.UpdateCommentRequest) (*domain.Comment, error) {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrCommentNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}

	if err := s.authz.CheckAuthor(ctx, actor, comment.Author, reasonCommentEdit); err != nil {
		return nil, err
	}

	if err := s.comments.Update(ctx, id, req.Content); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}

	comment, err = s.comments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload comment: %w", err)
	}
	return comment, nil
}

// Delete removes the comment. Author only.
func (s *CommentService) Delete(ctx context.Context, actor, id string) error {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrCommentNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get comment: %w", err)
	}

	if err := s.authz.CheckAuthor(ctx, actor, comment.Author, reasonCommentDelete); err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	s.log.Info(ctx, "comment deleted",
		logger.Module("comment"),
		zap.String("comment_id", id),
		zap.String("actor", actor),
	)
	return nil
}
