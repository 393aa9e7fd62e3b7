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
	// ErrCommentNotFound indicates the comment id does not exist
	ErrCommentNotFound = errors.New("comment not found")
)

// CommentRepository handles database operations for task comments.
type CommentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository creates a new CommentRepository instance.
func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

// Create inserts a new comment.
func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	query := `
		INSERT INTO comments (id, task_id, author, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, c.ID, c.TaskID, c.Author, c.Content).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// Get retrieves a comment by id. Returns ErrCommentNotFound when absent.
func (r *CommentRepository) Get(ctx context.Context, id string) (*domain.Comment, error) {
	query := `
		SELECT id, task_id, author, content, created_at, updated_at
		FROM comments
		WHERE id = $1
	`

	var c domain.Comment
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.TaskID, &c.Author, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("query comment: %w", err)
	}
	return &c, nil
}

// GetWorkspaceID resolves a comment to its owning workspace id by walking
// comment -> task -> project -> workspace.
func (r *CommentRepository) GetWorkspaceID(ctx context.Context, commentID string) (string, error) {
	query := `
		SELECT p.workspace_id
		FROM comments c
		JOIN tasks t ON c.task_id = t.id
		JOIN projects p ON t.project_id = p.id
		WHERE c.id = $1
	`

	var workspaceID string
	err := r.pool.QueryRow(ctx, query, commentID).Scan(&workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrCommentNotFound
		}
		return "", fmt.Errorf("query comment workspace: %w", err)
	}
	return workspaceID, nil
}

// ListByTask retrieves a task's comments, newest first.
func (r *CommentRepository) ListByTask(ctx context.Context, taskID string) ([]domain.Comment, error) {
	query := `
		SELECT id, task_id, author, content, created_at, updated_at
		FROM comments
		WHERE task_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Author, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// Update replaces a comment's content.
func (r *CommentRepository) Update(ctx context.Context, id, content string) error {
	query := `
		UPDATE comments
		SET content = $2, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, content)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}
