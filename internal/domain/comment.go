package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Comment is a remark on a task. Mutation is restricted to the original
// author regardless of workspace role; this is an identity check, not a role
// check.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	TaskID    string    `json:"taskId" db:"task_id"`
	Author    string    `json:"author" db:"author"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CreateCommentRequest is the body of POST /v1/tasks/{taskID}/comments.
// TaskID comes from the path and the author is always the caller.
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// Validate sanitizes and validates the request.
func (r *CreateCommentRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)

	validate := validator.New()
	return validate.Struct(r)
}

// UpdateCommentRequest is the body of PUT /v1/comments/{commentID}.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// Validate sanitizes and validates the request.
func (r *UpdateCommentRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)

	validate := validator.New()
	return validate.Struct(r)
}
