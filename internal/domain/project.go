package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Project groups tasks inside a workspace. The owning workspace is immutable
// after creation; the authorization resolver walks project -> workspace to
// find the permission scope for any project-level mutation.
type Project struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspaceId" db:"workspace_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Owner       string    `json:"owner" db:"owner"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// CreateProjectRequest is the body of POST /v1/workspaces/{workspaceID}/projects.
// WorkspaceID comes from the path and Owner from the JWT claims, never from
// the body.
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// Validate sanitizes and validates the request.
func (r *CreateProjectRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)

	validate := validator.New()
	return validate.Struct(r)
}

// UpdateProjectRequest is the body of PUT /v1/projects/{projectID}.
// Nil fields are left unchanged.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// Validate sanitizes and validates the request.
func (r *UpdateProjectRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	if r.Description != nil {
		trimmed := strings.TrimSpace(*r.Description)
		r.Description = &trimmed
	}

	validate := validator.New()
	return validate.Struct(r)
}
