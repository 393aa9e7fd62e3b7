package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Workspace is the top-level tenant and the root of the permission scope.
// Projects, tasks and comments all resolve to exactly one workspace through
// their parent chain.
type Workspace struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Permission is an explicit (workspace, user) role grant. At most one row
// exists per pair. Only admin and editor rows are persisted; viewer entries
// are synthesized on read for the user-table view and carry a zero GrantedAt.
type Permission struct {
	WorkspaceID   string    `json:"workspaceId" db:"workspace_id"`
	Username      string    `json:"username" db:"username"`
	Role          Role      `json:"role" db:"role"`
	GrantedBy     string    `json:"grantedBy,omitempty" db:"granted_by"`
	GrantedAt     time.Time `json:"grantedAt,omitempty" db:"granted_at"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt,omitempty" db:"last_updated_at"`
}

// CreateWorkspaceRequest is the body of POST /v1/workspaces.
// Workspace creation is unrestricted: any authenticated user may create one.
type CreateWorkspaceRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// Validate sanitizes and validates the request.
func (r *CreateWorkspaceRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)

	validate := validator.New()
	return validate.Struct(r)
}

// UserScope groups workspace ids by the caller's effective role in them.
// The viewer bucket is the complement of the other two: every workspace the
// caller holds no explicit row for.
type UserScope struct {
	Admin  []string `json:"admin"`
	Editor []string `json:"editor"`
	Viewer []string `json:"viewer"`
}
