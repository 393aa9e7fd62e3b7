package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is a user's standing inside one workspace (native PostgreSQL ENUM for
// the persisted values).
//
// The full permission matrix:
//
//	role    modify permissions   modify data   read
//	admin   yes                  yes           yes
//	editor  no                   yes           yes
//	viewer  no                   no            yes
//
// Only admin and editor are ever stored; viewer is the implicit default for
// any user with no explicit row in a workspace.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ParseRole converts external input to a Role, case-insensitively. It is the
// single entry point for role strings coming off the wire.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}

// IsValid checks if the value is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// IsExplicit reports whether the role is persisted as a row. Viewer never is.
func (r Role) IsExplicit() bool {
	return r == RoleAdmin || r == RoleEditor
}

// CanModifyPermissions reports whether the role may grant or change roles.
func (r Role) CanModifyPermissions() bool {
	return r == RoleAdmin
}

// CanModifyData reports whether the role may mutate workspace content.
func (r Role) CanModifyData() bool {
	return r == RoleAdmin || r == RoleEditor
}

// Scan implements sql.Scanner for reading the ENUM from PostgreSQL.
func (r *Role) Scan(src interface{}) error {
	str, err := scanEnumString(src, "Role")
	if err != nil {
		return err
	}
	*r = Role(str)
	if !r.IsValid() {
		return fmt.Errorf("invalid Role value: %s", str)
	}
	return nil
}

// Value implements driver.Valuer for writing the ENUM to PostgreSQL.
func (r Role) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid Role value: %s", string(r))
	}
	return string(r), nil
}
