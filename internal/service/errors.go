package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates a resource id could not be resolved. Read paths
	// treat it as an empty result; mutation paths surface it as 404.
	ErrNotFound = errors.New("resource not found")
)

// AuthorizationError is a role or identity check failure. It carries the
// single human-readable reason the handler returns with 403.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

func forbidden(reason string) error {
	return &AuthorizationError{Reason: reason}
}

// ValidationError aggregates every per-field problem found in a request so
// the caller can report all of them at once instead of fixing one at a time.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func generateID() string {
	return uuid.NewString()
}
