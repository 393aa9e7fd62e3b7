package handler

import (
	"net/http"

	"agileboard-api/internal/auth"
	"agileboard-api/internal/http/httperr"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PermissionHandler struct {
	service *service.PermissionService
}

func NewPermissionHandler(service *service.PermissionService) *PermissionHandler {
	return &PermissionHandler{service: service}
}

// GetUserTable handles GET /v1/workspaces/{workspaceID}/users.
// Returns explicit rows plus synthesized viewer rows, sorted by username.
// An unknown workspace returns an empty list, not a 404.
func (h *PermissionHandler) GetUserTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	table, err := h.service.UserTable(ctx, chi.URLParam(r, "workspaceID"))
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, table)
}

// ReconcileUsers handles PUT /v1/workspaces/{workspaceID}/users.
// The body is a username -> role map describing the desired end state of the
// whole workspace; users absent from the map fall back to implicit viewer.
// Responds with the refreshed user table.
func (h *PermissionHandler) ReconcileUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	claims, ok := auth.GetClaims(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	workspaceID := chi.URLParam(r, "workspaceID")

	var desired map[string]string
	if !decodeJSON(w, r, &desired) {
		return
	}

	changes, err := h.service.Reconcile(ctx, workspaceID, desired, claims.Username)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "roles reconciled",
		zap.String("workspace_id", workspaceID),
		zap.Int("changes", len(changes)),
	)

	table, err := h.service.UserTable(ctx, workspaceID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, table)
}

// GetScope handles GET /v1/me/scope. Returns the caller's workspace ids
// grouped by effective role; the viewer bucket is the complement of the
// explicit grants.
func (h *PermissionHandler) GetScope(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	claims, ok := auth.GetClaims(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	scope, err := h.service.Scope(ctx, claims.Username)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, scope)
}
