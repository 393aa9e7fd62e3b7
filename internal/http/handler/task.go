package handler

import (
	"net/http"
	"strconv"

	"agileboard-api/internal/auth"
	"agileboard-api/internal/domain"
	"agileboard-api/internal/http/httperr"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/service"

	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	service *service.TaskService
}

func NewTaskHandler(service *service.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// ListWorkspaceTasks handles GET /v1/workspaces/{workspaceID}/tasks.
// Flat list ordered by title, hidden tasks included.
func (h *TaskHandler) ListWorkspaceTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	tasks, err := h.service.ListByWorkspace(ctx, chi.URLParam(r, "workspaceID"))
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// GetBoard handles GET /v1/projects/{projectID}/tasks.
// Tasks grouped by status; ?visible=false selects the hidden ones.
func (h *TaskHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	visible := true
	if v := r.URL.Query().Get("visible"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "visible must be a boolean")
			return
		}
		visible = parsed
	}

	board, err := h.service.Board(ctx, chi.URLParam(r, "projectID"), visible)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, board)
}

// GetTask handles GET /v1/tasks/{taskID}. Includes watchers and the comment
// thread.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	detail, err := h.service.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// CreateTask handles POST /v1/projects/{projectID}/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	claims, ok := auth.GetClaims(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	task, err := h.service.Create(ctx, claims.Username, chi.URLParam(r, "projectID"), &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask handles PUT /v1/tasks/{taskID}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	claims, ok := auth.GetClaims(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var req domain.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	task, err := h.service.Update(ctx, claims.Username, chi.URLParam(r, "taskID"), &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /v1/tasks/{taskID}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	claims, ok := auth.GetClaims(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	if err := h.service.Delete(ctx, claims.Username, chi.URLParam(r, "taskID")); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// Watch handles POST /v1/tasks/{taskID}/watchers. The caller adds only
// themselves.
func (h *TaskHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	claims, ok := auth.GetClaims(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	if err := h.service.Watch(ctx, claims.Username, chi.URLParam(r, "taskID")); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// Unwatch handles DELETE /v1/tasks/{taskID}/watchers. Assignee and reporter
// are refused.
func (h *TaskHandler) Unwatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	claims, ok := auth.GetClaims(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	if err := h.service.Unwatch(ctx, claims.Username, chi.URLParam(r, "taskID")); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
