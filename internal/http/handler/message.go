package handler

import (
	"net/http"

	"agileboard-api/internal/auth"
	"agileboard-api/internal/http/httperr"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/service"
)

type MessageHandler struct {
	service *service.MailboxService
}

func NewMessageHandler(service *service.MailboxService) *MessageHandler {
	return &MessageHandler{service: service}
}

// PullMessages handles GET /v1/messages. Returns the caller's
// unacknowledged messages in creation order without removing them.
func (h *MessageHandler) PullMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	claims, ok := auth.GetClaims(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	messages, err := h.service.Pull(ctx, claims.Username)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// AckMessages handles DELETE /v1/messages. The body is a JSON array of
// message ids; ids not owned by the caller are ignored.
func (h *MessageHandler) AckMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	claims, ok := auth.GetClaims(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	var ids []string
	if !decodeJSON(w, r, &ids) {
		return
	}
	// JSON null decodes into a nil slice; only a real list is accepted.
	if ids == nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "request body must be a JSON array of message ids")
		return
	}

	if err := h.service.Ack(ctx, claims.Username, ids); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
