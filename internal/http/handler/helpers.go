package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"agileboard-api/internal/http/httperr"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/service"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// decodeJSON parses the request body into dst. A malformed body is the
// caller's problem, reported as 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httperr.BadRequest400(w, r.Context(), httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return false
	}
	return true
}

// handleServiceError maps service-layer errors onto the wire format:
// ErrNotFound to 404, AuthorizationError to 403 with its reason,
// ValidationError to 400 with the per-field map, anything else to 500.
func handleServiceError(w http.ResponseWriter, ctx context.Context, log *logger.Logger, err error) {
	var authzErr *service.AuthorizationError
	var validationErr *service.ValidationError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.Is(err, service.ErrNotFound):
		log.Debug(ctx, "resource not found", zap.Error(err))
		httperr.NotFound404(w, ctx, "resource not found")
	case errors.As(err, &authzErr):
		log.Warn(ctx, "forbidden", zap.Error(err))
		httperr.Forbidden403(w, ctx, httperr.ErrCodeForbidden, authzErr.Reason)
	case errors.As(err, &validationErr):
		log.Warn(ctx, "validation failed", zap.Error(err))
		httperr.BadRequest400WithFields(w, ctx, httperr.ErrCodeValidationError, "validation failed", validationErr.Fields)
	case errors.As(err, &fieldErrs):
		log.Warn(ctx, "request validation failed", zap.Error(err))
		httperr.BadRequest400WithFields(w, ctx, httperr.ErrCodeValidationError, "validation failed", validatorFields(fieldErrs))
	default:
		log.Error(ctx, "unhandled internal server error", zap.Error(err), zap.String("error_details", err.Error()))
		logger.SetRootError(ctx, err)
		httperr.InternalError500(w, ctx, "an internal error occurred")
	}
}

func validatorFields(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = "failed on the '" + fe.Tag() + "' rule"
	}
	return fields
}
