package httperr

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"agileboard-api/internal/observability/logger"

	"go.uber.org/zap"
)

// ErrorResponse is the envelope every failed request returns. Success
// responses never use it, so clients can branch on the "ok" field.
type ErrorResponse struct {
	OK    bool         `json:"ok"`
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code plus a human message.
// Fields holds per-field validation messages keyed by field name.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	ErrorID string            `json:"error_id,omitempty"`
}

// Stable error codes, grouped by the status they accompany.
const (
	// 401
	ErrCodeMissingAuthorization = "MISSING_AUTHORIZATION"
	ErrCodeInvalidScheme        = "INVALID_SCHEME"
	ErrCodeInvalidToken         = "INVALID_TOKEN"
	ErrCodeInvalidSignature     = "INVALID_SIGNATURE"
	ErrCodeTokenExpired         = "TOKEN_EXPIRED"

	// 403
	ErrCodeForbidden = "FORBIDDEN"

	// 404
	ErrCodeNotFound = "NOT_FOUND"

	// 400
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	ErrCodeInvalidFormat    = "INVALID_FORMAT"
	ErrCodeMissingParameter = "MISSING_PARAMETER"
	ErrCodeValidationError  = "VALIDATION_ERROR"

	// 429
	ErrCodeRateLimited = "RATE_LIMITED"

	// 500
	ErrCodeInternalError = "INTERNAL_ERROR"
)

func writeEnvelope(w http.ResponseWriter, status int, detail *ErrorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{OK: false, Error: detail})
}

// WriteError logs the failure and writes the standard envelope.
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	logger.GetLogger(ctx).Error(ctx, "request failed",
		zap.Int("status_code", status),
		zap.String("error_code", code),
		zap.String("message", message),
		zap.String("request_id", logger.GetRequestIDFromContext(ctx)),
	)

	writeEnvelope(w, status, &ErrorDetail{Code: code, Message: message})
}

// WriteErrorWithFields is WriteError with per-field validation details.
func WriteErrorWithFields(w http.ResponseWriter, ctx context.Context, status int, code, message string, fields map[string]string) {
	logFields := make([]zap.Field, 0, len(fields)+3)
	logFields = append(logFields,
		zap.Int("status_code", status),
		zap.String("error_code", code),
		zap.String("message", message),
	)
	for k, v := range fields {
		logFields = append(logFields, zap.String("field_"+k, v))
	}
	logger.GetLogger(ctx).Error(ctx, "request failed with field errors", logFields...)

	writeEnvelope(w, status, &ErrorDetail{Code: code, Message: message, Fields: fields})
}

func Unauthorized401(w http.ResponseWriter, ctx context.Context, code, message string) {
	WriteError(w, ctx, http.StatusUnauthorized, code, message)
}

func Forbidden403(w http.ResponseWriter, ctx context.Context, code, message string) {
	WriteError(w, ctx, http.StatusForbidden, code, message)
}

func BadRequest400(w http.ResponseWriter, ctx context.Context, code, message string) {
	WriteError(w, ctx, http.StatusBadRequest, code, message)
}

func BadRequest400WithFields(w http.ResponseWriter, ctx context.Context, code, message string, fields map[string]string) {
	WriteErrorWithFields(w, ctx, http.StatusBadRequest, code, message, fields)
}

func NotFound404(w http.ResponseWriter, ctx context.Context, message string) {
	WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, message)
}

func TooManyRequests429(w http.ResponseWriter, ctx context.Context, message string) {
	WriteError(w, ctx, http.StatusTooManyRequests, ErrCodeRateLimited, message)
}

// InternalError500 hides the cause from the client. In dev the response
// carries the request ID so the matching log entry is easy to find.
func InternalError500(w http.ResponseWriter, ctx context.Context, message string) {
	reqID := logger.GetRequestIDFromContext(ctx)

	logger.GetLogger(ctx).Error(ctx, "internal server error",
		zap.String("message", message),
		zap.String("request_id", reqID),
	)

	detail := &ErrorDetail{
		Code:    ErrCodeInternalError,
		Message: "Internal Server Error",
	}
	if os.Getenv("APP_ENV") == "dev" {
		detail.ErrorID = reqID
	}

	writeEnvelope(w, http.StatusInternalServerError, detail)
}

// InternalError is the shorthand used by recovery paths that have no
// message of their own.
func InternalError(w http.ResponseWriter, ctx context.Context) {
	InternalError500(w, ctx, "internal server error")
}
