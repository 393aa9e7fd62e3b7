package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"agileboard-api/internal/http/httperr"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/observability/requestid"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RequestIDMiddleware honors an inbound X-Request-Id or generates one,
// stores it in the context, and echoes it back on the response so the
// client can quote it when reporting problems.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = requestid.NewRequestID()
		}

		ctx := requestid.SetRequestID(r.Context(), id)
		w.Header().Set("X-Request-Id", id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLoggingMiddleware writes one access log line per request once
// the handler finishes. Bodies and headers are never logged. A 5xx
// triggers a second, detailed entry with the root cause recorded by the
// handler chain.
func RequestLoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := logger.SetLoggerInContext(r.Context(), log)
			ctx = logger.InitRootErrorContext(ctx)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			log.Info(ctx, "http request completed",
				logger.Module("http"),
				logger.Action("request"),
				zap.String("method", r.Method),
				zap.String("route", routePattern(r)),
				zap.String("path", r.URL.Path),
				zap.String("query", truncate(r.URL.RawQuery, 200)),
				zap.Int("status", wrapped.statusCode),
				zap.Float64("latency_ms", float64(time.Since(start).Milliseconds())),
				zap.String("remote_addr", stripPort(r.RemoteAddr)),
				zap.String("user_agent", truncate(r.UserAgent(), 100)),
			)

			if wrapped.statusCode >= 500 {
				logServerError(ctx, log, r, wrapped.statusCode)
			}
		})
	}
}

func logServerError(ctx context.Context, log *logger.Logger, r *http.Request, status int) {
	rootErr := logger.GetRootError(ctx)

	fields := []zap.Field{
		logger.Module("http"),
		logger.Action("http_error"),
		zap.Int("status", status),
		zap.String("method", r.Method),
		zap.String("route", routePattern(r)),
		zap.String("path", r.URL.Path),
		zap.String("kind", classifyError(rootErr)),
	}

	if rootErr != nil {
		fields = append(fields, zap.String("err", rootErr.Error()))
		var pgErr *pgconn.PgError
		if errors.As(rootErr, &pgErr) {
			fields = append(fields, zap.String("pgcode", pgErr.Code))
		}
	} else {
		fields = append(fields, zap.String("err", "internal server error (unspecified cause)"))
	}

	log.Error(ctx, "http_error", fields...)
}

// RecoveryMiddleware converts a handler panic into a logged 500 instead
// of tearing down the whole server.
func RecoveryMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					ctx := r.Context()
					logger.SetRootError(ctx, fmt.Errorf("panic: %v", v))

					log.Error(ctx, "panic_recovered",
						logger.Module("http"),
						logger.Action("panic_recovery"),
						zap.Any("panic", v),
						zap.String("stack", string(debug.Stack())),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("route", routePattern(r)),
						zap.String("request_id", logger.GetRequestIDFromContext(ctx)),
					)

					httperr.InternalError(w, ctx)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// stripPort drops the port from host:port addresses before logging.
func stripPort(addr string) string {
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[:i]
	}
	return addr
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}

// classifyError buckets the root cause of a 5xx for alerting queries.
func classifyError(err error) string {
	if err == nil {
		return "unknown"
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "panic") {
		return "panic"
	}
	if strings.Contains(msg, "scan") {
		return "scan"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return "db"
	}
	return "unknown"
}
