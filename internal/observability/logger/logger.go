package logger

import (
	"context"
	"fmt"
	"strings"

	"agileboard-api/internal/observability/requestid"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	loggerContextKey      contextKey = "logger"
	workspaceIDContextKey contextKey = "workspace_id"
	userIDContextKey      contextKey = "user_id"
	rootErrorContextKey   contextKey = "root_err"
)

type rootErrorContainer struct {
	err error
}

// Logger is a thin wrapper over zap that stamps every entry with the
// service name, pulls request/workspace/user identifiers out of the
// context, and redacts fields that must never reach the log stream.
type Logger struct {
	zap         *zap.Logger
	serviceName string
}

// Field is a structured log field.
type Field = zapcore.Field

// New builds a JSON logger at the given level ("debug", "info", "warn",
// "error"; anything else falls back to info).
func New(serviceName string, level string) (*Logger, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("serviceName is required")
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Encoding:         "json",
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
	}

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return &Logger{
		zap:         z.With(zap.String("service", serviceName)),
		serviceName: serviceName,
	}, nil
}

// WithContext returns a logger pre-bound with whatever identifiers the
// context carries, so repeated calls do not re-extract them.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return &Logger{
		zap:         l.zap.With(fields...),
		serviceName: l.serviceName,
	}
}

// Module tags the entry with the originating component.
func Module(name string) Field {
	return zap.String("module", name)
}

// Action tags the entry with the operation being performed.
func Action(name string) Field {
	return zap.String("action", name)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields...)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields...)
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string, fields ...Field) {
	out := contextFields(ctx)
	out = append(out, redact(fields)...)

	// Every entry carries module and action. A call site that forgot
	// them gets "unknown" rather than a crash; the gap shows up in the
	// logs where it can be fixed.
	hasModule, hasAction := false, false
	for _, f := range out {
		switch f.Key {
		case "module":
			hasModule = true
		case "action":
			hasAction = true
		}
	}
	if !hasModule {
		out = append(out, zap.String("module", "unknown"))
	}
	if !hasAction {
		out = append(out, zap.String("action", "unknown"))
	}

	switch level {
	case zapcore.DebugLevel:
		l.zap.Debug(msg, out...)
	case zapcore.InfoLevel:
		l.zap.Info(msg, out...)
	case zapcore.WarnLevel:
		l.zap.Warn(msg, out...)
	case zapcore.ErrorLevel:
		l.zap.Error(msg, out...)
	}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

func contextFields(ctx context.Context) []Field {
	var fields []Field
	if id := requestid.GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetWorkspaceIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("workspace_id", id))
	}
	if id := GetUserIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("user_id", id))
	}
	return fields
}

// redactedKeys covers credentials plus personal data. Usernames are
// public identifiers in this system and are fine to log; emails and
// tokens are not.
var redactedKeys = map[string]bool{
	"authorization": true,
	"token":         true,
	"password":      true,
	"secret":        true,
	"api_key":       true,
	"database_url":  true,
	"jwt":           true,
	"bearer":        true,
	"credential":    true,
	"email":         true,
	"phone":         true,
	"full_name":     true,
	"first_name":    true,
	"last_name":     true,
	"address":       true,
	"credit_card":   true,
	"ssn":           true,
}

func redact(fields []Field) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if redactedKeys[strings.ToLower(f.Key)] {
			out = append(out, zap.String(f.Key, "[REDACTED]"))
			continue
		}
		out = append(out, f)
	}
	return out
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func GetRequestIDFromContext(ctx context.Context) string {
	return requestid.GetRequestID(ctx)
}

func GetWorkspaceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(workspaceIDContextKey).(string)
	return id
}

func GetUserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey).(string)
	return id
}

func SetRequestIDInContext(ctx context.Context, requestID string) context.Context {
	return requestid.SetRequestID(ctx, requestID)
}

func SetWorkspaceIDInContext(ctx context.Context, workspaceID string) context.Context {
	return context.WithValue(ctx, workspaceIDContextKey, workspaceID)
}

func SetUserIDInContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// GetLogger returns the request-scoped logger, or a fresh default one
// when the middleware has not installed any.
func GetLogger(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return l
	}
	l, _ := New("agileboard-api", "info")
	return l
}

func SetLoggerInContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, l)
}

// InitRootErrorContext installs a container that downstream code can
// fill with the root cause of a failed request. The request logging
// middleware reads it when writing the final access log line.
func InitRootErrorContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, rootErrorContextKey, &rootErrorContainer{})
}

func SetRootError(ctx context.Context, err error) {
	if c, ok := ctx.Value(rootErrorContextKey).(*rootErrorContainer); ok {
		c.err = err
	}
}

func GetRootError(ctx context.Context) error {
	if c, ok := ctx.Value(rootErrorContextKey).(*rootErrorContainer); ok {
		return c.err
	}
	return nil
}
