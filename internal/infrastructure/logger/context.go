package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	workspaceIDKey
	userIDKey
)

// WithContext attaches l to ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the request logger, tagged with the active trace and
// span IDs. Without one it returns a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return zap.NewNop()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}

// WithRequestID records the request ID and adds it to the context logger.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withField(ctx, requestIDKey, "request_id", requestID)
}

// WithWorkspaceID records the caller's workspace and adds it to the context logger.
func WithWorkspaceID(ctx context.Context, workspaceID string) context.Context {
	return withField(ctx, workspaceIDKey, "workspace_id", workspaceID)
}

// WithUserID records the caller and adds it to the context logger.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withField(ctx, userIDKey, "user_id", userID)
}

func withField(ctx context.Context, key ctxKey, field, value string) context.Context {
	ctx = context.WithValue(ctx, key, value)
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		ctx = WithContext(ctx, l.With(zap.String(field, value)))
	}
	return ctx
}

func RequestID(ctx context.Context) string   { return stringValue(ctx, requestIDKey) }
func WorkspaceID(ctx context.Context) string { return stringValue(ctx, workspaceIDKey) }
func UserID(ctx context.Context) string      { return stringValue(ctx, userIDKey) }

func stringValue(ctx context.Context, key ctxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
