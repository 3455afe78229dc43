package logger

import "context"

type ctxKey int

const (
	ctxLogger ctxKey = iota
	ctxRequestID
)

// WithLogger stores l in ctx. Store the base logger, not one already
// tagged with the request id: L adds the id.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxLogger, l)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxLogger).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID records the request id for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestID, id)
}

// RequestIDFromContext returns the request id in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

// L returns the context logger tagged with the request id, if any.
func L(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}
