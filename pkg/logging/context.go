package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
)

// NewCorrelationID 返回 8 位短 ID，便于肉眼检索。
func NewCorrelationID() string {
	return uuid.New().String()[:8]
}

// NewRequestID 返回完整 UUID。
func NewRequestID() string {
	return uuid.New().String()
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Ctx 返回带 correlation_id / request_id 字段的全局 logger。
func Ctx(ctx context.Context) *zerolog.Logger {
	return With(ctx, Logger())
}

// With 给指定 logger 附加 ctx 中的关联字段。
func With(ctx context.Context, base zerolog.Logger) *zerolog.Logger {
	c := base.With()
	if id := CorrelationID(ctx); id != "" {
		c = c.Str("correlation_id", id)
	}
	if id := RequestID(ctx); id != "" {
		c = c.Str("request_id", id)
	}
	l := c.Logger()
	return &l
}
