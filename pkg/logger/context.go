package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextFieldExtractor 从 context 提取日志字段
type ContextFieldExtractor func(ctx context.Context) []zap.Field

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
)

// WithRequestID 在 context 中记录请求 ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithUserID 在 context 中记录玩家 ID
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequestIDFrom 读取请求 ID
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// DefaultContextExtractor 提取 request_id 与 user_id
func DefaultContextExtractor(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if uid, ok := ctx.Value(userIDKey).(int64); ok {
		fields = append(fields, zap.Int64("user_id", uid))
	}
	return fields
}
