package log

import (
	"context"
	"log/slog"
)

type contextKey string

// 上下文键定义
const (
	// RequestContextID HTTP 请求 ID
	RequestContextID contextKey = "request_id"

	// SessionContextID 对话会话 ID
	SessionContextID contextKey = "session_id"

	// OwnerContextID 对话所有者（guest:xxx / user:xxx）
	OwnerContextID contextKey = "owner"
)

// WithRequestID 在上下文中添加请求 ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestContextID, requestID)
}

// WithSessionID 在上下文中添加会话 ID
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionContextID, sessionID)
}

// WithOwner 在上下文中添加所有者标识
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, OwnerContextID, owner)
}

// RequestIDFromContext 读取请求 ID
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(RequestContextID).(string)
	return v
}

// LogCtxFromContext 从上下文中提取日志字段
func LogCtxFromContext(ctx context.Context) []any {
	var attrs []any

	for _, key := range []contextKey{RequestContextID, SessionContextID, OwnerContextID} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}

	return attrs
}
