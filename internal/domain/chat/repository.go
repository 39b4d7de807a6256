package chat

import "context"

// MessageRepository 对话消息仓储接口
type MessageRepository interface {
	// Save 追加一条消息
	Save(ctx context.Context, msg *Message) error

	// FindRecent 按创建时间倒序返回最近 limit 条消息（最新在前）
	FindRecent(ctx context.Context, owner Owner, limit int) ([]*Message, error)

	// FindSession 按创建时间正序返回会话全部消息
	FindSession(ctx context.Context, owner Owner) ([]*Message, error)

	// ReassignOwner 将 (fromType, fromID) 的全部消息改为 (toType, toID)
	// 保留 sessionId 与时间戳，返回受影响行数
	ReassignOwner(ctx context.Context, fromType OwnerType, fromID string, toType OwnerType, toID string) (int64, error)
}
