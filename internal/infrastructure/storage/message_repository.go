package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wacana/backend/internal/domain/chat"
)

// messageRepository 对话消息 SQLite 仓储实现
type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository 创建对话消息仓储
func NewMessageRepository(db *sql.DB) chat.MessageRepository {
	return &messageRepository{db: db}
}

// Save 追加消息
func (r *messageRepository) Save(ctx context.Context, msg *chat.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_messages (owner_type, owner_id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(msg.OwnerType),
		msg.OwnerID,
		msg.SessionID,
		string(msg.Role),
		msg.Content,
		msg.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		msg.ID = id
	}
	return nil
}

// FindRecent 最近 limit 条，最新在前
// 同一毫秒内按自增 ID 决定先后
func (r *messageRepository) FindRecent(ctx context.Context, owner chat.Owner, limit int) ([]*chat.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_type, owner_id, session_id, role, content, created_at
		FROM chat_messages
		WHERE owner_type = ? AND owner_id = ? AND session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		string(owner.Type), owner.ID, owner.SessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// FindSession 会话全部消息，按时间正序
func (r *messageRepository) FindSession(ctx context.Context, owner chat.Owner) ([]*chat.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_type, owner_id, session_id, role, content, created_at
		FROM chat_messages
		WHERE owner_type = ? AND owner_id = ? AND session_id = ?
		ORDER BY created_at ASC, id ASC`,
		string(owner.Type), owner.ID, owner.SessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ReassignOwner 批量迁移所有者
func (r *messageRepository) ReassignOwner(ctx context.Context, fromType chat.OwnerType, fromID string, toType chat.OwnerType, toID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE chat_messages
		SET owner_type = ?, owner_id = ?
		WHERE owner_type = ? AND owner_id = ?`,
		string(toType), toID, string(fromType), fromID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign chat messages: %w", err)
	}
	return result.RowsAffected()
}

func scanMessages(rows *sql.Rows) ([]*chat.Message, error) {
	messages := make([]*chat.Message, 0)
	for rows.Next() {
		var (
			msg       chat.Message
			ownerType string
			role      string
			createdAt int64
		)
		if err := rows.Scan(
			&msg.ID,
			&ownerType,
			&msg.OwnerID,
			&msg.SessionID,
			&role,
			&msg.Content,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msg.OwnerType = chat.OwnerType(ownerType)
		msg.Role = chat.Role(role)
		msg.CreatedAt = time.UnixMilli(createdAt)
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// 编译时检查接口实现
var _ chat.MessageRepository = (*messageRepository)(nil)
