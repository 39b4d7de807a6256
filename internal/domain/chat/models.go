// Package chat 定义对话领域模型：所有者身份与对话消息
package chat

import (
	"strings"
	"time"
)

// OwnerType 对话所有者类型
type OwnerType string

const (
	// OwnerGuest 匿名访客
	OwnerGuest OwnerType = "guest"
	// OwnerUser 已认证用户
	OwnerUser OwnerType = "user"
)

// Role 消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultHistoryLimit 每轮加载的最近消息条数
const DefaultHistoryLimit = 12

// Owner 对话所有者三元组，每个请求重新计算，不单独持久化
type Owner struct {
	Type      OwnerType `json:"ownerType"`
	ID        string    `json:"ownerId"`
	SessionID string    `json:"sessionId"`
}

// String 返回 type:id 形式，用于日志
func (o Owner) String() string {
	return string(o.Type) + ":" + o.ID
}

// Message 对话消息（只追加，不修改）
type Message struct {
	ID        int64     `json:"-"`
	OwnerType OwnerType `json:"ownerType"`
	OwnerID   string    `json:"ownerId"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage 为指定所有者创建一条消息
func NewMessage(owner Owner, role Role, content string) *Message {
	return &Message{
		OwnerType: owner.Type,
		OwnerID:   owner.ID,
		SessionID: owner.SessionID,
		Role:      role,
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now(),
	}
}

// IsBlank 内容为空或仅包含空白
func (m *Message) IsBlank() bool {
	return strings.TrimSpace(m.Content) == ""
}
