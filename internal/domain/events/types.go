// Package events 定义领域事件类型和接口
// 用于把尽力而为的副作用（指标写入、访客历史合并）移出请求主路径
package events

import "time"

// EventType 事件类型标识
type EventType string

// 对话相关事件类型
const (
	// QueryCompleted 一次问答结束（成功或失败）
	QueryCompleted EventType = "chat.query.completed"
	// GuestIdentified 访客在携带 guest cookie 的情况下完成认证
	GuestIdentified EventType = "chat.guest.identified"
)

// Event 领域事件接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Timestamp 返回事件发生时间
	Timestamp() time.Time
}
