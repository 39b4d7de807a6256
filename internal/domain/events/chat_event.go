package events

import (
	"time"

	"github.com/wacana/backend/internal/domain/metric"
)

// QueryCompletedEvent 问答完成事件，携带待写入的指标记录
type QueryCompletedEvent struct {
	Metric     *metric.RequestMetric
	OccurredAt time.Time
}

// NewQueryCompletedEvent 创建问答完成事件
func NewQueryCompletedEvent(m *metric.RequestMetric) *QueryCompletedEvent {
	return &QueryCompletedEvent{Metric: m, OccurredAt: time.Now()}
}

// Type 实现 Event 接口
func (e *QueryCompletedEvent) Type() EventType { return QueryCompleted }

// Timestamp 实现 Event 接口
func (e *QueryCompletedEvent) Timestamp() time.Time { return e.OccurredAt }

// GuestIdentifiedEvent 访客认证事件，触发历史合并
type GuestIdentifiedEvent struct {
	GuestID    string
	UserID     string
	OccurredAt time.Time
}

// NewGuestIdentifiedEvent 创建访客认证事件
func NewGuestIdentifiedEvent(guestID, userID string) *GuestIdentifiedEvent {
	return &GuestIdentifiedEvent{GuestID: guestID, UserID: userID, OccurredAt: time.Now()}
}

// Type 实现 Event 接口
func (e *GuestIdentifiedEvent) Type() EventType { return GuestIdentified }

// Timestamp 实现 Event 接口
func (e *GuestIdentifiedEvent) Timestamp() time.Time { return e.OccurredAt }
