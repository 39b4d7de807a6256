package events

// Handler 事件处理器接口
type Handler interface {
	// HandleEvent 处理事件
	// 返回 error 只用于日志记录，不会重试，也不会传播给发布者
	HandleEvent(event Event) error
}

// HandlerFunc 函数类型的处理器适配器
type HandlerFunc func(event Event) error

// HandleEvent 实现 Handler 接口
func (f HandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// Publisher 只需要发布能力的调用方使用
type Publisher interface {
	// Publish 异步发布事件，立即返回
	Publish(event Event)
}

// EventBus 事件总线接口
type EventBus interface {
	Publisher

	// Subscribe 订阅特定类型的事件，返回取消订阅的函数
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())

	// Close 停止接收新事件，等待已发布事件处理完成
	Close()
}
