// Package eventbus 提供进程内异步事件分发，用于尽力而为的后台任务
package eventbus

import (
	"log/slog"
	"sync"

	"github.com/wacana/backend/internal/domain/events"
	"github.com/wacana/backend/internal/infrastructure/log"
)

type subscription struct {
	id      uint64
	handler events.Handler
}

// eventBusImpl EventBus 的实现
type eventBusImpl struct {
	// handlers 按事件类型存储的处理器列表
	handlers map[events.EventType][]subscription
	nextID   uint64
	mu       sync.RWMutex
	logger   *slog.Logger
	closed   bool
	// wg 等待所有事件处理完成
	wg sync.WaitGroup
}

// NewEventBus 创建新的事件总线实例
func NewEventBus() events.EventBus {
	return &eventBusImpl{
		handlers: make(map[events.EventType][]subscription),
		logger:   log.NewModuleLogger("eventbus", "bus"),
	}
}

// Subscribe 订阅特定类型的事件
func (b *eventBusImpl) Subscribe(eventType events.EventType, handler events.Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.unsubscribe(eventType, id)
	}
}

func (b *eventBusImpl) unsubscribe(eventType events.EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish 异步发布事件
func (b *eventBusImpl) Publish(event events.Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		b.logger.Warn("Event dropped, bus closed", "type", event.Type())
		return
	}

	// 复制处理器列表，避免长时间持有锁
	subs := make([]subscription, len(b.handlers[event.Type()]))
	copy(subs, b.handlers[event.Type()])

	// 在读锁内登记，保证 Close 能等到这些处理器
	b.wg.Add(len(subs))
	b.mu.RUnlock()

	for _, s := range subs {
		go b.dispatch(event, s.handler)
	}
}

// dispatch 分发事件到单个处理器
func (b *eventBusImpl) dispatch(event events.Event, handler events.Handler) {
	defer b.wg.Done()

	// 捕获 panic，防止单个处理器崩溃影响进程
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Handler panicked",
				"type", event.Type(),
				"panic", r,
			)
		}
	}()

	if err := handler.HandleEvent(event); err != nil {
		b.logger.Error("Handler returned error",
			"type", event.Type(),
			"error", err,
		)
	}
}

// Close 关闭事件总线
func (b *eventBusImpl) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	// 等待所有正在处理的事件完成
	b.wg.Wait()

	b.logger.Info("Event bus closed")
}
