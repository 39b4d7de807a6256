package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wacana/backend/internal/domain/chat"
	"github.com/wacana/backend/internal/domain/events"
	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/infrastructure/log"
)

// HistoryService 对话历史
type HistoryService struct {
	repo   chat.MessageRepository
	limit  int
	logger *slog.Logger
}

// NewHistoryService 创建对话历史服务
func NewHistoryService(repo chat.MessageRepository, cfg *config.ChatbotConfig) *HistoryService {
	limit := chat.DefaultHistoryLimit
	if cfg != nil && cfg.HistoryLimit > 0 {
		limit = cfg.HistoryLimit
	}
	return &HistoryService{
		repo:   repo,
		limit:  limit,
		logger: log.NewModuleLogger("conversation", "history"),
	}
}

// Limit 默认窗口大小
func (s *HistoryService) Limit() int {
	return s.limit
}

// Append 追加消息，空内容直接忽略
func (s *HistoryService) Append(ctx context.Context, msg *chat.Message) error {
	if msg == nil || msg.IsBlank() {
		return nil
	}
	return s.repo.Save(ctx, msg)
}

// RecentWindow 最近 limit 条消息，按时间正序
// limit<=0 时使用默认窗口
func (s *HistoryService) RecentWindow(ctx context.Context, owner chat.Owner, limit int) ([]*chat.Message, error) {
	if limit <= 0 {
		limit = s.limit
	}
	messages, err := s.repo.FindRecent(ctx, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent messages: %w", err)
	}

	// 仓储按最新在前返回，渲染提示词需要正序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// FullHistory 会话全部消息，只用于显式查询
func (s *HistoryService) FullHistory(ctx context.Context, owner chat.Owner) ([]*chat.Message, error) {
	messages, err := s.repo.FindSession(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load session messages: %w", err)
	}
	return messages, nil
}

// MergeGuestIntoUser 把访客的全部消息迁移到用户名下
// 尽力而为：失败只记录日志
func (s *HistoryService) MergeGuestIntoUser(ctx context.Context, guestID, userID string) {
	guestID = strings.TrimSpace(guestID)
	userID = strings.TrimSpace(userID)
	if guestID == "" || userID == "" {
		return
	}

	moved, err := s.repo.ReassignOwner(ctx, chat.OwnerGuest, guestID, chat.OwnerUser, userID)
	if err != nil {
		s.logger.Error("Failed to merge guest history",
			"guest_id", guestID,
			"user_id", userID,
			"error", err,
		)
		return
	}
	if moved > 0 {
		s.logger.Info("Guest history merged",
			"guest_id", guestID,
			"user_id", userID,
			"messages", moved,
		)
	}
}

// HandleEvent 处理访客认证事件
func (s *HistoryService) HandleEvent(event events.Event) error {
	e, ok := event.(*events.GuestIdentifiedEvent)
	if !ok {
		return nil
	}
	s.MergeGuestIntoUser(context.Background(), e.GuestID, e.UserID)
	return nil
}

var _ events.Handler = (*HistoryService)(nil)
