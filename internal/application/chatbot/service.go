package chatbot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/wacana/backend/internal/application/conversation"
	"github.com/wacana/backend/internal/domain/chat"
	"github.com/wacana/backend/internal/domain/events"
	"github.com/wacana/backend/internal/domain/metric"
	"github.com/wacana/backend/internal/infrastructure/llm"
	"github.com/wacana/backend/internal/infrastructure/log"
	"github.com/wacana/backend/internal/infrastructure/tokenizer"
)

// AskRequest 一次问答请求
type AskRequest struct {
	Owner chat.Owner
	Query string
	Mode  metric.Mode
	// StartedAt 身份解析开始的时间，用于计算耗时
	StartedAt time.Time
}

// Answer 问答结果
type Answer struct {
	Text   string
	Source metric.Source
	Meta   llm.Meta
}

// ChatService 问答主流程：历史 -> 编排 -> 追加回答 -> 指标
type ChatService struct {
	history      *conversation.HistoryService
	orchestrator *Orchestrator
	publisher    events.Publisher
	tokens       tokenizer.Counter
	logger       *slog.Logger
}

// NewChatService 创建问答服务
func NewChatService(
	history *conversation.HistoryService,
	orchestrator *Orchestrator,
	publisher events.Publisher,
	tokens tokenizer.Counter,
) *ChatService {
	return &ChatService{
		history:      history,
		orchestrator: orchestrator,
		publisher:    publisher,
		tokens:       tokens,
		logger:       log.NewModuleLogger("chatbot", "service"),
	}
}

// Ask 执行一次问答
// 流式模式下每个片段调用 onChunk；阻塞模式可传 nil
func (s *ChatService) Ask(ctx context.Context, req AskRequest, onChunk func(string)) (*Answer, error) {
	if req.StartedAt.IsZero() {
		req.StartedAt = time.Now()
	}
	if onChunk == nil {
		onChunk = func(string) {}
	}
	query := strings.TrimSpace(req.Query)

	ctx = log.WithSessionID(ctx, req.Owner.SessionID)
	ctx = log.WithOwner(ctx, req.Owner.String())
	// 持久化不随客户端断开而取消
	storeCtx := context.WithoutCancel(ctx)

	// 先读取历史，再追加本轮用户消息
	history, err := s.history.RecentWindow(storeCtx, req.Owner, 0)
	if err != nil {
		s.logger.Error("Failed to load history, continuing without it",
			append(log.LogCtxFromContext(ctx), "error", err)...,
		)
		history = nil
	}
	if err := s.history.Append(storeCtx, chat.NewMessage(req.Owner, chat.RoleUser, query)); err != nil {
		s.logger.Error("Failed to save user message",
			append(log.LogCtxFromContext(ctx), "error", err)...,
		)
	}

	var res *Result
	if req.Mode == metric.ModeStream {
		res, err = s.orchestrator.QueryStream(ctx, query, history, onChunk)
	} else {
		res, err = s.orchestrator.QueryOnce(ctx, query, history)
	}

	s.publish(req, res, err)

	if err != nil {
		s.logger.Error("Chat query failed",
			append(log.LogCtxFromContext(ctx),
				"mode", req.Mode,
				"error", err,
			)...,
		)
		return nil, err
	}

	if err := s.history.Append(storeCtx, chat.NewMessage(req.Owner, chat.RoleAssistant, res.Answer)); err != nil {
		s.logger.Error("Failed to save assistant message",
			append(log.LogCtxFromContext(ctx), "error", err)...,
		)
	}

	s.logger.Info("Chat query completed",
		append(log.LogCtxFromContext(ctx),
			"mode", req.Mode,
			"source", res.Source,
			"model", res.Meta.Model,
			"attempts", res.Meta.TotalAttempts,
			"compensated", res.Compensated,
			"duration_ms", time.Since(req.StartedAt).Milliseconds(),
		)...,
	)
	return &Answer{Text: res.Answer, Source: res.Source, Meta: res.Meta}, nil
}

// History 会话全部消息
func (s *ChatService) History(ctx context.Context, owner chat.Owner) ([]*chat.Message, error) {
	return s.history.FullHistory(ctx, owner)
}

// publish 发布指标事件，写入在后台完成
func (s *ChatService) publish(req AskRequest, res *Result, err error) {
	if s.publisher == nil {
		return
	}

	m := &metric.RequestMetric{
		OwnerType:       req.Owner.Type,
		OwnerID:         req.Owner.ID,
		SessionID:       req.Owner.SessionID,
		Mode:            req.Mode,
		Status:          metric.StatusSuccess,
		Source:          metric.SourceOpenRouter,
		AttemptedModels: []string{},
		DurationMs:      time.Since(req.StartedAt).Milliseconds(),
		CreatedAt:       time.Now(),
	}
	if res != nil {
		m.Source = res.Source
		m.ModelName = res.Meta.Model
		if res.Meta.AttemptedModels != nil {
			m.AttemptedModels = res.Meta.AttemptedModels
		}
		m.FallbackUsed = res.Meta.FallbackUsed
		m.FallbackCount = res.Meta.FallbackCount
		if res.Prompt != "" && s.tokens != nil {
			m.PromptTokens = s.tokens.CountTokens(res.Prompt)
		}
	}
	if err != nil {
		m.Status = metric.StatusFailed
		m.ModelName = ""
		m.ErrorCode = llm.ErrorCode(err)
		if m.ErrorCode == "" {
			m.ErrorCode = metric.UnknownErrorCode
		}
		m.ErrorMessage = err.Error()
	}

	s.publisher.Publish(events.NewQueryCompletedEvent(m))
}
