package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wacana/backend/internal/application/chatbot"
	"github.com/wacana/backend/internal/application/conversation"
	"github.com/wacana/backend/internal/domain/chat"
	"github.com/wacana/backend/internal/domain/events"
	"github.com/wacana/backend/internal/domain/metric"
	"github.com/wacana/backend/internal/infrastructure/log"
	"github.com/wacana/backend/internal/interfaces/http/response"
)

// 面向客户端的错误文案，上游错误细节只进日志
const (
	msgMessageRequired = "message query param is required"
	msgQueryRequired   = "query is required"
	msgSessionRequired = "session_id query param is required"
	msgAnswerFailed    = "Failed to generate an answer, please try again."
	msgHistoryFailed   = "Failed to load conversation history."
)

// ChatService 问答与历史
type ChatService interface {
	Ask(ctx context.Context, req chatbot.AskRequest, onChunk func(string)) (*chatbot.Answer, error)
	History(ctx context.Context, owner chat.Owner) ([]*chat.Message, error)
}

// IdentityResolver 调用方身份解析
type IdentityResolver interface {
	Resolve(req conversation.IdentityRequest) *conversation.Identity
}

// ChatbotHandler 聊天机器人接口
type ChatbotHandler struct {
	chat      ChatService
	identity  IdentityResolver
	publisher events.Publisher
	logger    *slog.Logger
}

// NewChatbotHandler 创建聊天机器人处理器
func NewChatbotHandler(chatService ChatService, identity IdentityResolver, publisher events.Publisher) *ChatbotHandler {
	return &ChatbotHandler{
		chat:      chatService,
		identity:  identity,
		publisher: publisher,
		logger:    log.NewModuleLogger("http", "chatbot"),
	}
}

// streamFrame SSE 数据帧
type streamFrame struct {
	Chunk     string `json:"chunk,omitempty"`
	Done      bool   `json:"done,omitempty"`
	Failed    bool   `json:"failed,omitempty"`
	Error     bool   `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Stream 流式问答
// @Summary 流式问答（SSE）
// @Description 每个增量一帧 data: {"chunk": "..."}，结束帧为 {"done": true} 或 {"failed": true}
// @Tags 聊天
// @Produce text/event-stream
// @Param message query string true "问题"
// @Param session_id query string false "会话 ID"
// @Success 200 {object} handler.streamFrame
// @Failure 400 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /chatbot/stream [get]
func (h *ChatbotHandler) Stream(c *gin.Context) {
	started := time.Now()
	message := strings.TrimSpace(c.Query("message"))
	if message == "" {
		response.Error(c, http.StatusBadRequest, msgMessageRequired)
		return
	}

	id := h.resolve(c, "")
	sessionID := id.Owner.SessionID

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	_, err := h.chat.Ask(c.Request.Context(), chatbot.AskRequest{
		Owner:     id.Owner,
		Query:     message,
		Mode:      metric.ModeStream,
		StartedAt: started,
	}, func(chunk string) {
		if chunk == "" {
			return
		}
		h.writeFrame(c, streamFrame{Chunk: chunk, SessionID: sessionID})
	})
	if err != nil {
		h.writeFrame(c, streamFrame{Error: true, Message: msgAnswerFailed})
		h.writeFrame(c, streamFrame{Done: true, Failed: true})
		return
	}
	h.writeFrame(c, streamFrame{Done: true, SessionID: sessionID})
}

// nonStreamRequest 非流式请求体，字段类型在处理器内校验
type nonStreamRequest struct {
	Query     any `json:"query"`
	SessionID any `json:"session_id"`
}

// NonStream 阻塞问答
// @Summary 阻塞问答
// @Tags 聊天
// @Accept json
// @Produce json
// @Param request body handler.nonStreamRequest true "query 必填，session_id 可选"
// @Success 200 {object} response.AnswerResponse
// @Failure 400 {object} response.Response
// @Failure 429 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /chatbot/non-stream [post]
func (h *ChatbotHandler) NonStream(c *gin.Context) {
	started := time.Now()

	var req nonStreamRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, msgQueryRequired)
		return
	}
	query, ok := req.Query.(string)
	if !ok || strings.TrimSpace(query) == "" {
		response.Error(c, http.StatusBadRequest, msgQueryRequired)
		return
	}
	bodySession, _ := req.SessionID.(string)

	id := h.resolve(c, bodySession)
	answer, err := h.chat.Ask(c.Request.Context(), chatbot.AskRequest{
		Owner:     id.Owner,
		Query:     query,
		Mode:      metric.ModeNonStream,
		StartedAt: started,
	}, nil)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, msgAnswerFailed)
		return
	}
	response.Answer(c, answer.Text, id.Owner.SessionID)
}

// HistoryData 历史接口数据
type HistoryData struct {
	SessionID string          `json:"sessionId"`
	Messages  []*chat.Message `json:"messages"`
}

// History 会话历史
// @Summary 获取会话历史
// @Tags 聊天
// @Produce json
// @Param session_id query string false "会话 ID，缺省时取 cookie"
// @Success 200 {object} response.Response{data=handler.HistoryData}
// @Failure 500 {object} response.Response
// @Router /chatbot/history [get]
func (h *ChatbotHandler) History(c *gin.Context) {
	if strings.TrimSpace(c.Query("session_id")) == "" {
		response.Error(c, http.StatusBadRequest, msgSessionRequired)
		return
	}

	id := h.resolve(c, "")
	messages, err := h.chat.History(c.Request.Context(), id.Owner)
	if err != nil {
		h.logger.Error("Failed to load history",
			append(log.LogCtxFromContext(c.Request.Context()),
				"session_id", id.Owner.SessionID,
				"error", err,
			)...,
		)
		response.Error(c, http.StatusInternalServerError, msgHistoryFailed)
		return
	}
	if messages == nil {
		messages = []*chat.Message{}
	}
	response.Success(c, HistoryData{SessionID: id.Owner.SessionID, Messages: messages})
}

// WelcomeData 欢迎语数据
type WelcomeData struct {
	Message string `json:"message"`
}

// Welcome 欢迎语，不解析身份也不写 cookie
// @Summary 获取欢迎语
// @Tags 聊天
// @Produce json
// @Success 200 {object} response.Response{data=handler.WelcomeData}
// @Router /chatbot/welcome [get]
func (h *ChatbotHandler) Welcome(c *gin.Context) {
	response.Success(c, WelcomeData{Message: chatbot.WelcomeMessage})
}

// resolve 解析身份，写回 cookie，并在需要时发布访客合并事件
func (h *ChatbotHandler) resolve(c *gin.Context, bodySessionID string) *conversation.Identity {
	cookies := make(map[string]string)
	for _, ck := range c.Request.Cookies() {
		cookies[ck.Name] = ck.Value
	}

	id := h.identity.Resolve(conversation.IdentityRequest{
		Cookies:        cookies,
		QuerySessionID: c.Query("session_id"),
		BodySessionID:  bodySessionID,
	})
	for _, ck := range id.SetCookies {
		http.SetCookie(c.Writer, ck)
	}

	if id.MergeGuestID != "" && h.publisher != nil {
		h.publisher.Publish(events.NewGuestIdentifiedEvent(id.MergeGuestID, id.Owner.ID))
	}
	return id
}

// writeFrame 写入一个 SSE 帧并立即刷新
func (h *ChatbotHandler) writeFrame(c *gin.Context, frame streamFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		h.logger.Debug("Failed to write stream frame, client likely gone", "error", err)
		return
	}
	c.Writer.Flush()
}
