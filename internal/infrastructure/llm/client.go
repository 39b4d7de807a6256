// Package llm OpenRouter 兼容的对话补全客户端与多模型回退网关
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/infrastructure/log"
)

// doneSentinel 流结束标记
const doneSentinel = "[DONE]"

// Request 单次补全请求
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
}

// Provider 模型调用（阻塞 / 流式）
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request, onChunk func(string)) error
}

// Client OpenRouter Chat 客户端
type Client struct {
	baseURL    string
	apiKey     string
	appURL     string
	appTitle   string
	httpClient *http.Client
	logger     *slog.Logger
}

// ChatRequest Chat API 请求
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
	Temperature float64   `json:"temperature"`
}

// Message Chat 消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse Chat API 响应
type ChatResponse struct {
	ID      string `json:"id,omitempty"`
	Model   string `json:"model,omitempty"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// streamChunk 流式增量
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// apiError 上游错误体，code 可能是数字或字符串
type apiError struct {
	Message string          `json:"message"`
	Code    json.RawMessage `json:"code,omitempty"`
}

// status 从 code 字段解析 HTTP 状态码
func (e *apiError) status() int {
	raw := strings.Trim(string(e.Code), `"`)
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return 0
}

// NewClient 创建 OpenRouter 客户端
// 超时由调用方的 context 控制
func NewClient(cfg *config.ProviderConfig) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		appURL:     cfg.AppURL,
		appTitle:   cfg.AppTitle,
		httpClient: &http.Client{},
		logger:     log.NewModuleLogger("llm", "client"),
	}
}

// Complete 阻塞调用，返回完整回答
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.do(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", transportError(req.Model, fmt.Errorf("failed to decode response: %w", err))
	}
	if chatResp.Error != nil {
		return "", upstreamError(req.Model, chatResp.Error)
	}
	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", &ProviderError{
			Kind:    KindRetryable,
			Model:   req.Model,
			Code:    "EMPTY_RESPONSE",
			Message: "provider returned no content",
		}
	}

	c.logger.Debug("Provider completion received",
		"model", req.Model,
		"response_model", chatResp.Model,
	)
	return chatResp.Choices[0].Message.Content, nil
}

// Stream 流式调用，每个文本增量调用一次 onChunk
// 遇到 [DONE] 或流结束时返回；无法解析的帧跳过
// 整个流没有任何文本增量时返回可重试的 EMPTY_RESPONSE
func (c *Client) Stream(ctx context.Context, req Request, onChunk func(string)) error {
	resp, err := c.do(ctx, req, true)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	delivered := false
	emit := func(delta string) {
		delivered = true
		onChunk(delta)
	}

	var parser Parser
	var head bytes.Buffer
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if head.Len() < 4096 {
				head.Write(buf[:n])
			}
			done, err := c.handleEvents(req.Model, parser.Feed(buf[:n]), emit)
			if err != nil {
				return err
			}
			if done {
				return c.finishStream(req.Model, delivered, nil)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				if _, err := c.handleEvents(req.Model, parser.Flush(), emit); err != nil {
					return err
				}
				return c.finishStream(req.Model, delivered, head.Bytes())
			}
			return transportError(req.Model, readErr)
		}
	}
}

// finishStream 流结束时校验是否收到过文本
// 无 data 帧的 200 响应体若是 JSON 错误，按上游错误分类
func (c *Client) finishStream(model string, delivered bool, raw []byte) error {
	if delivered {
		return nil
	}
	var payload ChatResponse
	if len(raw) > 0 && json.Unmarshal(bytes.TrimSpace(raw), &payload) == nil && payload.Error != nil {
		return upstreamError(model, payload.Error)
	}
	c.logger.Warn("Provider stream ended without content", "model", model)
	return &ProviderError{
		Kind:    KindRetryable,
		Model:   model,
		Code:    "EMPTY_RESPONSE",
		Message: "provider stream returned no content",
	}
}

// handleEvents 处理一批事件，返回是否已结束
func (c *Client) handleEvents(model string, events []Event, onChunk func(string)) (bool, error) {
	for _, ev := range events {
		data := strings.TrimSpace(ev.Data)
		if data == doneSentinel {
			return true, nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Debug("Skipping malformed stream frame", "model", model, "frame", truncate(data, 200))
			continue
		}
		if chunk.Error != nil {
			return true, upstreamError(model, chunk.Error)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			onChunk(delta)
		}
	}
	return false, nil
}

// do 发送请求，非 200 响应转换为 ProviderError
func (c *Client) do(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	messages := make([]Message, 0, 2)
	if req.System != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}
	messages = append(messages, Message{Role: "user", Content: req.Prompt})

	jsonData, err := json.Marshal(ChatRequest{
		Model:       req.Model,
		Messages:    messages,
		Stream:      stream,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, &ProviderError{Kind: KindFatal, Model: req.Model, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &ProviderError{Kind: KindFatal, Model: req.Model, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.appURL != "" {
		httpReq.Header.Set("HTTP-Referer", c.appURL)
	}
	if c.appTitle != "" {
		httpReq.Header.Set("X-Title", c.appTitle)
	}
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	c.logger.Debug("Sending provider request",
		"url", url,
		"model", req.Model,
		"stream", stream,
		"prompt_preview", truncate(req.Prompt, 200),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(req.Model, err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, statusError(req.Model, resp.StatusCode, errorMessage(body))
	}
	return resp, nil
}

// upstreamError 响应体或流中携带的错误，按状态码分类
func upstreamError(model string, e *apiError) *ProviderError {
	status := e.status()
	if status == 0 {
		return &ProviderError{
			Kind:    KindFatal,
			Model:   model,
			Code:    strings.Trim(string(e.Code), `"`),
			Message: e.Message,
		}
	}
	return statusError(model, status, e.Message)
}

// errorMessage 提取错误体中的 message
func errorMessage(body []byte) string {
	var payload struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return truncate(strings.TrimSpace(string(body)), 500)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var _ Provider = (*Client)(nil)
