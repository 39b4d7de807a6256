// Package embedding OpenAI 兼容的向量化客户端
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/infrastructure/log"
)

// Embedder 文本向量化
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Client Embedding API 客户端
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient 创建 Embedding 客户端
func NewClient(cfg *config.EmbeddingConfig) *Client {
	return &Client{
		// 规范化 baseURL：移除末尾斜杠
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: 3,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.NewModuleLogger("embedding", "client"),
	}
}

// buildEmbeddingURL 构建 Embedding API URL
// 支持多种输入格式，智能拼接 /v1/embeddings 路径
func buildEmbeddingURL(baseURL string) string {
	if strings.Contains(baseURL, "/v1/embeddings") {
		return baseURL
	}
	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL + "/embeddings"
	}
	if strings.HasSuffix(baseURL, "/v1/") {
		return baseURL + "embeddings"
	}
	return fmt.Sprintf("%s/v1/embeddings", baseURL)
}

// EmbeddingRequest Embedding 请求
type EmbeddingRequest struct {
	Model string   `json:"model,omitempty"`
	Input []string `json:"input"`
}

// EmbeddingResponse Embedding 响应
type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// EmbedQuery 向量化单条查询
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("invalid embedding response")
	}
	return vectors[0], nil
}

// EmbedTexts 批量向量化文本
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	jsonData, err := json.Marshal(EmbeddingRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := buildEmbeddingURL(c.baseURL)
	c.logger.Debug("Sending embedding request",
		"url", url,
		"batch_size", len(texts),
		"model", c.model,
		"api_key", maskKey(c.apiKey),
	)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			// 递增延迟
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}

		vectors, retry, err := c.post(ctx, url, jsonData, len(texts))
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !retry {
			break
		}
		c.logger.Warn("Embedding request failed, retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"error", err,
		)
	}

	c.logger.Error("Embedding request failed", "error", lastErr)
	return nil, lastErr
}

// post 发送一次请求，返回是否值得重试
func (c *Client) post(ctx context.Context, url string, body []byte, n int) ([][]float32, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
	}

	var embeddingResp EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}

	vectors := make([][]float32, n)
	for _, data := range embeddingResp.Data {
		if data.Index < 0 || data.Index >= n {
			return nil, false, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		vectors[data.Index] = data.Embedding
	}
	return vectors, false, nil
}

// maskKey API Key 脱敏
func maskKey(key string) string {
	if len(key) > 8 {
		return key[:4] + "..." + key[len(key)-4:]
	}
	return "***"
}

var _ Embedder = (*Client)(nil)
