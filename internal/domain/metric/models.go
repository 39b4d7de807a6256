// Package metric 定义问答请求的审计指标记录
package metric

import (
	"time"

	"github.com/wacana/backend/internal/domain/chat"
)

// Mode 请求形态
type Mode string

const (
	ModeStream    Mode = "stream"
	ModeNonStream Mode = "non-stream"
)

// Status 请求结果
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Source 产生答案的路径
type Source string

const (
	SourceIntent            Source = "intent"
	SourceSemanticNoContext Source = "semantic_no_context"
	SourceOpenRouter        Source = "openrouter"
)

// UnknownErrorCode 无法识别错误时的错误码
const UnknownErrorCode = "UNKNOWN_ERROR"

// RequestMetric 每个问答请求一条记录，只写一次
type RequestMetric struct {
	ID              int64          `json:"-"`
	OwnerType       chat.OwnerType `json:"ownerType"`
	OwnerID         string         `json:"ownerId"`
	SessionID       string         `json:"sessionId"`
	Mode            Mode           `json:"mode"`
	Status          Status         `json:"status"`
	Source          Source         `json:"source"`
	ModelName       string         `json:"modelName,omitempty"`
	AttemptedModels []string       `json:"attemptedModels"`
	FallbackUsed    bool           `json:"fallbackUsed"`
	FallbackCount   int            `json:"fallbackCount"`
	PromptTokens    int            `json:"promptTokens"`
	DurationMs      int64          `json:"durationMs"`
	ErrorCode       string         `json:"errorCode,omitempty"`
	ErrorMessage    string         `json:"errorMessage,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// Summary 时间窗口内的聚合统计
type Summary struct {
	TotalRequests      int64   `json:"totalRequests"`
	SuccessfulRequests int64   `json:"successfulRequests"`
	FailedRequests     int64   `json:"failedRequests"`
	FallbackRequests   int64   `json:"fallbackRequests"`
	IntentResponses    int64   `json:"intentResponses"`
	NoContextResponses int64   `json:"noContextResponses"`
	AvgResponseTimeMs  int64   `json:"avgResponseTimeMs"`
	SuccessRate        float64 `json:"successRate"`
	ErrorRate          float64 `json:"errorRate"`
	FallbackRate       float64 `json:"fallbackRate"`
	UniqueSessions     int64   `json:"uniqueSessions"`
	UniqueOwners       int64   `json:"uniqueOwners"`
}

// Totals 仓储层返回的原始计数
type Totals struct {
	Total, Success, Failed, Fallback, Intent, NoContext int64
	DurationMs                                          int64
	UniqueSessions, UniqueOwners                        int64
}

// Summarize 由原始计数计算比率（保留一位小数）
func Summarize(t Totals) *Summary {
	s := &Summary{
		TotalRequests:      t.Total,
		SuccessfulRequests: t.Success,
		FailedRequests:     t.Failed,
		FallbackRequests:   t.Fallback,
		IntentResponses:    t.Intent,
		NoContextResponses: t.NoContext,
		UniqueSessions:     t.UniqueSessions,
		UniqueOwners:       t.UniqueOwners,
	}
	if t.Total == 0 {
		return s
	}
	s.AvgResponseTimeMs = (t.DurationMs + t.Total/2) / t.Total
	s.SuccessRate = percent(t.Success, t.Total)
	s.ErrorRate = percent(t.Failed, t.Total)
	s.FallbackRate = percent(t.Fallback, t.Total)
	return s
}

func percent(part, total int64) float64 {
	v := float64(part) * 1000 / float64(total)
	return float64(int64(v+0.5)) / 10
}
