// Package tokenizer 估算提示词 Token 数量
package tokenizer

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/wacana/backend/internal/infrastructure/log"
)

// 在包初始化时设置离线加载器
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// encodingName cl100k_base 与主流对话模型兼容
const encodingName = "cl100k_base"

// Counter Token 计数
type Counter interface {
	CountTokens(text string) int
}

// Estimator 基于 tiktoken 的计数器，编码加载失败时按字符数估算
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

var (
	instance *Estimator
	once     sync.Once
)

// GetEstimator 获取 Estimator 单例
// 使用单例模式避免重复加载编码文件
func GetEstimator() *Estimator {
	once.Do(func() {
		instance = &Estimator{}
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			log.NewModuleLogger("tokenizer", "tiktoken").Warn("Failed to load encoding, using heuristic estimate",
				slog.String("encoding", encodingName),
				slog.String("error", err.Error()),
			)
			return
		}
		instance.encoding = enc
	})
	return instance
}

// NewCounter 提供 Counter
func NewCounter() Counter {
	return GetEstimator()
}

// CountTokens 计算文本的 Token 数量
func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if e.encoding == nil {
		return heuristic(text)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.encoding.Encode(text, nil, nil))
}

// Method 返回计算方法标识
func (e *Estimator) Method() string {
	if e.encoding == nil {
		return "heuristic"
	}
	return "tiktoken"
}

// heuristic 约 4 个字符一个 Token
func heuristic(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

var _ Counter = (*Estimator)(nil)
