package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/infrastructure/log"
	"github.com/wacana/backend/internal/infrastructure/metrics"
)

// 调用形态的温度参数
const (
	StreamTemperature   = 0.5
	BlockingTemperature = 0.7
)

// Meta 一次网关调用的模型尝试记录
type Meta struct {
	Model           string   `json:"model"`
	AttemptedModels []string `json:"attemptedModels"`
	TotalAttempts   int      `json:"totalAttempts"`
	FallbackUsed    bool     `json:"fallbackUsed"`
	FallbackCount   int      `json:"fallbackCount"`
}

// Gateway 候选模型回退网关
// 活跃位置只在本实例内共享，使用 CAS 前移，不会回退
type Gateway struct {
	provider Provider
	models   []string
	active   atomic.Int32
	sticky   bool
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewGateway 创建网关
func NewGateway(cfg *config.ProviderConfig, provider Provider, m *metrics.Metrics) (*Gateway, error) {
	models := cfg.CandidateModels()
	if len(models) == 0 {
		return nil, fmt.Errorf("no candidate models configured")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	g := &Gateway{
		provider: provider,
		models:   models,
		sticky:   cfg.StickyFallback,
		timeout:  timeout,
		metrics:  m,
		logger:   log.NewModuleLogger("llm", "gateway"),
	}
	m.SetActiveModel("", models[0])

	g.logger.Info("Model gateway initialized",
		"models", models,
		"sticky_fallback", g.sticky,
		"timeout", timeout,
	)
	return g, nil
}

// Models 候选模型列表
func (g *Gateway) Models() []string {
	out := make([]string, len(g.models))
	copy(out, g.models)
	return out
}

// ActiveModel 下一次调用的起始模型
func (g *Gateway) ActiveModel() string {
	return g.models[g.startIndex()]
}

// Complete 阻塞调用
func (g *Gateway) Complete(ctx context.Context, system, prompt string) (string, Meta, error) {
	var answer string
	meta, err := g.run(ctx, "blocking", func(callCtx context.Context, model string) (bool, error) {
		text, err := g.provider.Complete(callCtx, Request{
			Model:       model,
			System:      system,
			Prompt:      prompt,
			Temperature: BlockingTemperature,
		})
		if err != nil {
			return false, err
		}
		answer = text
		return false, nil
	})
	if err != nil {
		return "", meta, err
	}
	return answer, meta, nil
}

// Stream 流式调用
// 已向 onChunk 输出内容后失败不再切换模型
func (g *Gateway) Stream(ctx context.Context, system, prompt string, onChunk func(string)) (Meta, error) {
	return g.run(ctx, "stream", func(callCtx context.Context, model string) (bool, error) {
		emitted := false
		err := g.provider.Stream(callCtx, Request{
			Model:       model,
			System:      system,
			Prompt:      prompt,
			Temperature: StreamTemperature,
		}, func(chunk string) {
			emitted = true
			onChunk(chunk)
		})
		return emitted, err
	})
}

// attemptFunc 单次尝试，返回是否已输出内容
type attemptFunc func(ctx context.Context, model string) (emitted bool, err error)

// run 从活跃位置开始依次尝试候选模型
func (g *Gateway) run(ctx context.Context, shape string, attempt attemptFunc) (Meta, error) {
	meta := Meta{AttemptedModels: make([]string, 0, len(g.models))}
	var last *ProviderError

	for pos := g.startIndex(); pos < len(g.models); pos++ {
		model := g.models[pos]
		meta.AttemptedModels = append(meta.AttemptedModels, model)

		// 调用方断开不会中断模型调用，只受超时约束
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		began := time.Now()
		emitted, err := attempt(callCtx, model)
		cancel()
		elapsed := time.Since(began)

		if err == nil {
			g.metrics.ObserveProviderCall(model, shape, "ok", elapsed)
			meta.Model = model
			return finalize(meta), nil
		}

		last = asProviderError(model, err)
		g.metrics.ObserveProviderCall(model, shape, last.Kind.String(), elapsed)
		g.logger.Warn("Provider attempt failed",
			append(log.LogCtxFromContext(ctx),
				"model", model,
				"shape", shape,
				"kind", last.Kind.String(),
				"emitted", emitted,
				"duration_ms", elapsed.Milliseconds(),
				"error", last.Error(),
			)...,
		)

		if !last.Retryable() || emitted || pos+1 >= len(g.models) {
			break
		}
		g.advance(pos)
	}

	meta = finalize(meta)
	return meta, &GatewayError{Meta: meta, Last: last}
}

// startIndex 本次调用的起始位置
func (g *Gateway) startIndex() int {
	if !g.sticky {
		return 0
	}
	pos := int(g.active.Load())
	if pos >= len(g.models) {
		pos = len(g.models) - 1
	}
	return pos
}

// advance 从 pos 前移到 pos+1；其他调用已前移时保持不变
func (g *Gateway) advance(pos int) {
	g.metrics.ObserveFallback()
	if !g.sticky {
		return
	}
	if g.active.CompareAndSwap(int32(pos), int32(pos+1)) {
		g.metrics.SetActiveModel(g.models[pos], g.models[pos+1])
		g.logger.Info("Active model advanced",
			"from", g.models[pos],
			"to", g.models[pos+1],
		)
	}
}

func finalize(meta Meta) Meta {
	meta.TotalAttempts = len(meta.AttemptedModels)
	if meta.TotalAttempts > 1 {
		meta.FallbackUsed = true
		meta.FallbackCount = meta.TotalAttempts - 1
	}
	return meta
}

// asProviderError 非 ProviderError 按传输错误归类
func asProviderError(model string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Model == "" {
			pe.Model = model
		}
		return pe
	}
	return transportError(model, err)
}
