package chatbot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/wacana/backend/internal/domain/chat"
	"github.com/wacana/backend/internal/domain/metric"
	"github.com/wacana/backend/internal/infrastructure/llm"
	"github.com/wacana/backend/internal/infrastructure/log"
)

// ModelGateway 模型网关
type ModelGateway interface {
	Complete(ctx context.Context, system, prompt string) (string, llm.Meta, error)
	Stream(ctx context.Context, system, prompt string, onChunk func(string)) (llm.Meta, error)
}

// Result 一次编排的结果
type Result struct {
	Answer string
	Source metric.Source
	// Intent 命中的意图规则名
	Intent string
	Meta   llm.Meta
	// Prompt 发送给模型的提示词，意图与无上下文路径为空
	Prompt string
	// Compensated 流式失败后由压缩提示词的阻塞调用给出答案
	Compensated bool
}

// Orchestrator 意图 -> 检索 -> 组装 -> 模型
type Orchestrator struct {
	intents  *IntentMatcher
	builder  *ContextBuilder
	composer *PromptComposer
	gateway  ModelGateway
	logger   *slog.Logger
}

// NewOrchestrator 创建编排器
func NewOrchestrator(intents *IntentMatcher, builder *ContextBuilder, composer *PromptComposer, gateway ModelGateway) *Orchestrator {
	return &Orchestrator{
		intents:  intents,
		builder:  builder,
		composer: composer,
		gateway:  gateway,
		logger:   log.NewModuleLogger("chatbot", "orchestrator"),
	}
}

// QueryStream 流式问答
// 流式调用失败时用压缩提示词做一次阻塞调用，结果作为单个片段输出
// 返回的 Answer 与客户端收到的全部片段拼接结果一致
func (o *Orchestrator) QueryStream(ctx context.Context, query string, history []*chat.Message, onChunk func(string)) (*Result, error) {
	res, grounding := o.prepare(ctx, query)
	if res != nil {
		onChunk(res.Answer)
		return res, nil
	}

	prompt := o.composer.Compose(query, grounding, history)
	res = &Result{Source: metric.SourceOpenRouter, Prompt: prompt}

	var full strings.Builder
	meta, err := o.gateway.Stream(ctx, SystemPrompt, prompt, func(chunk string) {
		full.WriteString(chunk)
		onChunk(chunk)
	})
	if err == nil {
		res.Answer = full.String()
		res.Meta = meta
		return res, nil
	}

	o.logger.Warn("Streaming call failed, retrying once with compact prompt",
		append(log.LogCtxFromContext(ctx),
			"attempted_models", meta.AttemptedModels,
			"partial_bytes", full.Len(),
			"error", err,
		)...,
	)

	answer, retryMeta, retryErr := o.gateway.Complete(ctx, SystemPrompt, o.composer.ComposeCompact(query, grounding))
	res.Meta = mergeMeta(meta, retryMeta)
	res.Compensated = true
	if retryErr != nil {
		return res, retryErr
	}

	// 客户端已收到的前缀与补偿回答一起记为本轮回答
	res.Answer = full.String() + answer
	onChunk(answer)
	return res, nil
}

// QueryOnce 阻塞问答，网关失败直接返回
func (o *Orchestrator) QueryOnce(ctx context.Context, query string, history []*chat.Message) (*Result, error) {
	res, grounding := o.prepare(ctx, query)
	if res != nil {
		return res, nil
	}

	prompt := o.composer.Compose(query, grounding, history)
	answer, meta, err := o.gateway.Complete(ctx, SystemPrompt, prompt)
	res = &Result{Source: metric.SourceOpenRouter, Prompt: prompt, Meta: meta}
	if err != nil {
		return res, err
	}
	res.Answer = answer
	return res, nil
}

// prepare 意图与检索阶段
// 返回非 nil Result 表示无需调用模型；否则返回展开后的上下文
func (o *Orchestrator) prepare(ctx context.Context, query string) (*Result, string) {
	if rule, reply, ok := o.intents.Match(query); ok {
		o.logger.Debug("Intent shortcut matched", "rule", rule)
		return &Result{Answer: reply, Source: metric.SourceIntent, Intent: rule, Meta: emptyMeta()}, ""
	}

	grounding, err := o.builder.Build(ctx, query)
	if err != nil {
		// 检索失败按无上下文处理
		o.logger.Error("Semantic retrieval failed",
			append(log.LogCtxFromContext(ctx), "error", err)...,
		)
		grounding = ""
	}
	if strings.TrimSpace(grounding) == "" {
		return &Result{Answer: NoContextReply, Source: metric.SourceSemanticNoContext, Meta: emptyMeta()}, ""
	}
	return nil, grounding
}

func emptyMeta() llm.Meta {
	return llm.Meta{AttemptedModels: []string{}}
}

// mergeMeta 合并流式尝试与补偿调用的记录
func mergeMeta(stream, retry llm.Meta) llm.Meta {
	attempted := make([]string, 0, len(stream.AttemptedModels)+len(retry.AttemptedModels))
	attempted = append(attempted, stream.AttemptedModels...)
	attempted = append(attempted, retry.AttemptedModels...)

	merged := llm.Meta{
		Model:           retry.Model,
		AttemptedModels: attempted,
		TotalAttempts:   len(attempted),
	}
	if merged.TotalAttempts > 1 {
		merged.FallbackUsed = true
		merged.FallbackCount = merged.TotalAttempts - 1
	}
	return merged
}
