package chatbot

import (
	"github.com/google/wire"

	"github.com/wacana/backend/internal/infrastructure/llm"
)

// NewDefaultIntentMatcher 使用默认身份与规则创建意图匹配器
func NewDefaultIntentMatcher() *IntentMatcher {
	return NewIntentMatcher(DefaultPersona(), DefaultIntentRules())
}

// NewDefaultPromptComposer 使用默认身份创建提示词组装器
func NewDefaultPromptComposer() *PromptComposer {
	return NewPromptComposer(DefaultPersona())
}

// ProviderSet 问答应用层 ProviderSet
var ProviderSet = wire.NewSet(
	NewDefaultIntentMatcher,
	NewDefaultPromptComposer,
	NewContextBuilder,
	NewOrchestrator,
	wire.Bind(new(ModelGateway), new(*llm.Gateway)),
	NewChatService,
)
