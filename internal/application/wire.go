package application

import (
	"github.com/google/wire"

	"github.com/wacana/backend/internal/application/chatbot"
	"github.com/wacana/backend/internal/application/conversation"
	"github.com/wacana/backend/internal/application/stats"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	conversation.ProviderSet,
	chatbot.ProviderSet,
	stats.ProviderSet,
)
