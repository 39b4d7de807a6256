package handler

import (
	"github.com/google/wire"

	"github.com/wacana/backend/internal/application/chatbot"
	"github.com/wacana/backend/internal/application/conversation"
	"github.com/wacana/backend/internal/application/stats"
)

// ProviderSet Handler ProviderSet
var ProviderSet = wire.NewSet(
	NewChatbotHandler,
	NewMetricsHandler,
	wire.Bind(new(ChatService), new(*chatbot.ChatService)),
	wire.Bind(new(IdentityResolver), new(*conversation.IdentityResolver)),
	wire.Bind(new(SummaryProvider), new(*stats.SummaryService)),
)
