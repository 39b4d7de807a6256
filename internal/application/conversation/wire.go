package conversation

import (
	"github.com/google/wire"

	"github.com/wacana/backend/internal/infrastructure/auth"
)

// ProviderSet 对话应用层 ProviderSet
var ProviderSet = wire.NewSet(
	NewIdentityResolver,
	wire.Bind(new(TokenVerifier), new(*auth.TokenVerifier)),
	NewHistoryService,
)
