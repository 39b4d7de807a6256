package infrastructure

import (
	"github.com/google/wire"

	"github.com/wacana/backend/internal/infrastructure/auth"
	"github.com/wacana/backend/internal/infrastructure/cache"
	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/infrastructure/embedding"
	"github.com/wacana/backend/internal/infrastructure/eventbus"
	"github.com/wacana/backend/internal/infrastructure/llm"
	"github.com/wacana/backend/internal/infrastructure/metrics"
	"github.com/wacana/backend/internal/infrastructure/storage"
	"github.com/wacana/backend/internal/infrastructure/tokenizer"
	"github.com/wacana/backend/internal/infrastructure/vector"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	auth.ProviderSet,
	cache.ProviderSet,
	metrics.ProviderSet,
	tokenizer.ProviderSet,
	embedding.ProviderSet,
	vector.ProviderSet,
	llm.ProviderSet,
	eventbus.ProviderSet,
)
