package vector

import (
	"github.com/google/wire"

	"github.com/wacana/backend/internal/domain/semantic"
	"github.com/wacana/backend/internal/infrastructure/cache"
	"github.com/wacana/backend/internal/infrastructure/embedding"
)

// ProviderSet 向量检索 ProviderSet
var ProviderSet = wire.NewSet(
	NewQdrantStore,
	wire.Bind(new(Index), new(*QdrantStore)),
	wire.Bind(new(Writer), new(*QdrantStore)),
	wire.Bind(new(TextEmbedder), new(*embedding.Client)),
	NewIndexer,
	NewSemanticSearcher,
	ProvideSearcher,
)

// ProvideSearcher 在 Qdrant 检索外包一层结果缓存，缓存未配置时直接透传
func ProvideSearcher(s *SemanticSearcher, c *cache.Cache) semantic.Searcher {
	return cache.NewCachedSearcher(s, c)
}
