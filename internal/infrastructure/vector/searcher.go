package vector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wacana/backend/internal/domain/semantic"
	"github.com/wacana/backend/internal/infrastructure/embedding"
	"github.com/wacana/backend/internal/infrastructure/log"
)

// SemanticSearcher 查询向量化 + 向量检索
type SemanticSearcher struct {
	embedder embedding.Embedder
	index    Index
	logger   *slog.Logger
}

// NewSemanticSearcher 创建语义检索
func NewSemanticSearcher(embedder embedding.Embedder, index Index) *SemanticSearcher {
	return &SemanticSearcher{
		embedder: embedder,
		index:    index,
		logger:   log.NewModuleLogger("vector", "searcher"),
	}
}

// Search 实现 semantic.Searcher
func (s *SemanticSearcher) Search(ctx context.Context, query string, types []semantic.SourceType, k int, threshold float32) ([]semantic.Match, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.index.Search(ctx, vector, types, k, threshold)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Semantic search completed",
		"matches", len(matches),
		"k", k,
		"threshold", threshold,
	)
	return matches, nil
}

var _ semantic.Searcher = (*SemanticSearcher)(nil)
