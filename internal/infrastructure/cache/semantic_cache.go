package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/wacana/backend/internal/domain/semantic"
	"github.com/wacana/backend/internal/infrastructure/log"
)

const semanticKeyPrefix = "wacana:semantic:"

// CachedSearcher 语义检索结果缓存
// 只缓存命中列表，内容行每次重新读取
type CachedSearcher struct {
	inner  semantic.Searcher
	cache  *Cache
	logger *slog.Logger
}

// NewCachedSearcher 包装语义检索
func NewCachedSearcher(inner semantic.Searcher, cache *Cache) *CachedSearcher {
	return &CachedSearcher{
		inner:  inner,
		cache:  cache,
		logger: log.NewModuleLogger("cache", "semantic"),
	}
}

// Search 先查缓存，未命中再委托检索并回写
func (s *CachedSearcher) Search(ctx context.Context, query string, types []semantic.SourceType, k int, threshold float32) ([]semantic.Match, error) {
	if !s.cache.Enabled() {
		return s.inner.Search(ctx, query, types, k, threshold)
	}

	key := SemanticKey(query, types, k, threshold)
	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("Semantic cache read failed", "error", err)
	} else if ok {
		var matches []semantic.Match
		if err := json.Unmarshal([]byte(raw), &matches); err == nil {
			s.logger.Debug("Semantic cache hit", "key", key, "matches", len(matches))
			return matches, nil
		}
	}

	matches, err := s.inner.Search(ctx, query, types, k, threshold)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(matches); err == nil {
		if err := s.cache.Set(ctx, key, string(data), 0); err != nil {
			s.logger.Warn("Semantic cache write failed", "error", err)
		}
	}
	return matches, nil
}

// SemanticKey 按规范化查询与检索参数生成缓存键
func SemanticKey(query string, types []semantic.SourceType, k int, threshold float32) string {
	sorted := make([]string, len(types))
	for i, t := range types {
		sorted[i] = string(t)
	}
	sort.Strings(sorted)

	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%d|%.3f", normalized, strings.Join(sorted, ","), k, threshold)))
	return semanticKeyPrefix + hex.EncodeToString(sum[:])
}

var _ semantic.Searcher = (*CachedSearcher)(nil)
