package semantic

import "context"

// Searcher 语义检索协作方
// 返回相似度不低于 threshold 的前 k 条，按相似度降序
type Searcher interface {
	Search(ctx context.Context, query string, types []SourceType, k int, threshold float32) ([]Match, error)
}
