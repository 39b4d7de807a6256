// Package vector 基于 Qdrant 的内容语义检索
package vector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/wacana/backend/internal/domain/semantic"
	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/infrastructure/log"
)

// payload 字段
const (
	payloadRowID      = "row_id"
	payloadSourceType = "source_type"
)

// pointNamespace 内容行到点 ID 的命名空间
var pointNamespace = uuid.MustParse("8f2a3c1e-5b7d-4e90-a6c4-2d1f0b9e7a35")

// Index 向量索引
type Index interface {
	Search(ctx context.Context, vector []float32, types []semantic.SourceType, k int, threshold float32) ([]semantic.Match, error)
}

// QdrantStore Qdrant 集合访问
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

// NewQdrantStore 创建 Qdrant 连接
// gRPC 连接惰性建立，Qdrant 未启动时不阻止服务启动
func NewQdrantStore(cfg *config.QdrantConfig) (*QdrantStore, func(), error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Host,
		Port:                   cfg.Port,
		APIKey:                 cfg.APIKey,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	store := &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		logger:     log.NewModuleLogger("vector", "qdrant"),
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			store.logger.Warn("Failed to close qdrant client", "error", err)
		}
	}
	return store, cleanup, nil
}

// EnsureCollection 确保集合存在
func (s *QdrantStore) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	s.logger.Info("Qdrant collection created", "collection", s.collection, "vector_size", vectorSize)
	return nil
}

// Upsert 写入或覆盖一条内容向量
func (s *QdrantStore) Upsert(ctx context.Context, sourceType semantic.SourceType, rowID string, vector []float32) error {
	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(PointID(sourceType, rowID)),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadRowID:      rowID,
					payloadSourceType: string(sourceType),
				}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s/%s: %w", sourceType, rowID, err)
	}
	return nil
}

// Search 按来源类型过滤的相似度检索
func (s *QdrantStore) Search(ctx context.Context, vector []float32, types []semantic.SourceType, k int, threshold float32) ([]semantic.Match, error) {
	limit := uint64(k)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		ScoreThreshold: &threshold,
		Filter:         buildSourceFilter(types),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query qdrant: %w", err)
	}

	s.logger.Debug("Qdrant search completed", "hits_count", len(hits))
	return hitsToMatches(hits, threshold), nil
}

// PointID 内容行对应的稳定点 ID
func PointID(sourceType semantic.SourceType, rowID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(string(sourceType)+":"+rowID)).String()
}

// buildSourceFilter 构建来源类型过滤条件（OR）
func buildSourceFilter(types []semantic.SourceType) *qdrant.Filter {
	if len(types) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, len(types))
	for i, t := range types {
		conditions[i] = qdrant.NewMatch(payloadSourceType, string(t))
	}
	return &qdrant.Filter{Should: conditions}
}

// hitsToMatches 转换命中结果，跳过 payload 不完整或低于阈值的点
func hitsToMatches(hits []*qdrant.ScoredPoint, threshold float32) []semantic.Match {
	matches := make([]semantic.Match, 0, len(hits))
	for _, hit := range hits {
		if hit.GetScore() < threshold {
			continue
		}
		payload := hit.GetPayload()
		rowID := extractStringValue(payload[payloadRowID])
		sourceType := extractStringValue(payload[payloadSourceType])
		if rowID == "" || sourceType == "" {
			continue
		}
		matches = append(matches, semantic.Match{
			RowID:      rowID,
			SourceType: semantic.SourceType(sourceType),
			Similarity: hit.GetScore(),
		})
	}
	return matches
}

// extractStringValue 从 qdrant.Value 提取字符串值
func extractStringValue(val *qdrant.Value) string {
	if val == nil {
		return ""
	}
	return val.GetStringValue()
}

var _ Index = (*QdrantStore)(nil)
