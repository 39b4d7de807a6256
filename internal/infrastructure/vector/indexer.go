package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wacana/backend/internal/domain/semantic"
	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/infrastructure/log"
)

// TextEmbedder 批量文本向量化
type TextEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Writer 向量索引写入
type Writer interface {
	EnsureCollection(ctx context.Context, vectorSize uint64) error
	Upsert(ctx context.Context, sourceType semantic.SourceType, rowID string, vector []float32) error
}

// Indexer 内容行向量化并写入索引
type Indexer struct {
	embedder  TextEmbedder
	writer    Writer
	dimension int
	logger    *slog.Logger
}

// NewIndexer 创建索引写入器
func NewIndexer(embedder TextEmbedder, writer Writer, cfg *config.EmbeddingConfig) *Indexer {
	return &Indexer{
		embedder:  embedder,
		writer:    writer,
		dimension: cfg.Dimension,
		logger:    log.NewModuleLogger("vector", "indexer"),
	}
}

// Prepare 按配置维度确保集合存在
func (i *Indexer) Prepare(ctx context.Context) error {
	if i.dimension <= 0 {
		return fmt.Errorf("invalid embedding dimension: %d", i.dimension)
	}
	return i.writer.EnsureCollection(ctx, uint64(i.dimension))
}

// Index 写入或覆盖一条内容；空文本跳过
func (i *Indexer) Index(ctx context.Context, doc semantic.Document) error {
	if strings.TrimSpace(doc.Text) == "" {
		i.logger.Warn("Empty content, skipping embedding",
			"source_type", doc.SourceType,
			"row_id", doc.RowID,
		)
		return nil
	}

	vectors, err := i.embedder.EmbedTexts(ctx, []string{doc.Text})
	if err != nil {
		return fmt.Errorf("failed to embed %s/%s: %w", doc.SourceType, doc.RowID, err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("empty embedding for %s/%s", doc.SourceType, doc.RowID)
	}
	if len(vectors[0]) != i.dimension {
		return fmt.Errorf("embedding dimension invalid for %s/%s: got %d, want %d",
			doc.SourceType, doc.RowID, len(vectors[0]), i.dimension)
	}
	return i.writer.Upsert(ctx, doc.SourceType, doc.RowID, vectors[0])
}

// IndexAll 逐条写入，单条失败不影响其余条目
// 返回成功条数与所有失败的合并错误
func (i *Indexer) IndexAll(ctx context.Context, docs []semantic.Document) (int, error) {
	var (
		indexed int
		errs    []error
	)
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := i.Index(ctx, doc); err != nil {
			i.logger.Error("Content embedding failed",
				"source_type", doc.SourceType,
				"row_id", doc.RowID,
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		indexed++
	}

	i.logger.Info("Content index sync finished",
		"documents", len(docs),
		"indexed", indexed,
		"failed", len(errs),
	)
	return indexed, errors.Join(errs...)
}

// DocumentSource 索引同步的内容来源
type DocumentSource interface {
	ListDocuments(ctx context.Context) ([]semantic.Document, error)
}

// Sync 确保集合存在；full 为 true 时把来源中的全部内容重新写入
func (i *Indexer) Sync(ctx context.Context, source DocumentSource, full bool) error {
	if err := i.Prepare(ctx); err != nil {
		return err
	}
	if !full {
		return nil
	}

	docs, err := source.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list content documents: %w", err)
	}
	_, err = i.IndexAll(ctx, docs)
	return err
}
