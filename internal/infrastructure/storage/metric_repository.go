package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wacana/backend/internal/domain/metric"
)

// metricRepository 请求指标 SQLite 仓储实现
type metricRepository struct {
	db *sql.DB
}

// NewMetricRepository 创建请求指标仓储
func NewMetricRepository(db *sql.DB) metric.Repository {
	return &metricRepository{db: db}
}

// Save 写入一条记录
func (r *metricRepository) Save(ctx context.Context, m *metric.RequestMetric) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	attempted := m.AttemptedModels
	if attempted == nil {
		attempted = []string{}
	}
	attemptedJSON, err := json.Marshal(attempted)
	if err != nil {
		return fmt.Errorf("failed to marshal attempted models: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO chatbot_request_metrics (
			owner_type, owner_id, session_id, mode, status, source,
			model_name, attempted_models, fallback_used, fallback_count,
			prompt_tokens, duration_ms, error_code, error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(m.OwnerType),
		m.OwnerID,
		m.SessionID,
		string(m.Mode),
		string(m.Status),
		string(m.Source),
		nullString(m.ModelName),
		string(attemptedJSON),
		boolToInt(m.FallbackUsed),
		m.FallbackCount,
		m.PromptTokens,
		m.DurationMs,
		nullString(m.ErrorCode),
		nullString(m.ErrorMessage),
		m.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save request metric: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		m.ID = id
	}
	return nil
}

// Totals 统计 [from, to] 区间内的记录
func (r *metricRepository) Totals(ctx context.Context, from, to time.Time) (metric.Totals, error) {
	var t metric.Totals
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN fallback_used = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN source = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN source = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(duration_ms), 0),
			COUNT(DISTINCT session_id),
			COUNT(DISTINCT owner_type || ':' || owner_id)
		FROM chatbot_request_metrics
		WHERE created_at >= ? AND created_at <= ?`,
		string(metric.StatusSuccess),
		string(metric.StatusFailed),
		string(metric.SourceIntent),
		string(metric.SourceSemanticNoContext),
		from.UnixMilli(),
		to.UnixMilli(),
	).Scan(
		&t.Total,
		&t.Success,
		&t.Failed,
		&t.Fallback,
		&t.Intent,
		&t.NoContext,
		&t.DurationMs,
		&t.UniqueSessions,
		&t.UniqueOwners,
	)
	if err != nil {
		return metric.Totals{}, fmt.Errorf("failed to aggregate request metrics: %w", err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// 编译时检查接口实现
var _ metric.Repository = (*metricRepository)(nil)
