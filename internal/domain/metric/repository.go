package metric

import (
	"context"
	"time"
)

// Repository 指标记录仓储接口
type Repository interface {
	// Save 写入一条记录
	Save(ctx context.Context, m *RequestMetric) error

	// Totals 统计 [from, to] 区间内的记录
	Totals(ctx context.Context, from, to time.Time) (Totals, error)
}
