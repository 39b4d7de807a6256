// Package stats 问答指标的落库与汇总
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wacana/backend/internal/domain/events"
	"github.com/wacana/backend/internal/domain/metric"
	"github.com/wacana/backend/internal/infrastructure/log"
	"github.com/wacana/backend/internal/infrastructure/metrics"
)

// saveTimeout 单条指标写入超时
const saveTimeout = 5 * time.Second

// Recorder 订阅 QueryCompletedEvent，写入指标表并更新 Prometheus 计数
type Recorder struct {
	repo   metric.Repository
	prom   *metrics.Metrics
	logger *slog.Logger
}

// NewRecorder 创建指标记录器
func NewRecorder(repo metric.Repository, prom *metrics.Metrics) *Recorder {
	return &Recorder{
		repo:   repo,
		prom:   prom,
		logger: log.NewModuleLogger("stats", "recorder"),
	}
}

// HandleEvent 实现 events.Handler
// 写入失败只记录日志，不影响已返回的响应
func (r *Recorder) HandleEvent(event events.Event) error {
	e, ok := event.(*events.QueryCompletedEvent)
	if !ok || e.Metric == nil {
		return nil
	}
	m := e.Metric

	r.prom.ObserveChat(string(m.Mode), string(m.Status), string(m.Source), time.Duration(m.DurationMs)*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := r.repo.Save(ctx, m); err != nil {
		r.logger.Error("Failed to save request metric",
			"session_id", m.SessionID,
			"status", m.Status,
			"error", err,
		)
		return fmt.Errorf("failed to save request metric: %w", err)
	}
	return nil
}

var _ events.Handler = (*Recorder)(nil)
