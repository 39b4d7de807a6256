package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/wacana/backend/internal/domain/metric"
)

// DefaultWindow 未指定起止时间时的统计窗口
const DefaultWindow = 30 * 24 * time.Hour

// SummaryService 指标汇总
type SummaryService struct {
	repo metric.Repository
	now  func() time.Time
}

// NewSummaryService 创建汇总服务
func NewSummaryService(repo metric.Repository) *SummaryService {
	return &SummaryService{repo: repo, now: time.Now}
}

// Summary 汇总 [from, to] 区间
// to 为零值时取当前时间；from 为零值时取 to 往前 30 天
func (s *SummaryService) Summary(ctx context.Context, from, to time.Time) (*metric.Summary, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-DefaultWindow)
	}
	if from.After(to) {
		return nil, fmt.Errorf("invalid range: from %s is after to %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	totals, err := s.repo.Totals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load metric totals: %w", err)
	}
	return metric.Summarize(totals), nil
}
