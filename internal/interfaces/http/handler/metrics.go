package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wacana/backend/internal/domain/metric"
	"github.com/wacana/backend/internal/infrastructure/log"
	"github.com/wacana/backend/internal/interfaces/http/response"
)

// SummaryProvider 指标汇总
type SummaryProvider interface {
	Summary(ctx context.Context, from, to time.Time) (*metric.Summary, error)
}

// MetricsHandler 指标汇总接口
type MetricsHandler struct {
	summary SummaryProvider
	logger  *slog.Logger
}

// NewMetricsHandler 创建指标汇总处理器
func NewMetricsHandler(summary SummaryProvider) *MetricsHandler {
	return &MetricsHandler{summary: summary, logger: log.NewModuleLogger("http", "metrics")}
}

// Summary 区间统计，缺省为最近 30 天
// @Summary 获取问答统计汇总
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param from query string false "起始时间（RFC3339）"
// @Param to query string false "结束时间（RFC3339）"
// @Success 200 {object} response.Response{data=metric.Summary}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /chatbot/metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	from, err := parseTime(c.Query("from"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "from must be an RFC3339 timestamp")
		return
	}
	to, err := parseTime(c.Query("to"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "to must be an RFC3339 timestamp")
		return
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		response.Error(c, http.StatusBadRequest, "from must not be after to")
		return
	}

	summary, err := h.summary.Summary(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Error("Failed to build metrics summary", "error", err)
		response.Error(c, http.StatusInternalServerError, "Failed to load metrics summary.")
		return
	}
	response.Success(c, summary)
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}
