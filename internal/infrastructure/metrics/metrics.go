// Package metrics 暴露 Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务指标集合，使用独立 Registry 便于测试
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	ChatRequests    *prometheus.CounterVec
	ChatDuration    *prometheus.HistogramVec
	ProviderCalls   *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	Fallbacks       prometheus.Counter
	ActiveModel     *prometheus.GaugeVec
	RateLimited     prometheus.Counter
}

// NewMetrics 创建并注册指标
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wacana_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wacana_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ChatRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wacana_chat_requests_total",
				Help: "Chat queries by mode, status and answer source",
			},
			[]string{"mode", "status", "source"},
		),
		ChatDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wacana_chat_request_duration_seconds",
				Help:    "End-to-end chat query duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"mode", "source"},
		),
		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wacana_provider_calls_total",
				Help: "LLM provider call attempts by model and outcome",
			},
			[]string{"model", "shape", "outcome"},
		),
		ProviderLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wacana_provider_call_duration_seconds",
				Help:    "LLM provider call duration in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"model", "shape"},
		),
		Fallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wacana_provider_fallbacks_total",
				Help: "Number of times the gateway advanced to the next candidate model",
			},
		),
		ActiveModel: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wacana_provider_active_model",
				Help: "1 for the model the gateway currently starts from",
			},
			[]string{"model"},
		),
		RateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wacana_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
	}
}

// Registry 指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveProviderCall 记录一次模型调用
func (m *Metrics) ObserveProviderCall(model, shape, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(model, shape, outcome).Inc()
	m.ProviderLatency.WithLabelValues(model, shape).Observe(d.Seconds())
}

// ObserveFallback 记录一次模型回退
func (m *Metrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.Fallbacks.Inc()
}

// SetActiveModel 切换活跃模型，prev 为空表示初始化
func (m *Metrics) SetActiveModel(prev, next string) {
	if m == nil {
		return
	}
	if prev != "" {
		m.ActiveModel.WithLabelValues(prev).Set(0)
	}
	m.ActiveModel.WithLabelValues(next).Set(1)
}

// ObserveChat 记录一次问答请求
func (m *Metrics) ObserveChat(mode, status, source string, d time.Duration) {
	if m == nil {
		return
	}
	m.ChatRequests.WithLabelValues(mode, status, source).Inc()
	m.ChatDuration.WithLabelValues(mode, source).Observe(d.Seconds())
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
