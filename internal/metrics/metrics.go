// Package metrics 基于 Prometheus 客户端的监控指标
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "homevisit"

// Registry 指标注册表
// 同时实现排程引擎的 Recorder 和中间件的 RequestRecorder
type Registry struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	planningRuns       *prometheus.CounterVec
	planningDuration   *prometheus.HistogramVec
	unscheduled        prometheus.Gauge
	routeOptimizations *prometheus.CounterVec
	routeDuration      *prometheus.HistogramVec
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Default 获取全局注册表，附带进程和运行时指标
func Default() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return defaultRegistry
}

// NewRegistry 创建独立的注册表并注册业务指标
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP请求总数",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP请求延迟",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"method", "path"}),
		planningRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "planning_runs_total",
			Help:      "访视排程次数",
		}, []string{"strategy", "status"}),
		planningDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "planning_duration_seconds",
			Help:      "访视排程耗时",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, []string{"strategy"}),
		unscheduled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unscheduled_patients",
			Help:      "最近一次排程未排上的患者数",
		}),
		routeOptimizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_optimizations_total",
			Help:      "路线优化次数",
		}, []string{"method"}),
		routeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_optimization_duration_seconds",
			Help:      "路线优化耗时",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
		}, []string{"method"}),
	}

	r.registry.MustRegister(
		r.httpRequests,
		r.httpDuration,
		r.planningRuns,
		r.planningDuration,
		r.unscheduled,
		r.routeOptimizations,
		r.routeDuration,
	)
	return r
}

// Handler 返回指标HTTP处理器
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordRequest 记录HTTP请求指标，path 应为路由模板
func (r *Registry) RecordRequest(method, path string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPlanning 记录一次排程运行
func (r *Registry) RecordPlanning(strategy, status string, duration time.Duration, unscheduled int) {
	r.planningRuns.WithLabelValues(strategy, status).Inc()
	r.planningDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	r.unscheduled.Set(float64(unscheduled))
}

// RecordRouteOptimization 记录一次路线优化
func (r *Registry) RecordRouteOptimization(method string, duration time.Duration) {
	r.routeOptimizations.WithLabelValues(method).Inc()
	r.routeDuration.WithLabelValues(method).Observe(duration.Seconds())
}
