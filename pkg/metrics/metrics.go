// Package metrics 提供 Prometheus 指标封装，覆盖估值运行与逐步回归拟合的观测。
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jimmyrisk/GP-Quant/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// 估值运行计数
	ValuationsTotal prometheus.Counter
	// 估值运行失败计数
	ValuationFailures prometheus.Counter
	// 单次估值运行耗时
	ValuationDuration prometheus.Histogram

	// 单步回归拟合耗时
	StepFitDuration prometheus.Histogram
	// 单步设计点数量分布
	DesignPoints prometheus.Histogram
	// 累计路径仿真次数
	SimulationsTotal prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		ValuationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpquant",
			Subsystem: serviceName,
			Name:      "valuations_total",
			Help:      "Total valuation runs completed",
		}),
		ValuationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpquant",
			Subsystem: serviceName,
			Name:      "valuation_failures_total",
			Help:      "Total valuation runs that failed",
		}),
		ValuationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gpquant",
			Subsystem: serviceName,
			Name:      "valuation_duration_seconds",
			Help:      "End-to-end valuation run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		StepFitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gpquant",
			Subsystem: serviceName,
			Name:      "step_fit_duration_seconds",
			Help:      "Per-step surrogate fit duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		DesignPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gpquant",
			Subsystem: serviceName,
			Name:      "design_points",
			Help:      "Unique design points per backward induction step",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		SimulationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpquant",
			Subsystem: serviceName,
			Name:      "simulations_total",
			Help:      "Total one-step path simulations consumed",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.ValuationsTotal,
		m.ValuationFailures,
		m.ValuationDuration,
		m.StepFitDuration,
		m.DesignPoints,
		m.SimulationsTotal,
	}

	for _, c := range collectors {
		if err := prometheus.DefaultRegisterer.Register(c); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}
	return nil
}

// StartHTTPServer 启动 Prometheus 抓取端点
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
