package report

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

var (
	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evolution_runs_total",
		Help: "按问题和状态统计的运行次数",
	}, []string{"problem", "status"})
	runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evolution_run_duration_seconds",
		Help:    "单次运行耗时",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"problem"})
	evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evolution_evaluations_total",
		Help: "适应度函数的调用次数",
	}, []string{"problem"})
	generationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evolution_generations_total",
		Help: "已完成的代数",
	}, []string{"problem"})
	bestFitness = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evolution_best_fitness",
		Help: "最近一次运行当前代的最优适应度",
	}, []string{"problem"})
)

func init() {
	prometheus.MustRegister(runsTotal, runDuration, evaluationsTotal, generationsTotal, bestFitness)
}

// MetricsReporter 在每一代结束时更新 prometheus 指标
type MetricsReporter struct {
	Problem string
}

func (m MetricsReporter) Generation(stats evolution.Statistics) {
	generationsTotal.WithLabelValues(m.Problem).Inc()
	bestFitness.WithLabelValues(m.Problem).Set(stats.Best)
}

func (m MetricsReporter) Finish(best evolution.Individual, history []evolution.Statistics) {
	bestFitness.WithLabelValues(m.Problem).Set(best.Fitness)
}

// ObserveRun 记录一次运行的结果，status 为 finished、failed 或 cached
func ObserveRun(problem, status string, duration time.Duration, evaluations int) {
	runsTotal.WithLabelValues(problem, status).Inc()
	if status == "finished" {
		runDuration.WithLabelValues(problem).Observe(duration.Seconds())
		evaluationsTotal.WithLabelValues(problem).Add(float64(evaluations))
	}
}
