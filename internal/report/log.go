package report

import (
	"log/slog"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

// LogReporter 通过 slog 输出每一代的统计信息
type LogReporter struct {
	Logger    *slog.Logger
	Direction evolution.Direction
	// Every 每隔多少代输出一次，<= 1 表示每一代都输出
	Every int
}

func (r *LogReporter) Generation(stats evolution.Statistics) {
	if r.Every > 1 && stats.Generation%r.Every != 0 {
		return
	}

	r.Logger.Info("进化中",
		slog.Int("generation", stats.Generation),
		slog.Float64(r.Direction.StatLabel(), stats.Best),
		slog.Float64("avg", stats.Mean),
	)
}

func (r *LogReporter) Finish(best evolution.Individual, history []evolution.Statistics) {
	r.Logger.Info("最优个体",
		slog.Any("genes", best.Genes),
		slog.Float64("fitness", best.Fitness),
		slog.Int("generations", len(history)),
	)
}
