package evolution

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistics 一代种群的统计信息
// Best 根据优化方向取最大值或最小值
type Statistics struct {
	Generation int     `json:"generation"`
	Size       int     `json:"size"`
	Best       float64 `json:"best"`
	Mean       float64 `json:"mean"`
}

func computeStatistics(gen int, pop []*Individual, dir Direction) Statistics {
	values := make([]float64, len(pop))
	for i, ind := range pop {
		values[i] = ind.Fitness
	}

	best := floats.Min(values)
	if dir == Maximize {
		best = floats.Max(values)
	}

	return Statistics{
		Generation: gen,
		Size:       len(pop),
		Best:       best,
		Mean:       stat.Mean(values, nil),
	}
}

// bestOf 返回种群中最优个体，适应度相同时取最先出现的
func bestOf(pop []*Individual, dir Direction) *Individual {
	best := pop[0]
	for _, ind := range pop[1:] {
		if dir.Better(ind.Fitness, best.Fitness) {
			best = ind
		}
	}
	return best
}
