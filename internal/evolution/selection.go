package evolution

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Selector 从种群中有放回地独立选出 n 个父代
// 返回的是原种群中的指针，调用方负责拷贝
type Selector interface {
	Select(pop []*Individual, n int, rng *rand.Rand) []*Individual
}

// TournamentSelector 锦标赛选择：每次均匀抽取 Size 个个体，保留其中最优的一个
type TournamentSelector struct {
	Size      int
	Direction Direction
}

func (ts TournamentSelector) Select(pop []*Individual, n int, rng *rand.Rand) []*Individual {
	size := ts.Size
	if size <= 0 {
		size = 3
	}

	selected := make([]*Individual, n)
	for k := range selected {
		best := pop[rng.Intn(len(pop))]
		for i := 1; i < size; i++ {
			cand := pop[rng.Intn(len(pop))]
			if ts.Direction.Better(cand.Fitness, best.Fitness) {
				best = cand
			}
		}
		selected[k] = best
	}
	return selected
}

// RouletteSelector 轮盘赌选择
// 原始适应度先经过 RouletteWeights 转换为非负、越大越好的权重
type RouletteSelector struct {
	Direction Direction
}

func (rs RouletteSelector) Select(pop []*Individual, n int, rng *rand.Rand) []*Individual {
	fitness := make([]float64, len(pop))
	for i, ind := range pop {
		fitness[i] = ind.Fitness
	}

	weights := RouletteWeights(fitness, rs.Direction)
	cumulative := make([]float64, len(weights))
	floats.CumSum(cumulative, weights)
	total := cumulative[len(cumulative)-1]

	selected := make([]*Individual, n)
	for k := range selected {
		if total <= 0 {
			// 所有权重都为 0（例如适应度全部相同），退化为均匀选择
			selected[k] = pop[rng.Intn(len(pop))]
			continue
		}

		spin := rng.Float64() * total
		idx := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > spin })
		if idx == len(cumulative) {
			idx = len(cumulative) - 1
		}
		selected[k] = pop[idx]
	}
	return selected
}

// RouletteWeights 把原始适应度转换为轮盘赌权重
//   - maximize：直接使用适应度；如果存在负值，整体平移使最小值为 0
//   - minimize：权重为 max - f，代价越小权重越大，最差的个体权重为 0
func RouletteWeights(fitness []float64, dir Direction) []float64 {
	weights := make([]float64, len(fitness))
	if len(fitness) == 0 {
		return weights
	}

	if dir == Maximize {
		lowest := floats.Min(fitness)
		for i, f := range fitness {
			if lowest < 0 {
				weights[i] = f - lowest
			} else {
				weights[i] = f
			}
		}
		return weights
	}

	highest := floats.Max(fitness)
	for i, f := range fitness {
		weights[i] = highest - f
	}
	return weights
}
