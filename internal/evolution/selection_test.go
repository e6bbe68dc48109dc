package evolution

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func population(fitness ...float64) []*Individual {
	return populationFrom(0, fitness...)
}

// populationFrom 第 i 个个体的基因型为 {base+i}
func populationFrom(base int, fitness ...float64) []*Individual {
	pop := make([]*Individual, len(fitness))
	for i, f := range fitness {
		pop[i] = &Individual{Genes: IntGenes{base + i}, Fitness: f, Valid: true}
	}
	return pop
}

func TestRouletteWeights(t *testing.T) {
	t.Run("maximize 非负适应度保持原值", func(t *testing.T) {
		assert.Equal(t, []float64{1, 3, 0}, RouletteWeights([]float64{1, 3, 0}, Maximize))
	})

	t.Run("maximize 存在负值时整体平移", func(t *testing.T) {
		assert.Equal(t, []float64{0, 4, 2}, RouletteWeights([]float64{-2, 2, 0}, Maximize))
	})

	t.Run("minimize 代价越小权重越大", func(t *testing.T) {
		w := RouletteWeights([]float64{10, 2, 6}, Minimize)
		assert.Equal(t, []float64{0, 8, 4}, w)
		for _, v := range w {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	})

	t.Run("空输入", func(t *testing.T) {
		assert.Empty(t, RouletteWeights(nil, Minimize))
	})
}

func TestRouletteSelectorFavoursBetter(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	// 最小化：第 0 个个体代价最高，权重为 0，永远不会被选中
	pop := population(100, 1, 50)
	counts := map[int]int{}
	for _, ind := range (RouletteSelector{Direction: Minimize}).Select(pop, 5000, rng) {
		counts[ind.Genes.(IntGenes)[0]]++
	}
	assert.Zero(t, counts[0])
	assert.Greater(t, counts[1], counts[2])

	// 适应度全部相同时退化为均匀选择
	flat := population(3, 3, 3)
	selected := (RouletteSelector{Direction: Minimize}).Select(flat, 300, rng)
	require.Len(t, selected, 300)
	seen := map[int]bool{}
	for _, ind := range selected {
		seen[ind.Genes.(IntGenes)[0]] = true
	}
	assert.Len(t, seen, 3)
}

func TestTournamentSelector(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	pop := population(5, 1, 9, 3)

	selected := (TournamentSelector{Size: len(pop) * 20, Direction: Maximize}).Select(pop, 50, rng)
	require.Len(t, selected, 50)
	for _, ind := range selected {
		// 锦标赛规模足够大时几乎总是选中全局最优
		assert.Equal(t, 9.0, ind.Fitness)
	}

	selected = (TournamentSelector{Size: 1, Direction: Minimize}).Select(pop, 400, rng)
	seen := map[float64]bool{}
	for _, ind := range selected {
		seen[ind.Fitness] = true
	}
	assert.Len(t, seen, 4, "规模为 1 的锦标赛等价于均匀抽样")
}

func TestHallOfFame(t *testing.T) {
	t.Run("保留最优的 N 个并按优劣排序", func(t *testing.T) {
		hof := NewHallOfFame(2, Minimize)
		hof.Update(population(5, 3, 7))
		hof.Update(populationFrom(3, 4, 1))

		items := hof.Items()
		require.Len(t, items, 2)
		assert.Equal(t, 1.0, items[0].Fitness)
		assert.Equal(t, IntGenes{4}, items[0].Genes)
		assert.Equal(t, 3.0, items[1].Fitness)
		assert.Equal(t, IntGenes{1}, items[1].Genes)
	})

	t.Run("适应度相同时先出现的排在前面", func(t *testing.T) {
		hof := NewHallOfFame(2, Maximize)
		first := &Individual{Genes: IntGenes{1, 0}, Fitness: 8, Valid: true}
		second := &Individual{Genes: IntGenes{0, 1}, Fitness: 8, Valid: true}
		third := &Individual{Genes: IntGenes{1, 1}, Fitness: 8, Valid: true}
		hof.Update([]*Individual{first, second})
		hof.Update([]*Individual{third})

		items := hof.Items()
		require.Len(t, items, 2)
		assert.Equal(t, IntGenes{1, 0}, items[0].Genes)
		assert.Equal(t, IntGenes{0, 1}, items[1].Genes)
	})

	t.Run("相同基因型只保存一次", func(t *testing.T) {
		hof := NewHallOfFame(3, Maximize)
		hof.Update([]*Individual{
			{Genes: IntGenes{1, 1}, Fitness: 2, Valid: true},
			{Genes: IntGenes{1, 1}, Fitness: 2, Valid: true},
		})
		assert.Equal(t, 1, hof.Len())
	})

	t.Run("跳过适应度失效的个体", func(t *testing.T) {
		hof := NewHallOfFame(3, Maximize)
		hof.Update([]*Individual{{Genes: IntGenes{1}, Fitness: 100}})
		assert.Equal(t, 0, hof.Len())
		_, ok := hof.Best()
		assert.False(t, ok)
	})

	t.Run("档案中的个体不受种群变异影响", func(t *testing.T) {
		hof := NewHallOfFame(1, Maximize)
		ind := &Individual{Genes: IntGenes{1, 1, 1}, Fitness: 3, Valid: true}
		hof.Update([]*Individual{ind})

		ind.Genes.(IntGenes)[0] = 0
		best, ok := hof.Best()
		require.True(t, ok)
		assert.Equal(t, IntGenes{1, 1, 1}, best.Genes)
	})

	t.Run("最优值单调不变差", func(t *testing.T) {
		rng := rand.New(rand.NewSource(21))
		hof := NewHallOfFame(3, Minimize)
		prev := 0.0
		for gen := 0; gen < 200; gen++ {
			pop := make([]*Individual, 10)
			for i := range pop {
				pop[i] = &Individual{Genes: IntGenes{gen, i}, Fitness: rng.Float64() * 100, Valid: true}
			}
			hof.Update(pop)

			best, ok := hof.Best()
			require.True(t, ok)
			if gen > 0 {
				require.LessOrEqual(t, best.Fitness, prev)
			}
			prev = best.Fitness
		}
	})

	t.Run("大小为 0 时不保存任何个体", func(t *testing.T) {
		hof := NewHallOfFame(0, Maximize)
		hof.Update(population(1, 2, 3))
		assert.Equal(t, 0, hof.Len())
	})
}
