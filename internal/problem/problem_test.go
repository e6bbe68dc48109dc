package problem

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

func TestTravelingSalesman(t *testing.T) {
	// 3-4-5 直角三角形
	tsp := NewTravelingSalesman([]City{
		{Name: "A", X: 0, Y: 0},
		{Name: "B", X: 3, Y: 0},
		{Name: "C", X: 3, Y: 4},
	})

	cost, err := tsp.Evaluate(evolution.IntGenes{0, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 12.0, cost, 1e-9)

	_, err = tsp.Evaluate(evolution.IntGenes{0, 1})
	require.ErrorIs(t, err, evolution.ErrDimensionMismatch)
}

func TestTravelingSalesmanTourProperties(t *testing.T) {
	cities := RandomCities(15, 100, 7)
	tsp := NewTravelingSalesman(cities)
	rng := rand.New(rand.NewSource(3))

	for trial := 0; trial < 100; trial++ {
		tour := rng.Perm(len(cities))

		// 适应度等于沿回路的两两距离之和
		want, cycle := 0.0, 0.0
		for i := range tour {
			from, to := tour[i], tour[(i+1)%len(tour)]
			a, b := cities[from], cities[to]
			d := math.Hypot(a.X-b.X, a.Y-b.Y)
			require.InDelta(t, d, tsp.Distance(from, to), 1e-9)
			require.InDelta(t, tsp.Distance(from, to), tsp.Distance(to, from), 1e-12)
			want += d
			cycle += tsp.Distance(from, to)
		}
		got, err := tsp.Evaluate(evolution.IntGenes(tour))
		require.NoError(t, err)
		require.InDelta(t, want, got, 1e-9)
		require.InDelta(t, cycle, got, 1e-9)

		// 距离对称，反向回路长度相同
		reversed := slices.Clone(tour)
		slices.Reverse(reversed)
		back, err := tsp.Evaluate(evolution.IntGenes(reversed))
		require.NoError(t, err)
		require.InDelta(t, got, back, 1e-9)
	}
}

func TestKnapsack(t *testing.T) {
	k := NewKnapsack(DefaultKnapsackItems(), DefaultKnapsackCapacity, 0.05)
	rng := rand.New(rand.NewSource(5))

	for trial := 0; trial < 500; trial++ {
		genes := make(evolution.IntGenes, k.Dimension())
		for i := range genes {
			genes[i] = rng.Intn(2)
		}

		_, weight, value := k.Selected(genes)
		fitness, err := k.Evaluate(genes)
		require.NoError(t, err)

		if weight <= k.Capacity() {
			// 不超重时没有任何惩罚
			require.Equal(t, float64(value), fitness)
		} else {
			require.Less(t, fitness, float64(value))
			require.GreaterOrEqual(t, fitness, 0.0)
		}
	}
}

func TestKnapsackOverflowPenalty(t *testing.T) {
	k := NewKnapsack([]Item{{"a", 6, 10}, {"b", 6, 20}}, 10, 0.5)

	fitness, err := k.Evaluate(evolution.IntGenes{1, 1})
	require.NoError(t, err)
	// 超重 2，价值缩减为 30 / (1 + 0.5*2)
	assert.Equal(t, 15.0, fitness)

	fitness, err = k.Evaluate(evolution.IntGenes{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 20.0, fitness)

	items, weight, value := k.Selected([]int{0, 1})
	assert.Equal(t, []Item{{"b", 6, 20}}, items)
	assert.Equal(t, 6, weight)
	assert.Equal(t, 20, value)
}

func TestNurseScheduling(t *testing.T) {
	p := &NurseScheduling{
		Nurses:                []string{"A", "B"},
		Weeks:                 1,
		ShiftsPerDay:          3,
		ShiftMin:              []int{1, 0, 0},
		ShiftMax:              []int{1, 1, 1},
		MaxShiftsPerWeek:      5,
		Preferences:           [][]int{{1, 1, 1}, {0, 1, 1}},
		HardConstraintPenalty: 10,
	}
	require.Equal(t, 42, p.Dimension())

	// A 每天上早班，B 不上班：只有每周班次超出上限
	genes := make([]int, p.Dimension())
	for d := 0; d < 7; d++ {
		genes[d*3] = 1
	}
	v := p.Violations(genes)
	assert.Equal(t, NurseViolations{ShiftsPerWeek: 2}, v)

	// A 只上 5 天早班，B 上剩下两天早班，但 B 不喜欢早班
	genes[5*3], genes[6*3] = 0, 0
	genes[21+5*3], genes[21+6*3] = 1, 1
	v = p.Violations(genes)
	assert.Equal(t, NurseViolations{Preferences: 2}, v)

	cost, err := p.Evaluate(evolution.IntGenes(genes))
	require.NoError(t, err)
	assert.Equal(t, 2.0, cost)

	// A 第一天连上早班和中班，中班人数仍在范围内
	genes[1] = 1
	v = p.Violations(genes)
	assert.Equal(t, 1, v.MultipleShiftsPerDay)
	assert.Equal(t, 1, v.ConsecutiveShifts)
	assert.Equal(t, 1, v.ShiftsPerWeek)
	assert.Equal(t, 0, v.Staffing)

	// 第二天早班没人
	genes[3] = 0
	v = p.Violations(genes)
	assert.Equal(t, 1, v.Staffing)
	assert.Equal(t, 0, v.ShiftsPerWeek)
}

func TestNurseSchedulingDefault(t *testing.T) {
	p := DefaultNurseScheduling()
	require.Equal(t, 8*7*3, p.Dimension())

	// 所有人都不上班：每个班次都人数不足
	v := p.Violations(make([]int, p.Dimension()))
	assert.Equal(t, 7*(2+2+1), v.Staffing)
	assert.Equal(t, 0, v.Soft())
}

func TestRosenbrock(t *testing.T) {
	r := NewRosenbrock(2)

	value, err := r.Evaluate(evolution.RealGenes{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, value)

	value, err = r.Evaluate(evolution.RealGenes{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, value)

	ax, by := r.Components(0, 0)
	assert.Equal(t, 1.0, ax)
	assert.Equal(t, 0.0, by)

	ax, by = r.Components(2, 3)
	assert.Equal(t, 1.0, ax)
	assert.Equal(t, 100.0, by)

	assert.Equal(t, 0.0, NewRosenbrock(5).Value(NewRosenbrock(5).Optimum()))

	_, err = r.Evaluate(evolution.RealGenes{1, 1, 1})
	require.ErrorIs(t, err, evolution.ErrDimensionMismatch)
	_, err = r.Evaluate(evolution.IntGenes{1, 1})
	require.ErrorIs(t, err, evolution.ErrDimensionMismatch)
}

func TestExpression(t *testing.T) {
	e, err := NewExpression("(x0 - 1) ** 2 + abs(x1) + pow(x2, 2)", 3)
	require.NoError(t, err)

	value, err := e.Evaluate(evolution.RealGenes{3, -2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, value, 1e-9)

	_, err = NewExpression("x0 +", 1)
	require.ErrorIs(t, err, evolution.ErrConfiguration)

	// x3 超出维度
	_, err = NewExpression("x0 + x3", 2)
	require.ErrorIs(t, err, evolution.ErrConfiguration)

	_, err = NewExpression("x0", 0)
	require.ErrorIs(t, err, evolution.ErrConfiguration)
}

func TestDefaultRegistry(t *testing.T) {
	registry, err := DefaultRegistry()
	require.NoError(t, err)

	names := make([]string, 0)
	for _, record := range registry.Records() {
		names = append(names, record.Name)
		assert.Equal(t, record.Length, record.Evaluator.Dimension(), record.Name)
	}
	assert.Equal(t, []string{"knapsack", "nurses", "rosenbrock", "timetabling", "tsp"}, names)

	_, err = registry.Get("queens")
	require.ErrorIs(t, err, ErrProblemNotFound)

	record, err := registry.Get("tsp")
	require.NoError(t, err)
	require.ErrorIs(t, registry.Register(record), ErrDuplicateProblem)
}

func TestRegistryProblemsRun(t *testing.T) {
	registry, err := DefaultRegistry()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, record := range registry.Records() {
		t.Run(record.Name, func(t *testing.T) {
			params := evolution.DefaultParameters()
			params.Generations = 10
			seed := int64(42)
			params.Seed = &seed

			engine, err := evolution.New(record.Problem(), params, evolution.WithLogger(logger))
			require.NoError(t, err)
			result, err := engine.Run(context.Background())
			require.NoError(t, err)
			require.Len(t, result.History, 10)

			// 结果中的最优个体在重新评估后得到同样的适应度
			fitness, err := record.Evaluator.Evaluate(result.Best.Genes)
			require.NoError(t, err)
			assert.Equal(t, result.BestFitness, fitness)
		})
	}
}
