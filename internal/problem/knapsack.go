package problem

import (
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

type Item struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Value  int    `json:"value"`
}

// Knapsack 0/1 背包问题，基因型是每个物品是否装入的二进制向量
type Knapsack struct {
	items    []Item
	capacity int
	// overflowPenalty 每超出 1 单位重量对价值的缩减系数
	overflowPenalty float64
}

func NewKnapsack(items []Item, capacity int, overflowPenalty float64) *Knapsack {
	return &Knapsack{
		items:           items,
		capacity:        capacity,
		overflowPenalty: overflowPenalty,
	}
}

// DefaultKnapsackItems 经典的徒步背包实例，容量为 400
func DefaultKnapsackItems() []Item {
	return []Item{
		{"map", 9, 150}, {"compass", 13, 35}, {"water", 153, 200}, {"sandwich", 50, 160},
		{"glucose", 15, 60}, {"tin", 68, 45}, {"banana", 27, 60}, {"apple", 39, 40},
		{"cheese", 23, 30}, {"beer", 52, 10}, {"suntan cream", 11, 70}, {"camera", 32, 30},
		{"t-shirt", 24, 15}, {"trousers", 48, 10}, {"umbrella", 73, 40}, {"waterproof trousers", 42, 70},
		{"waterproof overclothes", 43, 75}, {"note-case", 22, 80}, {"sunglasses", 7, 20}, {"towel", 18, 12},
		{"socks", 4, 50}, {"book", 30, 10},
	}
}

const DefaultKnapsackCapacity = 400

func (k *Knapsack) Dimension() int {
	return len(k.items)
}

func (k *Knapsack) Items() []Item {
	return k.items
}

func (k *Knapsack) Capacity() int {
	return k.capacity
}

func (k *Knapsack) Evaluate(g evolution.Genotype) (float64, error) {
	genes, err := intGenes(g, len(k.items))
	if err != nil {
		return 0, err
	}

	weight, value := k.totals(genes)
	if weight <= k.capacity {
		return float64(value), nil
	}

	// 超重时不直接拒绝，而是按超出的重量缩减价值
	excess := float64(weight - k.capacity)
	return float64(value) / (1 + k.overflowPenalty*excess), nil
}

// Selected 返回被装入的物品以及它们的总重量和总价值
func (k *Knapsack) Selected(genes []int) ([]Item, int, int) {
	items := make([]Item, 0)
	for i, gene := range genes {
		if gene > 0 {
			items = append(items, k.items[i])
		}
	}
	weight, value := k.totals(genes)
	return items, weight, value
}

func (k *Knapsack) totals(genes []int) (int, int) {
	weight, value := 0, 0
	for i, gene := range genes {
		if gene > 0 {
			weight += k.items[i].Weight
			value += k.items[i].Value
		}
	}
	return weight, value
}
