package evolution

import "slices"

// HallOfFame 名人堂：按适应度排序、容量有限的精英档案
// 始终保存运行至今最优的 N 个个体，适应度相同时先出现的排在前面；
// 档案中保存的是深拷贝，种群之后的变异不会影响档案。
type HallOfFame struct {
	size      int
	direction Direction
	items     []*Individual
}

func NewHallOfFame(size int, dir Direction) *HallOfFame {
	return &HallOfFame{
		size:      size,
		direction: dir,
		items:     make([]*Individual, 0, size),
	}
}

// Update 按种群顺序依次尝试插入，只接受适应度有效的个体
func (h *HallOfFame) Update(pop []*Individual) {
	if h.size <= 0 {
		return
	}

	for _, ind := range pop {
		if !ind.Valid || h.contains(ind.Genes) {
			continue
		}

		// 找到第一个严格劣于 ind 的位置，这样相同适应度的旧个体保持在前
		pos := len(h.items)
		for i, item := range h.items {
			if h.direction.Better(ind.Fitness, item.Fitness) {
				pos = i
				break
			}
		}

		if pos >= h.size {
			continue
		}

		h.items = slices.Insert(h.items, pos, ind.Clone())
		if len(h.items) > h.size {
			h.items = h.items[:h.size]
		}
	}
}

func (h *HallOfFame) contains(g Genotype) bool {
	for _, item := range h.items {
		if item.Genes.Equal(g) {
			return true
		}
	}
	return false
}

func (h *HallOfFame) Len() int {
	return len(h.items)
}

// Best 返回档案中最优的个体
func (h *HallOfFame) Best() (Individual, bool) {
	if len(h.items) == 0 {
		return Individual{}, false
	}
	return *h.items[0].Clone(), true
}

// Items 返回档案内容的拷贝，从优到劣
func (h *HallOfFame) Items() []Individual {
	out := make([]Individual, len(h.items))
	for i, item := range h.items {
		out[i] = *item.Clone()
	}
	return out
}
