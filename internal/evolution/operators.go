package evolution

import "math/rand"

// initPermutation 生成 [0, 1, 2, ..., n-1]
func initPermutation(p []int) {
	for i := range p {
		p[i] = i
	}
}

// shufflePermutation Fisher-Yates 洗牌
func shufflePermutation(p []int, rng *rand.Rand) {
	for i := len(p) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
}

// onePointCrossover 单点交叉：切点在 [1, n-1] 中均匀选取，交换两个染色体切点之后的基因
func onePointCrossover[T any](a, b []T, rng *rand.Rand) bool {
	n := len(a)
	if n < 2 || len(b) != n {
		return false
	}

	cut := 1 + rng.Intn(n-1)
	for i := cut; i < n; i++ {
		a[i], b[i] = b[i], a[i]
	}
	return true
}

// arithmeticCrossover 算术混合交叉，子代是父代的凸组合，因此不会越界
func arithmeticCrossover(a, b []float64, rng *rand.Rand) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}

	alpha := rng.Float64()
	for i := range a {
		x, y := a[i], b[i]
		a[i] = alpha*x + (1-alpha)*y
		b[i] = (1-alpha)*x + alpha*y
	}
	return true
}

// segment 随机选取一个非空区间 [lo, hi)
func segment(n int, rng *rand.Rand) (int, int) {
	lo := rng.Intn(n)
	hi := rng.Intn(n)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi + 1
}

// orderCrossover OX 交叉，原地修改 a 和 b，保证两个子代仍然是合法排列
func orderCrossover(a, b []int, rng *rand.Rand) bool {
	n := len(a)
	if n < 2 || len(b) != n {
		return false
	}

	lo, hi := segment(n, rng)
	p1 := append([]int(nil), a...)
	p2 := append([]int(nil), b...)

	oxChild(a, p1, p2, lo, hi)
	oxChild(b, p2, p1, lo, hi)
	return true
}

// oxChild 从 donor 复制区间 [lo, hi)，剩余位置按 other 中从 hi 开始的顺序填充
func oxChild(child, donor, other []int, lo, hi int) {
	n := len(child)
	used := make([]bool, n)

	for i := range child {
		child[i] = -1
	}
	for i := lo; i < hi; i++ {
		child[i] = donor[i]
		used[donor[i]] = true
	}

	pos := hi % n
	for i := 0; i < n; i++ {
		gene := other[(hi+i)%n]
		if used[gene] {
			continue
		}
		for child[pos] != -1 {
			pos = (pos + 1) % n
		}
		child[pos] = gene
		used[gene] = true
	}
}

// partiallyMappedCrossover PMX 交叉
func partiallyMappedCrossover(a, b []int, rng *rand.Rand) bool {
	n := len(a)
	if n < 2 || len(b) != n {
		return false
	}

	lo, hi := segment(n, rng)
	p1 := append([]int(nil), a...)
	p2 := append([]int(nil), b...)

	pmxChild(a, p1, p2, lo, hi)
	pmxChild(b, p2, p1, lo, hi)
	return true
}

func pmxChild(child, donor, other []int, lo, hi int) {
	n := len(child)

	// where[v] 表示基因 v 在 donor 区间中的位置，-1 表示不在区间中
	where := make([]int, n)
	for i := range where {
		where[i] = -1
	}
	for i := lo; i < hi; i++ {
		child[i] = donor[i]
		where[donor[i]] = i
	}

	for i := 0; i < n; i++ {
		if i >= lo && i < hi {
			continue
		}
		v := other[i]
		for where[v] >= 0 {
			v = other[where[v]]
		}
		child[i] = v
	}
}

// mutateFlip 按概率翻转每个二进制基因
func mutateFlip(g []int, rate float64, rng *rand.Rand) bool {
	changed := false
	for i := range g {
		if rng.Float64() < rate {
			g[i] = 1 - g[i]
			changed = true
		}
	}
	return changed
}

// mutateRedrawInt 按概率在 [low, high] 内重新抽取整数基因
func mutateRedrawInt(g []int, r IntRange, rate float64, rng *rand.Rand) bool {
	changed := false
	span := r.High - r.Low + 1
	for i := range g {
		if rng.Float64() < rate {
			v := r.Low + rng.Intn(span)
			if v != g[i] {
				g[i] = v
				changed = true
			}
		}
	}
	return changed
}

// mutateRedrawReal 按概率在 [low, high] 内重新抽取实数基因
func mutateRedrawReal(g []float64, r RealRange, rate float64, rng *rand.Rand) bool {
	changed := false
	for i := range g {
		if rng.Float64() < rate {
			v := r.Low + rng.Float64()*(r.High-r.Low)
			if v != g[i] {
				g[i] = v
				changed = true
			}
		}
	}
	return changed
}

// mutateSwap 交换两个不同位置的基因
func mutateSwap(p []int, rng *rand.Rand) bool {
	if len(p) < 2 {
		return false
	}
	i := rng.Intn(len(p))
	j := rng.Intn(len(p) - 1)
	if j >= i {
		j++
	}
	p[i], p[j] = p[j], p[i]
	return true
}

// mutateInversion 反转一个随机区间
func mutateInversion(p []int, rng *rand.Rand) bool {
	if len(p) < 2 {
		return false
	}
	lo, hi := segment(len(p), rng)
	if hi-lo < 2 {
		// 长度为 1 的区间反转没有效果，退化为交换
		return mutateSwap(p, rng)
	}
	for i, j := lo, hi-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return true
}
