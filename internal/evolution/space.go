package evolution

import (
	"fmt"
	"math/rand"
)

// Space 基因型空间
// 针对某种编码的初始化、交叉和变异算子在构造时一次性选定，之后不再重新推导
type Space struct {
	spec Spec

	initialize func(rng *rand.Rand) Genotype
	crossover  func(a, b Genotype, rng *rand.Rand) bool
	mutate     func(g Genotype, rng *rand.Rand) bool
}

func NewSpace(spec Spec, ops Operators) (*Space, error) {
	if spec.Length <= 0 {
		return nil, fmt.Errorf("%w: 染色体长度必须 > 0 (得到 %d)", ErrConfiguration, spec.Length)
	}

	rate := ops.GeneRate
	if rate == 0 {
		rate = 1 / float64(spec.Length)
	}

	s := &Space{spec: spec}
	n := spec.Length

	switch spec.Representation {
	case Binary:
		s.initialize = func(rng *rand.Rand) Genotype {
			g := make(IntGenes, n)
			for i := range g {
				g[i] = rng.Intn(2)
			}
			return g
		}
		s.crossover = intCrossover(onePointCrossover[int])
		s.mutate = func(g Genotype, rng *rand.Rand) bool {
			return mutateFlip(g.(IntGenes), rate, rng)
		}

	case Integer:
		r := spec.IntRange
		if r.Low > r.High {
			return nil, fmt.Errorf("%w: 整数范围不合法 [%d, %d]", ErrConfiguration, r.Low, r.High)
		}
		s.initialize = func(rng *rand.Rand) Genotype {
			g := make(IntGenes, n)
			for i := range g {
				g[i] = r.Low + rng.Intn(r.High-r.Low+1)
			}
			return g
		}
		s.crossover = intCrossover(onePointCrossover[int])
		s.mutate = func(g Genotype, rng *rand.Rand) bool {
			return mutateRedrawInt(g.(IntGenes), r, rate, rng)
		}

	case Permutation:
		s.initialize = func(rng *rand.Rand) Genotype {
			g := make(IntGenes, n)
			initPermutation(g)
			shufflePermutation(g, rng)
			return g
		}
		switch ops.PermutationCrossover {
		case "", OrderCrossover:
			s.crossover = intCrossover(orderCrossover)
		case PartiallyMapped:
			s.crossover = intCrossover(partiallyMappedCrossover)
		default:
			return nil, fmt.Errorf("%w: 排列编码不支持交叉算子 %q", ErrConfiguration, ops.PermutationCrossover)
		}
		switch ops.PermutationMutation {
		case "", SwapMutation:
			s.mutate = func(g Genotype, rng *rand.Rand) bool { return mutateSwap(g.(IntGenes), rng) }
		case InversionMutation:
			s.mutate = func(g Genotype, rng *rand.Rand) bool { return mutateInversion(g.(IntGenes), rng) }
		default:
			return nil, fmt.Errorf("%w: 排列编码不支持变异算子 %q", ErrConfiguration, ops.PermutationMutation)
		}

	case Real:
		r := spec.RealRange
		if r.Low > r.High {
			return nil, fmt.Errorf("%w: 实数范围不合法 [%f, %f]", ErrConfiguration, r.Low, r.High)
		}
		s.initialize = func(rng *rand.Rand) Genotype {
			g := make(RealGenes, n)
			for i := range g {
				g[i] = r.Low + rng.Float64()*(r.High-r.Low)
			}
			return g
		}
		switch ops.RealCrossover {
		case "", OnePoint:
			s.crossover = func(a, b Genotype, rng *rand.Rand) bool {
				return onePointCrossover(a.(RealGenes), b.(RealGenes), rng)
			}
		case Arithmetic:
			s.crossover = func(a, b Genotype, rng *rand.Rand) bool {
				return arithmeticCrossover(a.(RealGenes), b.(RealGenes), rng)
			}
		default:
			return nil, fmt.Errorf("%w: 实数编码不支持交叉算子 %q", ErrConfiguration, ops.RealCrossover)
		}
		s.mutate = func(g Genotype, rng *rand.Rand) bool {
			return mutateRedrawReal(g.(RealGenes), r, rate, rng)
		}

	default:
		return nil, fmt.Errorf("%w: %w %q", ErrConfiguration, ErrUnsupportedEncoding, spec.Representation)
	}

	return s, nil
}

func intCrossover(op func(a, b []int, rng *rand.Rand) bool) func(a, b Genotype, rng *rand.Rand) bool {
	return func(a, b Genotype, rng *rand.Rand) bool {
		return op(a.(IntGenes), b.(IntGenes), rng)
	}
}

func (s *Space) Spec() Spec {
	return s.spec
}

// New 随机生成一个基因型
func (s *Space) New(rng *rand.Rand) Genotype {
	return s.initialize(rng)
}

// Crossover 原地交叉，返回基因型是否被修改
func (s *Space) Crossover(a, b Genotype, rng *rand.Rand) bool {
	return s.crossover(a, b, rng)
}

// Mutate 原地变异，返回基因型是否被修改
func (s *Space) Mutate(g Genotype, rng *rand.Rand) bool {
	return s.mutate(g, rng)
}
