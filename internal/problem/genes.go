package problem

import (
	"fmt"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

// intGenes 检查基因型的类型和长度，不一致时返回 ErrDimensionMismatch
func intGenes(g evolution.Genotype, n int) ([]int, error) {
	genes, ok := g.(evolution.IntGenes)
	if !ok {
		return nil, fmt.Errorf("%w: 需要整数基因型, 得到 %T", evolution.ErrDimensionMismatch, g)
	}
	if len(genes) != n {
		return nil, fmt.Errorf("%w: 需要长度 %d, 得到 %d", evolution.ErrDimensionMismatch, n, len(genes))
	}
	return genes, nil
}

func realGenes(g evolution.Genotype, n int) ([]float64, error) {
	genes, ok := g.(evolution.RealGenes)
	if !ok {
		return nil, fmt.Errorf("%w: 需要实数基因型, 得到 %T", evolution.ErrDimensionMismatch, g)
	}
	if len(genes) != n {
		return nil, fmt.Errorf("%w: 需要长度 %d, 得到 %d", evolution.ErrDimensionMismatch, n, len(genes))
	}
	return genes, nil
}
