package evolution

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// EvaluationStrategy 决定如何把适应度函数映射到一组个体上
// 个体之间相互独立，评估过程不使用随机数
type EvaluationStrategy interface {
	Evaluate(ctx context.Context, ev Evaluator, inds []*Individual) error
}

// Sequential 顺序评估
type Sequential struct{}

func (Sequential) Evaluate(_ context.Context, ev Evaluator, inds []*Individual) error {
	for _, ind := range inds {
		if err := evaluateOne(ev, ind); err != nil {
			return err
		}
	}
	return nil
}

// Parallel 使用固定数量的 worker 并行评估，Workers <= 0 时使用 GOMAXPROCS
// 每个 goroutine 只写入自己负责的个体，因此不需要加锁
type Parallel struct {
	Workers int
}

func (p Parallel) Evaluate(ctx context.Context, ev Evaluator, inds []*Individual) error {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, ind := range inds {
		ind := ind
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return evaluateOne(ev, ind)
		})
	}

	return g.Wait()
}

func evaluateOne(ev Evaluator, ind *Individual) error {
	fitness, err := ev.Evaluate(ind.Genes)
	if err != nil {
		return err
	}
	ind.Fitness = fitness
	ind.Valid = true
	return nil
}
