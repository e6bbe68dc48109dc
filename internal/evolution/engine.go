package evolution

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Reporter 外部协作者接口，引擎只负责调用，不负责实现
type Reporter interface {
	// Generation 每一代结束后调用
	Generation(stats Statistics)
	// Finish 运行结束后调用
	Finish(best Individual, history []Statistics)
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithStrategy(strategy EvaluationStrategy) Option {
	return func(e *Engine) {
		e.strategy = strategy
	}
}

func WithReporter(reporter Reporter) Option {
	return func(e *Engine) {
		e.reporter = reporter
	}
}

// Engine 世代模型的进化引擎
type Engine struct {
	problem  Problem
	params   Parameters
	space    *Space
	selector Selector
	strategy EvaluationStrategy
	reporter Reporter
	logger   *slog.Logger

	// 所有随机抽样都必须通过 rng，它只在构造时设置一次种子
	rng  *rand.Rand
	seed int64
}

// Result 运行结果
type Result struct {
	Best        Individual    `json:"best"`
	BestFitness float64       `json:"bestFitness"`
	History     []Statistics  `json:"history"`
	HallOfFame  []Individual  `json:"hallOfFame"`
	Evaluations int           `json:"evaluations"`
	Seed        int64         `json:"seed"`
	Duration    time.Duration `json:"duration"`
}

// BestSeries 每一代的最优值序列
func (r *Result) BestSeries() []float64 {
	out := make([]float64, len(r.History))
	for i, s := range r.History {
		out[i] = s.Best
	}
	return out
}

// MeanSeries 每一代的平均值序列，与 BestSeries 一一对应
func (r *Result) MeanSeries() []float64 {
	out := make([]float64, len(r.History))
	for i, s := range r.History {
		out[i] = s.Mean
	}
	return out
}

// New 构造引擎，所有配置错误都在这里返回
func New(problem Problem, params Parameters, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if problem.Evaluator == nil {
		return nil, fmt.Errorf("%w: 问题 %q 没有适应度函数", ErrConfiguration, problem.Name)
	}
	if !problem.Direction.Valid() {
		return nil, fmt.Errorf("%w: 不支持的优化方向 %q", ErrConfiguration, problem.Direction)
	}
	if !problem.Spec.Representation.Valid() {
		return nil, fmt.Errorf("%w: %w %q", ErrConfiguration, ErrUnsupportedEncoding, problem.Spec.Representation)
	}
	if dim := problem.Evaluator.Dimension(); dim != problem.Spec.Length {
		return nil, fmt.Errorf("%w: %w: 染色体长度 %d, 问题维度 %d", ErrConfiguration, ErrDimensionMismatch, problem.Spec.Length, dim)
	}

	space, err := NewSpace(problem.Spec, params.Operators)
	if err != nil {
		return nil, err
	}

	var selector Selector
	switch params.Selection {
	case Roulette:
		selector = RouletteSelector{Direction: problem.Direction}
	default:
		selector = TournamentSelector{Size: params.TournamentSize, Direction: problem.Direction}
	}

	seed := time.Now().UnixNano()
	if params.Seed != nil {
		seed = *params.Seed
	}

	e := &Engine{
		problem:  problem,
		params:   params,
		space:    space,
		selector: selector,
		strategy: Sequential{},
		logger:   slog.Default(),
		rng:      rand.New(rand.NewSource(seed)),
		seed:     seed,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

func (e *Engine) Seed() int64 {
	return e.seed
}

// Run 执行完整的进化过程，总是跑满配置的代数
// ctx 只传递给评估策略；评估出错（例如维度不匹配）时立即中止并返回错误
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	dir := e.problem.Direction
	evaluations := 0

	e.logger.Info("开始进化",
		slog.String("problem", e.problem.Name),
		slog.String("representation", string(e.problem.Spec.Representation)),
		slog.Int("populationSize", e.params.PopulationSize),
		slog.Int("generations", e.params.Generations),
		slog.Int64("seed", e.seed),
	)

	// 生成并评估初始种群
	pop := make([]*Individual, e.params.PopulationSize)
	for i := range pop {
		pop[i] = &Individual{Genes: e.space.New(e.rng)}
	}
	if err := e.strategy.Evaluate(ctx, e.problem.Evaluator, pop); err != nil {
		return nil, fmt.Errorf("评估初始种群失败: %w", err)
	}
	evaluations += len(pop)

	hof := NewHallOfFame(e.params.HallOfFameSize, dir)
	hof.Update(pop)

	// 这里需要深拷贝，防止后续繁殖修改最优个体
	best := bestOf(pop, dir).Clone()
	history := make([]Statistics, 0, e.params.Generations)

	for gen := 1; gen <= e.params.Generations; gen++ {
		// 选择
		parents := e.selector.Select(pop, e.params.PopulationSize, e.rng)
		offspring := make([]*Individual, len(parents))
		for i, p := range parents {
			offspring[i] = p.Clone()
		}

		// 交叉：相邻两个子代配对
		for i := 1; i < len(offspring); i += 2 {
			if e.rng.Float64() < e.params.CrossoverRate {
				if e.space.Crossover(offspring[i-1].Genes, offspring[i].Genes, e.rng) {
					offspring[i-1].Invalidate()
					offspring[i].Invalidate()
				}
			}
		}

		// 变异
		for _, child := range offspring {
			if e.rng.Float64() < e.params.MutationRate {
				if e.space.Mutate(child.Genes, e.rng) {
					child.Invalidate()
				}
			}
		}

		// 只评估适应度失效的个体
		invalid := make([]*Individual, 0, len(offspring))
		for _, child := range offspring {
			if !child.Valid {
				invalid = append(invalid, child)
			}
		}
		if err := e.strategy.Evaluate(ctx, e.problem.Evaluator, invalid); err != nil {
			return nil, fmt.Errorf("评估第 %d 代个体失败: %w", gen, err)
		}
		evaluations += len(invalid)

		// 新一代整体替换旧种群
		pop = offspring
		hof.Update(pop)

		if genBest := bestOf(pop, dir); dir.Better(genBest.Fitness, best.Fitness) {
			best = genBest.Clone()
		}

		stats := computeStatistics(gen, pop, dir)
		history = append(history, stats)

		e.logger.Debug("完成一代",
			slog.Int("generation", gen),
			slog.Float64(dir.StatLabel(), stats.Best),
			slog.Float64("avg", stats.Mean),
			slog.Int("evaluated", len(invalid)),
		)
		if e.reporter != nil {
			e.reporter.Generation(stats)
		}
	}

	result := &Result{
		Best:        *best,
		BestFitness: best.Fitness,
		History:     history,
		HallOfFame:  hof.Items(),
		Evaluations: evaluations,
		Seed:        e.seed,
		Duration:    time.Since(start),
	}

	e.logger.Info("进化结束",
		slog.String("problem", e.problem.Name),
		slog.Float64("bestFitness", result.BestFitness),
		slog.Int("evaluations", evaluations),
		slog.Duration("duration", result.Duration),
	)
	if e.reporter != nil {
		e.reporter.Finish(result.Best, history)
	}

	return result, nil
}
