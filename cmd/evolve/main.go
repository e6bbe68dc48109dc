package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/problem"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/report"
)

type options struct {
	problem   string
	seed      int64
	params    evolution.Parameters
	workers   int
	expr      string
	dim       int
	maximize  bool
	every     int
	debug     bool
	permCross string
	permMut   string
	realCross string
}

func parseFlags(args []string) (*options, error) {
	defaults := evolution.DefaultParameters()
	opts := &options{}

	fs := flag.NewFlagSet("evolve", flag.ContinueOnError)
	fs.StringVar(&opts.problem, "problem", "tsp", "要求解的问题 (tsp, knapsack, nurses, timetabling, rosenbrock, expression)")
	fs.Int64Var(&opts.seed, "seed", -1, "随机数种子，负数表示使用当前时间")
	fs.IntVar(&opts.params.PopulationSize, "pop", defaults.PopulationSize, "种群大小")
	fs.IntVar(&opts.params.Generations, "gen", defaults.Generations, "迭代代数")
	fs.Float64Var(&opts.params.CrossoverRate, "cx", defaults.CrossoverRate, "交叉概率")
	fs.Float64Var(&opts.params.MutationRate, "mut", defaults.MutationRate, "变异概率")
	fs.IntVar(&opts.params.HallOfFameSize, "hof", defaults.HallOfFameSize, "名人堂大小")
	fs.IntVar(&opts.params.TournamentSize, "tournament", defaults.TournamentSize, "锦标赛规模")
	selection := fs.String("selection", string(defaults.Selection), "选择策略 (tournament, roulette)")
	fs.StringVar(&opts.permCross, "perm-crossover", "", "排列编码的交叉算子 (ox, pmx)")
	fs.StringVar(&opts.permMut, "perm-mutation", "", "排列编码的变异算子 (swap, inversion)")
	fs.StringVar(&opts.realCross, "real-crossover", "", "实数编码的交叉算子 (one_point, arithmetic)")
	fs.IntVar(&opts.workers, "workers", 0, "并行评估的 worker 数量，0 表示顺序评估")
	fs.StringVar(&opts.expr, "expr", "", "expression 问题的目标函数，变量为 x0..x{n-1}")
	fs.IntVar(&opts.dim, "dim", 2, "expression 问题的维度")
	fs.BoolVar(&opts.maximize, "maximize", false, "expression 问题求最大值")
	fs.IntVar(&opts.every, "every", 10, "每隔多少代输出一次统计信息")
	fs.BoolVar(&opts.debug, "debug", false, "输出每一代的调试日志")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.params.Selection = evolution.Selection(*selection)
	opts.params.Operators = evolution.Operators{
		PermutationCrossover: evolution.CrossoverScheme(opts.permCross),
		PermutationMutation:  evolution.MutationScheme(opts.permMut),
		RealCrossover:        evolution.CrossoverScheme(opts.realCross),
	}
	if opts.seed >= 0 {
		opts.params.Seed = &opts.seed
	}

	return opts, nil
}

func lookup(opts *options) (problem.Record, error) {
	if opts.problem == "expression" {
		if opts.expr == "" {
			return problem.Record{}, errors.New("expression 问题需要通过 -expr 指定目标函数")
		}
		expr, err := problem.NewExpression(opts.expr, opts.dim)
		if err != nil {
			return problem.Record{}, err
		}
		direction := evolution.Minimize
		if opts.maximize {
			direction = evolution.Maximize
		}
		return problem.ExpressionRecord(expr, problem.RosenbrockBounds, direction), nil
	}

	registry, err := problem.DefaultRegistry()
	if err != nil {
		return problem.Record{}, err
	}
	return registry.Get(opts.problem)
}

func run(ctx context.Context, opts *options, logger *slog.Logger, out io.Writer) error {
	record, err := lookup(opts)
	if err != nil {
		return err
	}

	engineOpts := []evolution.Option{
		evolution.WithLogger(logger),
		evolution.WithReporter(&report.LogReporter{Logger: logger, Direction: record.Direction, Every: opts.every}),
	}
	if opts.workers > 0 {
		engineOpts = append(engineOpts, evolution.WithStrategy(evolution.Parallel{Workers: opts.workers}))
	}

	engine, err := evolution.New(record.Problem(), opts.params, engineOpts...)
	if err != nil {
		return err
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("运行完成",
		slog.String("problem", record.Name),
		slog.Int64("seed", result.Seed),
		slog.Float64("best", result.BestFitness),
		slog.Int("evaluations", result.Evaluations),
		slog.Duration("duration", result.Duration),
	)

	return describe(out, record, result)
}

// describe 按问题类型输出最优解的可读形式
func describe(out io.Writer, record problem.Record, result *evolution.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	switch p := record.Evaluator.(type) {
	case *problem.TravelingSalesman:
		tour := result.Best.Genes.(evolution.IntGenes)
		names := make([]string, len(tour))
		for i, c := range tour {
			names[i] = p.Cities()[c].Name
		}
		fmt.Fprintf(w, "路线\t%s -> %s\n", strings.Join(names, " -> "), names[0])
		fmt.Fprintf(w, "总长度\t%.2f\n", p.TourLength(tour))
	case *problem.Knapsack:
		items, weight, value := p.Selected(result.Best.Genes.(evolution.IntGenes))
		fmt.Fprintln(w, "物品\t重量\t价值")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%d\t%d\n", item.Name, item.Weight, item.Value)
		}
		fmt.Fprintf(w, "合计\t%d/%d\t%d\n", weight, p.Capacity(), value)
	case *problem.NurseScheduling:
		genes := result.Best.Genes.(evolution.IntGenes)
		for n, row := range p.Schedule(genes) {
			fmt.Fprintf(w, "%s\t%s\n", p.Nurses[n], formatShifts(row, p.ShiftsPerDay))
		}
		v := p.Violations(genes)
		fmt.Fprintf(w, "硬约束违反\t%d\n软约束违反\t%d\n", v.Hard(), v.Soft())
	case *problem.Timetabling:
		assignments, err := p.Decode(result.Best.Genes.(evolution.IntGenes))
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "课程\t教师\t学生组\t教室\t时间段")
		for _, e := range p.Table(assignments) {
			fmt.Fprintf(w, "%s\t%s\t%s (%d)\t%s (%d)\t%s\n", e.Module, e.Lecturer, e.Group, e.GroupSize, e.Room, e.Capacity, e.Timeslot)
		}
		v := p.Breakdown(assignments)
		fmt.Fprintf(w, "硬约束违反\t%d\n软约束违反\t%d\n", v.Hard(), v.Soft())
	case *problem.Rosenbrock:
		x := result.Best.Genes.(evolution.RealGenes)
		fmt.Fprintf(w, "x\t%v\n", []float64(x))
		if len(x) == 2 {
			ax, by := p.Components(x[0], x[1])
			fmt.Fprintf(w, "(a-x)^2\t%.6f\nb(y-x^2)^2\t%.6f\n", ax, by)
		}
	default:
		fmt.Fprintf(w, "基因\t%v\n", result.Best.Genes)
	}

	fmt.Fprintf(w, "最优适应度\t%g\n", result.BestFitness)
	return w.Flush()
}

// formatShifts 每天一组，用 | 分隔
func formatShifts(row []int, shiftsPerDay int) string {
	var b strings.Builder
	for i, s := range row {
		if i > 0 && i%shiftsPerDay == 0 {
			b.WriteByte('|')
		}
		b.WriteByte(byte('0' + s))
	}
	return b.String()
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger, os.Stdout); err != nil {
		logger.Error("运行失败", "error", err)
		os.Exit(1)
	}
}
