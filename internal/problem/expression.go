package problem

import (
	"context"
	"fmt"
	"math"

	"github.com/PaesslerAG/gval"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

// exprLang 算术表达式加上常用的数学函数
var exprLang = gval.NewLanguage(
	gval.Arithmetic(),
	gval.Function("sqrt", math.Sqrt),
	gval.Function("abs", math.Abs),
	gval.Function("exp", math.Exp),
	gval.Function("log", math.Log),
	gval.Function("sin", math.Sin),
	gval.Function("cos", math.Cos),
	gval.Function("pow", math.Pow),
	gval.Constant("pi", math.Pi),
)

// Expression 用户提供的连续目标函数，变量为 x0..x{n-1}
type Expression struct {
	source    string
	n         int
	evaluable gval.Evaluable
}

// NewExpression 编译表达式，并在原点试算一次以尽早发现未定义的变量
func NewExpression(source string, n int) (*Expression, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: 表达式维度必须 > 0 (得到 %d)", evolution.ErrConfiguration, n)
	}

	evaluable, err := exprLang.NewEvaluable(source)
	if err != nil {
		return nil, fmt.Errorf("%w: 无法解析表达式 %q: %w", evolution.ErrConfiguration, source, err)
	}

	e := &Expression{source: source, n: n, evaluable: evaluable}
	if _, err := e.Value(make([]float64, n)); err != nil {
		return nil, fmt.Errorf("%w: %w", evolution.ErrConfiguration, err)
	}
	return e, nil
}

func (e *Expression) Source() string {
	return e.source
}

func (e *Expression) Dimension() int {
	return e.n
}

func (e *Expression) Evaluate(g evolution.Genotype) (float64, error) {
	x, err := realGenes(g, e.n)
	if err != nil {
		return 0, err
	}
	return e.Value(x)
}

func (e *Expression) Value(x []float64) (float64, error) {
	vars := make(map[string]any, len(x))
	for i, v := range x {
		vars[fmt.Sprintf("x%d", i)] = v
	}

	value, err := e.evaluable.EvalFloat64(context.Background(), vars)
	if err != nil {
		return 0, fmt.Errorf("计算表达式 %q 失败: %w", e.source, err)
	}
	return value, nil
}
