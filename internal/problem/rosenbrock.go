package problem

import (
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

// Rosenbrock 连续函数最小化的经典测试函数
// f(x) = Σ b·(x[i+1] - x[i]²)² + (a - x[i])²，全局最小值 0 在 x_i = a 处取得
type Rosenbrock struct {
	N int
	A float64
	B float64
}

// RosenbrockBounds 每一维的默认取值范围
var RosenbrockBounds = evolution.RealRange{Low: -5, High: 5}

func NewRosenbrock(n int) *Rosenbrock {
	return &Rosenbrock{N: n, A: 1, B: 100}
}

func (r *Rosenbrock) Dimension() int {
	return r.N
}

func (r *Rosenbrock) Evaluate(g evolution.Genotype) (float64, error) {
	x, err := realGenes(g, r.N)
	if err != nil {
		return 0, err
	}
	return r.Value(x), nil
}

func (r *Rosenbrock) Value(x []float64) float64 {
	total := 0.0
	for i := 0; i+1 < len(x); i++ {
		d := x[i+1] - x[i]*x[i]
		total += r.B*d*d + (r.A-x[i])*(r.A-x[i])
	}
	return total
}

// Components 返回二维情形下的两个分量 (a - x)² 和 b·(y - x²)²
func (r *Rosenbrock) Components(x, y float64) (float64, float64) {
	d := y - x*x
	return (r.A - x) * (r.A - x), r.B * d * d
}

// Optimum 全局最优点
func (r *Rosenbrock) Optimum() []float64 {
	x := make([]float64, r.N)
	for i := range x {
		x[i] = r.A
	}
	return x
}
