package evolution

import "slices"

// Representation 染色体的编码类型
type Representation string

const (
	Binary      Representation = "binary"
	Integer     Representation = "integer"
	Permutation Representation = "permutation"
	Real        Representation = "real"
)

func (r Representation) Valid() bool {
	switch r {
	case Binary, Integer, Permutation, Real:
		return true
	}
	return false
}

// Direction 优化方向
type Direction string

const (
	Maximize Direction = "maximize"
	Minimize Direction = "minimize"
)

func (d Direction) Valid() bool {
	return d == Maximize || d == Minimize
}

// Better 判断适应度 a 是否严格优于 b
func (d Direction) Better(a, b float64) bool {
	if d == Maximize {
		return a > b
	}
	return a < b
}

// StatLabel 返回统计序列中最优值的名称（"max" 或 "min"）
func (d Direction) StatLabel() string {
	if d == Maximize {
		return "max"
	}
	return "min"
}

// Genotype 是一个封闭的变体类型，只有 IntGenes 和 RealGenes 两种实现
type Genotype interface {
	Len() int
	Clone() Genotype
	Equal(other Genotype) bool
	genotype()
}

// IntGenes 用于 binary、integer 和 permutation 三种编码
type IntGenes []int

func (g IntGenes) Len() int        { return len(g) }
func (g IntGenes) Clone() Genotype { return slices.Clone(g) }

func (g IntGenes) Equal(other Genotype) bool {
	o, ok := other.(IntGenes)
	return ok && slices.Equal(g, o)
}

func (IntGenes) genotype() {}

// RealGenes 用于 real 编码
type RealGenes []float64

func (g RealGenes) Len() int        { return len(g) }
func (g RealGenes) Clone() Genotype { return slices.Clone(g) }

func (g RealGenes) Equal(other Genotype) bool {
	o, ok := other.(RealGenes)
	return ok && slices.Equal(g, o)
}

func (RealGenes) genotype() {}

// Individual 个体：基因型 + 缓存的适应度
// 任何修改基因型的算子都必须将 Valid 置为 false，在参与选择或统计前重新评估
type Individual struct {
	Genes   Genotype `json:"genes"`
	Fitness float64  `json:"fitness"`
	Valid   bool     `json:"-"`
}

// Clone 深拷贝个体，拷贝之后的个体不受原个体后续变异的影响
func (ind *Individual) Clone() *Individual {
	return &Individual{
		Genes:   ind.Genes.Clone(),
		Fitness: ind.Fitness,
		Valid:   ind.Valid,
	}
}

func (ind *Individual) Invalidate() {
	ind.Valid = false
}

type IntRange struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

type RealRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Spec 描述基因型空间：编码类型、染色体长度以及取值范围
// 长度在构造之后不会再改变
type Spec struct {
	Representation Representation `json:"representation"`
	Length         int            `json:"length"`
	IntRange       IntRange       `json:"intRange"`
	RealRange      RealRange      `json:"realRange"`
}

// Evaluator 适应度函数
// 必须是确定性的、无副作用的，并且对所有可表示的基因型都有定义；
// 约束违反以惩罚项计入适应度，而不是返回错误。
// 只有基因型长度（或类型）与问题维度不一致时才返回 ErrDimensionMismatch。
type Evaluator interface {
	Dimension() int
	Evaluate(g Genotype) (float64, error)
}

// EvaluatorFunc 将普通函数适配为 Evaluator
type EvaluatorFunc struct {
	N  int
	Fn func(g Genotype) (float64, error)
}

func (f EvaluatorFunc) Dimension() int { return f.N }

func (f EvaluatorFunc) Evaluate(g Genotype) (float64, error) {
	return f.Fn(g)
}

// Problem 是引擎构造所需的问题描述
type Problem struct {
	Name      string
	Evaluator Evaluator
	Spec      Spec
	Direction Direction
}
