package evolution

import "fmt"

// Selection 选择策略
type Selection string

const (
	Tournament Selection = "tournament"
	Roulette   Selection = "roulette"
)

// CrossoverScheme 交叉算子
type CrossoverScheme string

const (
	OnePoint        CrossoverScheme = "one_point"
	Arithmetic      CrossoverScheme = "arithmetic"
	OrderCrossover  CrossoverScheme = "ox"
	PartiallyMapped CrossoverScheme = "pmx"
)

// MutationScheme 排列编码的变异算子
type MutationScheme string

const (
	SwapMutation      MutationScheme = "swap"
	InversionMutation MutationScheme = "inversion"
)

// Operators 与编码相关的算子配置，零值表示使用默认算子
type Operators struct {
	// GeneRate 是 binary/integer/real 编码中每个基因的变异概率，0 表示 1/length
	GeneRate float64 `json:"geneRate"`
	// PermutationCrossover 默认为 OX
	PermutationCrossover CrossoverScheme `json:"permutationCrossover"`
	// PermutationMutation 默认为交换两个位置
	PermutationMutation MutationScheme `json:"permutationMutation"`
	// RealCrossover 默认为单点交叉
	RealCrossover CrossoverScheme `json:"realCrossover"`
}

// Parameters 遗传算法参数
type Parameters struct {
	PopulationSize int     `json:"populationSize"`
	Generations    int     `json:"generations"`
	CrossoverRate  float64 `json:"crossoverRate"`
	MutationRate   float64 `json:"mutationRate"`
	HallOfFameSize int     `json:"hallOfFameSize"`
	// Seed 为 nil 时使用当前时间作为种子，实际使用的种子会记录在 Result 中
	Seed           *int64    `json:"seed,omitempty"`
	Selection      Selection `json:"selection"`
	TournamentSize int       `json:"tournamentSize"`
	Operators      Operators `json:"operators"`
}

func DefaultParameters() Parameters {
	return Parameters{
		PopulationSize: 50,
		Generations:    50,
		CrossoverRate:  0.9,
		MutationRate:   0.1,
		HallOfFameSize: 1,
		Selection:      Tournament,
		TournamentSize: 3,
	}
}

func (p Parameters) Validate() error {
	if p.PopulationSize <= 0 {
		return fmt.Errorf("%w: 种群大小必须 > 0 (得到 %d)", ErrConfiguration, p.PopulationSize)
	}
	if p.Generations <= 0 {
		return fmt.Errorf("%w: 迭代代数必须 > 0 (得到 %d)", ErrConfiguration, p.Generations)
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		return fmt.Errorf("%w: 交叉概率必须在 [0,1] 内 (得到 %f)", ErrConfiguration, p.CrossoverRate)
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("%w: 变异概率必须在 [0,1] 内 (得到 %f)", ErrConfiguration, p.MutationRate)
	}
	if p.HallOfFameSize < 0 {
		return fmt.Errorf("%w: 名人堂大小必须 >= 0 (得到 %d)", ErrConfiguration, p.HallOfFameSize)
	}
	if p.TournamentSize < 0 {
		return fmt.Errorf("%w: 锦标赛规模必须 >= 0 (得到 %d)", ErrConfiguration, p.TournamentSize)
	}
	switch p.Selection {
	case "", Tournament, Roulette:
	default:
		return fmt.Errorf("%w: 不支持的选择策略 %q", ErrConfiguration, p.Selection)
	}
	if p.Operators.GeneRate < 0 || p.Operators.GeneRate > 1 {
		return fmt.Errorf("%w: 基因变异概率必须在 [0,1] 内 (得到 %f)", ErrConfiguration, p.Operators.GeneRate)
	}
	return nil
}
