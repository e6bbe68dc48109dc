package utils

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

// ValidateRunLimits 限制单次运行的规模，避免同步请求长时间占用服务器
func ValidateRunLimits(params evolution.Parameters, maxPopulationSize, maxGenerations int) error {
	if params.PopulationSize > maxPopulationSize {
		return fmt.Errorf("种群大小不能超过 %d", maxPopulationSize)
	}
	if params.Generations > maxGenerations {
		return fmt.Errorf("迭代代数不能超过 %d", maxGenerations)
	}
	if params.HallOfFameSize > params.PopulationSize {
		return errors.New("名人堂大小不能超过种群大小")
	}
	if params.Selection == evolution.Tournament && params.TournamentSize > params.PopulationSize {
		return errors.New("锦标赛规模不能超过种群大小")
	}
	return nil
}

// ValidateRealBounds 连续问题的取值范围必须是非空区间
func ValidateRealBounds(low, high float64) error {
	if !(low < high) {
		return fmt.Errorf("取值下界 %g 必须小于上界 %g", low, high)
	}
	return nil
}
