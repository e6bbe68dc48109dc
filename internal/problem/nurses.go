package problem

import (
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

const daysPerWeek = 7

// NurseScheduling 护士排班问题
// 基因型是 nurse × day × shift 的二进制矩阵按行展开后的向量，1 表示该护士上这个班
type NurseScheduling struct {
	Nurses       []string `json:"nurses"`
	Weeks        int      `json:"weeks"`
	ShiftsPerDay int      `json:"shiftsPerDay"`
	// ShiftMin 和 ShiftMax 是每个班次（早、中、晚）的最少和最多人数
	ShiftMin         []int `json:"shiftMin"`
	ShiftMax         []int `json:"shiftMax"`
	MaxShiftsPerWeek int   `json:"maxShiftsPerWeek"`
	// Preferences[n][s] 为 0 表示护士 n 不希望上班次 s
	Preferences           [][]int `json:"preferences"`
	HardConstraintPenalty float64 `json:"hardConstraintPenalty"`
}

// NurseViolations 各类约束违反的计数
type NurseViolations struct {
	MultipleShiftsPerDay int `json:"multipleShiftsPerDay"`
	Staffing             int `json:"staffing"`
	ShiftsPerWeek        int `json:"shiftsPerWeek"`
	ConsecutiveShifts    int `json:"consecutiveShifts"`
	Preferences          int `json:"preferences"`
}

func (v NurseViolations) Hard() int {
	return v.MultipleShiftsPerDay + v.Staffing + v.ShiftsPerWeek
}

func (v NurseViolations) Soft() int {
	return v.ConsecutiveShifts + v.Preferences
}

// DefaultNurseScheduling 8 名护士、1 周、每天 3 个班次的默认实例
func DefaultNurseScheduling() *NurseScheduling {
	return &NurseScheduling{
		Nurses:           []string{"A", "B", "C", "D", "E", "F", "G", "H"},
		Weeks:            1,
		ShiftsPerDay:     3,
		ShiftMin:         []int{2, 2, 1},
		ShiftMax:         []int{3, 4, 2},
		MaxShiftsPerWeek: 5,
		Preferences: [][]int{
			{1, 0, 0}, {1, 1, 0}, {0, 0, 1}, {0, 1, 0},
			{0, 0, 1}, {1, 1, 1}, {0, 1, 1}, {1, 1, 1},
		},
		HardConstraintPenalty: 10,
	}
}

// slotsPerNurse 每个护士在整个排班周期中的班次数
func (p *NurseScheduling) slotsPerNurse() int {
	return p.Weeks * daysPerWeek * p.ShiftsPerDay
}

func (p *NurseScheduling) Dimension() int {
	return len(p.Nurses) * p.slotsPerNurse()
}

func (p *NurseScheduling) Evaluate(g evolution.Genotype) (float64, error) {
	genes, err := intGenes(g, p.Dimension())
	if err != nil {
		return 0, err
	}

	v := p.Violations(genes)
	return p.HardConstraintPenalty*float64(v.Hard()) + float64(v.Soft()), nil
}

// Schedule 把展开的向量还原为每个护士的班次序列
func (p *NurseScheduling) Schedule(genes []int) [][]int {
	per := p.slotsPerNurse()
	schedule := make([][]int, len(p.Nurses))
	for n := range schedule {
		schedule[n] = genes[n*per : (n+1)*per]
	}
	return schedule
}

func (p *NurseScheduling) Violations(genes []int) NurseViolations {
	var v NurseViolations
	schedule := p.Schedule(genes)
	days := p.Weeks * daysPerWeek

	for n, shifts := range schedule {
		// 同一天上多个班
		for d := 0; d < days; d++ {
			count := 0
			for s := 0; s < p.ShiftsPerDay; s++ {
				count += shifts[d*p.ShiftsPerDay+s]
			}
			if count > 1 {
				v.MultipleShiftsPerDay += count - 1
			}
		}

		// 每周班次数超过上限
		perWeek := daysPerWeek * p.ShiftsPerDay
		for w := 0; w < p.Weeks; w++ {
			count := 0
			for _, x := range shifts[w*perWeek : (w+1)*perWeek] {
				count += x
			}
			if count > p.MaxShiftsPerWeek {
				v.ShiftsPerWeek += count - p.MaxShiftsPerWeek
			}
		}

		// 连续两个班次（包括前一天晚班接第二天早班）
		for i := 1; i < len(shifts); i++ {
			if shifts[i-1] == 1 && shifts[i] == 1 {
				v.ConsecutiveShifts++
			}
		}

		// 班次偏好
		if n < len(p.Preferences) {
			pref := p.Preferences[n]
			for i, x := range shifts {
				s := i % p.ShiftsPerDay
				if x == 1 && s < len(pref) && pref[s] == 0 {
					v.Preferences++
				}
			}
		}
	}

	// 每个班次的人数
	for d := 0; d < days; d++ {
		for s := 0; s < p.ShiftsPerDay; s++ {
			staff := 0
			for _, shifts := range schedule {
				staff += shifts[d*p.ShiftsPerDay+s]
			}
			if s < len(p.ShiftMax) && staff > p.ShiftMax[s] {
				v.Staffing += staff - p.ShiftMax[s]
			} else if s < len(p.ShiftMin) && staff < p.ShiftMin[s] {
				v.Staffing += p.ShiftMin[s] - staff
			}
		}
	}

	return v
}
