package problem

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

var (
	ErrProblemNotFound  = errors.New("问题不存在")
	ErrDuplicateProblem = errors.New("问题名称重复")
)

// Record 问题注册信息
type Record struct {
	Name           string                   `json:"name"`
	Description    string                   `json:"description"`
	Evaluator      evolution.Evaluator      `json:"-"`
	Length         int                      `json:"length"`
	Representation evolution.Representation `json:"representation"`
	Direction      evolution.Direction      `json:"direction"`
	IntRange       evolution.IntRange       `json:"intRange"`
	RealRange      evolution.RealRange      `json:"realRange"`
}

// Problem 转换为引擎需要的问题描述
func (r Record) Problem() evolution.Problem {
	return evolution.Problem{
		Name:      r.Name,
		Evaluator: r.Evaluator,
		Spec: evolution.Spec{
			Representation: r.Representation,
			Length:         r.Length,
			IntRange:       r.IntRange,
			RealRange:      r.RealRange,
		},
		Direction: r.Direction,
	}
}

type Registry struct {
	records map[string]Record
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]Record)}
}

func (r *Registry) Register(record Record) error {
	if _, ok := r.records[record.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProblem, record.Name)
	}
	r.records[record.Name] = record
	return nil
}

func (r *Registry) Get(name string) (Record, error) {
	record, ok := r.records[name]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrProblemNotFound, name)
	}
	return record, nil
}

// Records 按名称排序返回所有问题
func (r *Registry) Records() []Record {
	records := make([]Record, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	slices.SortFunc(records, func(a, b Record) int {
		return strings.Compare(a.Name, b.Name)
	})
	return records
}

func TravelingSalesmanRecord(p *TravelingSalesman) Record {
	return Record{
		Name:           "tsp",
		Description:    fmt.Sprintf("旅行商问题, %d 个城市", p.Dimension()),
		Evaluator:      p,
		Length:         p.Dimension(),
		Representation: evolution.Permutation,
		Direction:      evolution.Minimize,
	}
}

func KnapsackRecord(p *Knapsack) Record {
	return Record{
		Name:           "knapsack",
		Description:    fmt.Sprintf("0/1 背包问题, %d 个物品, 容量 %d", p.Dimension(), p.Capacity()),
		Evaluator:      p,
		Length:         p.Dimension(),
		Representation: evolution.Binary,
		Direction:      evolution.Maximize,
	}
}

func NurseSchedulingRecord(p *NurseScheduling) Record {
	return Record{
		Name:           "nurses",
		Description:    fmt.Sprintf("护士排班问题, %d 名护士, %d 周", len(p.Nurses), p.Weeks),
		Evaluator:      p,
		Length:         p.Dimension(),
		Representation: evolution.Binary,
		Direction:      evolution.Minimize,
	}
}

func TimetablingRecord(p *Timetabling) Record {
	inst := p.Instance()
	return Record{
		Name:           "timetabling",
		Description:    fmt.Sprintf("大学排课问题, %d 门课程, %d 间教室, %d 个时间段", len(inst.Modules), len(inst.Rooms), len(inst.Timeslots)),
		Evaluator:      p,
		Length:         p.Dimension(),
		Representation: evolution.Integer,
		Direction:      evolution.Minimize,
		IntRange:       p.GeneRange(),
	}
}

func RosenbrockRecord(p *Rosenbrock) Record {
	return Record{
		Name:           "rosenbrock",
		Description:    fmt.Sprintf("Rosenbrock 函数, %d 维, a=%g, b=%g", p.N, p.A, p.B),
		Evaluator:      p,
		Length:         p.N,
		Representation: evolution.Real,
		Direction:      evolution.Minimize,
		RealRange:      RosenbrockBounds,
	}
}

func ExpressionRecord(p *Expression, bounds evolution.RealRange, dir evolution.Direction) Record {
	return Record{
		Name:           "expression",
		Description:    p.Source(),
		Evaluator:      p,
		Length:         p.Dimension(),
		Representation: evolution.Real,
		Direction:      dir,
		RealRange:      bounds,
	}
}

// DefaultRegistry 注册所有内置问题的默认实例
func DefaultRegistry() (*Registry, error) {
	timetabling, err := NewTimetabling(DefaultInstance())
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()
	records := []Record{
		TravelingSalesmanRecord(NewTravelingSalesman(RandomCities(20, 100, 42))),
		KnapsackRecord(NewKnapsack(DefaultKnapsackItems(), DefaultKnapsackCapacity, 0.05)),
		NurseSchedulingRecord(DefaultNurseScheduling()),
		TimetablingRecord(timetabling),
		RosenbrockRecord(NewRosenbrock(2)),
	}
	for _, record := range records {
		if err := registry.Register(record); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
