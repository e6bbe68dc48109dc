package problem

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

var (
	ErrInvalidInstance   = errors.New("排课实例不合法")
	ErrInvalidAssignment = errors.New("排课结果不合法")
)

type Lecturer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type StudentGroup struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

type Room struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// Module 一门课程，Lecturer 和 Group 是实例中对应切片的下标
type Module struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Lecturer int    `json:"lecturer"`
	Group    int    `json:"group"`
}

// Timeslot 时间段，Ordinal 在实例中严格递增，相邻的上课时间段 Ordinal 相差 1
type Timeslot struct {
	Ordinal int    `json:"ordinal"`
	Day     string `json:"day"`
	Label   string `json:"label"`
}

// Instance 排课问题实例，进化过程中只读
type Instance struct {
	Lecturers             []Lecturer     `json:"lecturers"`
	Groups                []StudentGroup `json:"groups"`
	Modules               []Module       `json:"modules"`
	Rooms                 []Room         `json:"rooms"`
	Timeslots             []Timeslot     `json:"timeslots"`
	HardConstraintPenalty float64        `json:"hardConstraintPenalty"`
}

// DefaultInstance 4 位教师、4 个学生组、6 门课程、4 间教室、周六周日各 4 个时间段
func DefaultInstance() *Instance {
	labels := []string{"08:30", "10:45", "13:30", "15:45"}
	timeslots := make([]Timeslot, 0, 8)
	for _, day := range []string{"Sat", "Sun"} {
		for _, label := range labels {
			timeslots = append(timeslots, Timeslot{
				Ordinal: len(timeslots),
				Day:     day,
				Label:   day + "-" + label,
			})
		}
	}

	return &Instance{
		Lecturers: []Lecturer{
			{0, "Dr. Smith"}, {1, "Prof. Johnson"}, {2, "Dr. Williams"}, {3, "Prof. Brown"},
		},
		Groups: []StudentGroup{
			{0, "G1", 40}, {1, "G2", 35}, {2, "G3", 40}, {3, "G4", 20},
		},
		Modules: []Module{
			{0, "Math", 0, 0},
			{1, "Physics", 1, 1},
			{2, "Chemistry", 2, 0},
			{3, "CS", 3, 2},
			{4, "IS", 3, 3},
			{5, "History", 0, 3},
		},
		Rooms: []Room{
			{0, "R1", 50}, {1, "R2", 30}, {2, "R3", 40}, {3, "R4", 35},
		},
		Timeslots:             timeslots,
		HardConstraintPenalty: 10,
	}
}

// Validate 检查实例中的引用和时间段顺序
func (inst *Instance) Validate() error {
	if len(inst.Modules) == 0 || len(inst.Rooms) == 0 || len(inst.Timeslots) == 0 {
		return fmt.Errorf("%w: 课程、教室和时间段都不能为空", ErrInvalidInstance)
	}
	for _, m := range inst.Modules {
		if m.Lecturer < 0 || m.Lecturer >= len(inst.Lecturers) {
			return fmt.Errorf("%w: 课程 %q 引用了不存在的教师 %d", ErrInvalidInstance, m.Name, m.Lecturer)
		}
		if m.Group < 0 || m.Group >= len(inst.Groups) {
			return fmt.Errorf("%w: 课程 %q 引用了不存在的学生组 %d", ErrInvalidInstance, m.Name, m.Group)
		}
	}
	for i := 1; i < len(inst.Timeslots); i++ {
		if inst.Timeslots[i].Ordinal <= inst.Timeslots[i-1].Ordinal {
			return fmt.Errorf("%w: 时间段 %q 的序号没有严格递增", ErrInvalidInstance, inst.Timeslots[i].Label)
		}
	}
	if inst.HardConstraintPenalty < 0 {
		return fmt.Errorf("%w: 硬约束惩罚系数不能为负", ErrInvalidInstance)
	}
	return nil
}

// Assignment 一门课程的排课结果，三个字段都是实例中的下标
type Assignment struct {
	Module   int `json:"module"`
	Room     int `json:"room"`
	Timeslot int `json:"timeslot"`
}

// Violations 各类约束违反的计数
type Violations struct {
	DuplicateModules   int `json:"duplicateModules"`
	RoomClashes        int `json:"roomClashes"`
	LecturerClashes    int `json:"lecturerClashes"`
	GroupClashes       int `json:"groupClashes"`
	CapacityViolations int `json:"capacityViolations"`
	Gaps               int `json:"gaps"`
	DayOrder           int `json:"dayOrder"`
}

func (v Violations) Hard() int {
	return v.DuplicateModules + v.RoomClashes + v.LecturerClashes + v.GroupClashes + v.CapacityViolations
}

func (v Violations) Soft() int {
	return v.Gaps + v.DayOrder
}

// Timetabling 大学排课问题
// 每门课程对应一个整数基因，取值范围 [0, rooms*timeslots)，
// 解码为 room = gene / timeslots, timeslot = gene % timeslots
type Timetabling struct {
	instance *Instance

	// firstDay 和 secondDay 是前两天各自的时间段下标
	firstDay  []int
	secondDay []int
}

func NewTimetabling(inst *Instance) (*Timetabling, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}

	var days []string
	slotsByDay := make(map[string][]int)
	for i, slot := range inst.Timeslots {
		if _, ok := slotsByDay[slot.Day]; !ok {
			days = append(days, slot.Day)
		}
		slotsByDay[slot.Day] = append(slotsByDay[slot.Day], i)
	}

	t := &Timetabling{instance: inst}
	if len(days) >= 2 {
		t.firstDay = slotsByDay[days[0]]
		t.secondDay = slotsByDay[days[1]]
	}
	return t, nil
}

func (t *Timetabling) Instance() *Instance {
	return t.instance
}

func (t *Timetabling) Dimension() int {
	return len(t.instance.Modules)
}

// GeneRange 基因的取值范围
func (t *Timetabling) GeneRange() evolution.IntRange {
	return evolution.IntRange{Low: 0, High: len(t.instance.Rooms)*len(t.instance.Timeslots) - 1}
}

func (t *Timetabling) Evaluate(g evolution.Genotype) (float64, error) {
	genes, err := intGenes(g, t.Dimension())
	if err != nil {
		return 0, err
	}

	assignments, err := t.Decode(genes)
	if err != nil {
		return 0, err
	}
	return t.Cost(assignments), nil
}

// Decode 按位置解码，第 i 个基因对应第 i 门课程
func (t *Timetabling) Decode(genes []int) ([]Assignment, error) {
	numSlots := len(t.instance.Timeslots)
	limit := len(t.instance.Rooms) * numSlots

	assignments := make([]Assignment, len(genes))
	for i, gene := range genes {
		if gene < 0 || gene >= limit {
			return nil, fmt.Errorf("%w: 课程 %d 的基因 %d 超出范围 [0, %d)", ErrInvalidAssignment, i, gene, limit)
		}
		assignments[i] = Assignment{
			Module:   i,
			Room:     gene / numSlots,
			Timeslot: gene % numSlots,
		}
	}
	return assignments, nil
}

// Encode 是 Decode 的逆操作
func (t *Timetabling) Encode(assignments []Assignment) []int {
	genes := make([]int, len(t.instance.Modules))
	for _, a := range assignments {
		genes[a.Module] = a.Room*len(t.instance.Timeslots) + a.Timeslot
	}
	return genes
}

// Check 检查外部提交的排课结果：数量必须等于课程数，所有下标必须在范围内
func (t *Timetabling) Check(assignments []Assignment) error {
	if len(assignments) != len(t.instance.Modules) {
		return fmt.Errorf("%w: 需要 %d 条排课记录, 得到 %d", ErrInvalidAssignment, len(t.instance.Modules), len(assignments))
	}
	for _, a := range assignments {
		if a.Module < 0 || a.Module >= len(t.instance.Modules) {
			return fmt.Errorf("%w: 课程下标 %d 超出范围", ErrInvalidAssignment, a.Module)
		}
		if a.Room < 0 || a.Room >= len(t.instance.Rooms) {
			return fmt.Errorf("%w: 教室下标 %d 超出范围", ErrInvalidAssignment, a.Room)
		}
		if a.Timeslot < 0 || a.Timeslot >= len(t.instance.Timeslots) {
			return fmt.Errorf("%w: 时间段下标 %d 超出范围", ErrInvalidAssignment, a.Timeslot)
		}
	}
	return nil
}

// Cost = 惩罚系数 × 硬约束违反数 + 软约束违反数，0 表示完全合法且最紧凑的课表
// 前置条件同 Breakdown
func (t *Timetabling) Cost(assignments []Assignment) float64 {
	v := t.Breakdown(assignments)
	return t.instance.HardConstraintPenalty*float64(v.Hard()) + float64(v.Soft())
}

// IsValid 通过 Check 且所有硬约束都满足，可以用于未经检查的输入
func (t *Timetabling) IsValid(assignments []Assignment) bool {
	return t.Check(assignments) == nil && t.Breakdown(assignments).Hard() == 0
}

// Breakdown 统计各类约束违反的次数
// 调用方需保证所有下标在范围内：由 Decode 得到，或已通过 Check，否则会 panic
func (t *Timetabling) Breakdown(assignments []Assignment) Violations {
	inst := t.instance
	v := Violations{}

	type slotKey struct{ owner, timeslot int }
	seenModules := make(map[int]bool, len(assignments))
	rooms := make(map[slotKey]bool)
	lecturers := make(map[slotKey]bool)
	groups := make(map[slotKey]bool)
	groupSlots := make(map[int][]int)

	for _, a := range assignments {
		if seenModules[a.Module] {
			v.DuplicateModules++
		}
		seenModules[a.Module] = true

		module := inst.Modules[a.Module]

		// 同一个 (owner, timeslot) 除第一门课之外，每多一门计一次冲突
		if k := (slotKey{a.Room, a.Timeslot}); rooms[k] {
			v.RoomClashes++
		} else {
			rooms[k] = true
		}
		if k := (slotKey{module.Lecturer, a.Timeslot}); lecturers[k] {
			v.LecturerClashes++
		} else {
			lecturers[k] = true
		}
		if k := (slotKey{module.Group, a.Timeslot}); groups[k] {
			v.GroupClashes++
		} else {
			groups[k] = true
		}

		if inst.Groups[module.Group].Size > inst.Rooms[a.Room].Capacity {
			v.CapacityViolations++
		}

		groupSlots[module.Group] = append(groupSlots[module.Group], a.Timeslot)
	}

	for _, slots := range groupSlots {
		v.Gaps += t.gaps(slots)
		v.DayOrder += t.dayOrder(slots)
	}

	return v
}

// gaps 一个学生组相邻两节课之间空闲的时间段数
func (t *Timetabling) gaps(slots []int) int {
	ordinals := make([]int, len(slots))
	for i, s := range slots {
		ordinals[i] = t.instance.Timeslots[s].Ordinal
	}
	slices.Sort(ordinals)

	total := 0
	for i := 1; i < len(ordinals); i++ {
		if gap := ordinals[i] - ordinals[i-1]; gap > 1 {
			total += gap - 1
		}
	}
	return total
}

// dayOrder 第一天还有空闲时间段时就安排到第二天的课
// 计为 第二天的课数 × 第一天空闲的时间段数
func (t *Timetabling) dayOrder(slots []int) int {
	if len(t.firstDay) == 0 {
		return 0
	}

	first, second := 0, 0
	for _, s := range slots {
		if slices.Contains(t.firstDay, s) {
			first++
		} else if slices.Contains(t.secondDay, s) {
			second++
		}
	}

	if second > 0 && first < len(t.firstDay) {
		return second * (len(t.firstDay) - first)
	}
	return 0
}

// Entry 供展示用的一行课表
type Entry struct {
	Module    string `json:"module"`
	Lecturer  string `json:"lecturer"`
	Group     string `json:"group"`
	GroupSize int    `json:"groupSize"`
	Room      string `json:"room"`
	Capacity  int    `json:"capacity"`
	Timeslot  string `json:"timeslot"`
}

// Table 前置条件同 Breakdown
func (t *Timetabling) Table(assignments []Assignment) []Entry {
	inst := t.instance
	entries := make([]Entry, len(assignments))
	for i, a := range assignments {
		module := inst.Modules[a.Module]
		group := inst.Groups[module.Group]
		room := inst.Rooms[a.Room]
		entries[i] = Entry{
			Module:    module.Name,
			Lecturer:  inst.Lecturers[module.Lecturer].Name,
			Group:     group.Name,
			GroupSize: group.Size,
			Room:      room.Name,
			Capacity:  room.Capacity,
			Timeslot:  inst.Timeslots[a.Timeslot].Label,
		}
	}
	return entries
}
