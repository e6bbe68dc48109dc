package problem

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

// compactGenes 无冲突、容量足够、没有空档并且只用周六的课表
//
//	Math      R1 Sat-08:30   Physics  R4 Sat-08:30   Chemistry R1 Sat-10:45
//	CS        R3 Sat-08:30   IS       R2 Sat-10:45   History   R2 Sat-13:30
var compactGenes = []int{0, 24, 1, 16, 9, 10}

func defaultTimetabling(t *testing.T) *Timetabling {
	t.Helper()
	tt, err := NewTimetabling(DefaultInstance())
	require.NoError(t, err)
	return tt
}

func score(t *testing.T, tt *Timetabling, genes []int) float64 {
	t.Helper()
	cost, err := tt.Evaluate(evolution.IntGenes(genes))
	require.NoError(t, err)
	return cost
}

func TestTimetablingCompactScheduleCostsZero(t *testing.T) {
	tt := defaultTimetabling(t)

	assert.Equal(t, 0.0, score(t, tt, compactGenes))

	assignments, err := tt.Decode(compactGenes)
	require.NoError(t, err)
	assert.True(t, tt.IsValid(assignments))
	assert.Equal(t, Violations{}, tt.Breakdown(assignments))
}

func TestTimetablingRoomClashCostsOnePenalty(t *testing.T) {
	tt := defaultTimetabling(t)

	// Physics 移到 R3 Sat-08:30，与 CS 占用同一个 (room, timeslot)，R3 的容量仍然足够
	genes := append([]int(nil), compactGenes...)
	genes[1] = 16

	assignments, err := tt.Decode(genes)
	require.NoError(t, err)
	v := tt.Breakdown(assignments)
	assert.Equal(t, Violations{RoomClashes: 1}, v)
	assert.Equal(t, DefaultInstance().HardConstraintPenalty, score(t, tt, genes))
	assert.False(t, tt.IsValid(assignments))
}

func TestTimetablingDecode(t *testing.T) {
	tt := defaultTimetabling(t)

	assignments, err := tt.Decode([]int{0, 7, 8, 31, 17, 26})
	require.NoError(t, err)
	assert.Equal(t, []Assignment{
		{Module: 0, Room: 0, Timeslot: 0},
		{Module: 1, Room: 0, Timeslot: 7},
		{Module: 2, Room: 1, Timeslot: 0},
		{Module: 3, Room: 3, Timeslot: 7},
		{Module: 4, Room: 2, Timeslot: 1},
		{Module: 5, Room: 3, Timeslot: 2},
	}, assignments)

	// 同一个基因总是解码为同一个 (room, timeslot)
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		genes := make([]int, 6)
		for i := range genes {
			genes[i] = rng.Intn(32)
		}
		a, err := tt.Decode(genes)
		require.NoError(t, err)
		b, err := tt.Decode(genes)
		require.NoError(t, err)
		require.Equal(t, a, b)
		require.Equal(t, genes, tt.Encode(a))
	}

	_, err = tt.Decode([]int{0, 0, 0, 0, 0, 32})
	require.ErrorIs(t, err, ErrInvalidAssignment)
}

func TestTimetablingBreakdown(t *testing.T) {
	tt := defaultTimetabling(t)

	cases := []struct {
		name  string
		genes []int
		want  Violations
	}{
		{
			// Math 和 History 都由 Dr. Smith 讲授，History 移到 Sat-08:30 的 R2
			name:  "教师冲突",
			genes: []int{0, 24, 1, 16, 9, 8},
			// G4 的课变为 slot 0 和 slot 1，仍然没有空档
			want: Violations{LecturerClashes: 1},
		},
		{
			// Chemistry 移到 R2 Sat-08:30，与 Math 同属 G1，并且 R2 容量 30 < 40
			name:  "学生组冲突与容量不足",
			genes: []int{0, 24, 8, 16, 9, 10},
			want:  Violations{GroupClashes: 1, CapacityViolations: 1},
		},
		{
			// History 移到 Sat-15:45，G4 在 slot 1 与 slot 3 之间空出一节
			name:  "空档",
			genes: []int{0, 24, 1, 16, 9, 11},
			want:  Violations{Gaps: 1},
		},
		{
			// History 移到 Sun-08:30，G4 周六只用了 1 个时间段，空闲 3 个
			name:  "先排周日",
			genes: []int{0, 24, 1, 16, 9, 12},
			want:  Violations{Gaps: 2, DayOrder: 3},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assignments, err := tt.Decode(tc.genes)
			require.NoError(t, err)
			v := tt.Breakdown(assignments)
			assert.Equal(t, tc.want, v)
			assert.Equal(t, 10*float64(v.Hard())+float64(v.Soft()), tt.Cost(assignments))
		})
	}
}

func TestTimetablingSubmittedAssignments(t *testing.T) {
	tt := defaultTimetabling(t)

	assignments, err := tt.Decode(compactGenes)
	require.NoError(t, err)

	// 同一门课出现两次，另一门课缺失
	assignments[5].Module = 4
	require.NoError(t, tt.Check(assignments))
	v := tt.Breakdown(assignments)
	assert.Equal(t, 1, v.DuplicateModules)
	assert.False(t, tt.IsValid(assignments))

	require.ErrorIs(t, tt.Check(assignments[:5]), ErrInvalidAssignment)
	assignments[0].Room = 4
	require.ErrorIs(t, tt.Check(assignments), ErrInvalidAssignment)
}

func TestTimetablingIsValidRejectsOutOfRange(t *testing.T) {
	tt := defaultTimetabling(t)

	tests := []struct {
		name   string
		modify func(a []Assignment)
	}{
		{"课程下标越界", func(a []Assignment) { a[0].Module = 6 }},
		{"教室下标为负", func(a []Assignment) { a[1].Room = -1 }},
		{"时间段下标越界", func(a []Assignment) { a[2].Timeslot = 8 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assignments, err := tt.Decode(compactGenes)
			require.NoError(t, err)
			tc.modify(assignments)

			require.ErrorIs(t, tt.Check(assignments), ErrInvalidAssignment)
			assert.NotPanics(t, func() {
				assert.False(t, tt.IsValid(assignments))
			})
		})
	}
}

func TestTimetablingTable(t *testing.T) {
	tt := defaultTimetabling(t)
	assignments, err := tt.Decode(compactGenes)
	require.NoError(t, err)

	table := tt.Table(assignments)
	require.Len(t, table, 6)
	assert.Equal(t, Entry{
		Module:    "Physics",
		Lecturer:  "Prof. Johnson",
		Group:     "G2",
		GroupSize: 35,
		Room:      "R4",
		Capacity:  35,
		Timeslot:  "Sat-08:30",
	}, table[1])
}

func TestTimetablingDimensionMismatch(t *testing.T) {
	tt := defaultTimetabling(t)

	_, err := tt.Evaluate(evolution.IntGenes{0, 1, 2})
	require.ErrorIs(t, err, evolution.ErrDimensionMismatch)

	_, err = tt.Evaluate(evolution.RealGenes{0, 1, 2, 3, 4, 5})
	require.ErrorIs(t, err, evolution.ErrDimensionMismatch)
}

func TestInstanceValidate(t *testing.T) {
	require.NoError(t, DefaultInstance().Validate())

	inst := DefaultInstance()
	inst.Modules[0].Lecturer = 9
	require.ErrorIs(t, inst.Validate(), ErrInvalidInstance)

	inst = DefaultInstance()
	inst.Timeslots[3].Ordinal = 1
	require.ErrorIs(t, inst.Validate(), ErrInvalidInstance)

	inst = DefaultInstance()
	inst.Rooms = nil
	_, err := NewTimetabling(inst)
	require.ErrorIs(t, err, ErrInvalidInstance)
}

func TestTimetablingSingleDayHasNoDayOrder(t *testing.T) {
	inst := DefaultInstance()
	inst.Timeslots = inst.Timeslots[:4]
	tt, err := NewTimetabling(inst)
	require.NoError(t, err)

	assignments := []Assignment{
		{0, 0, 0}, {1, 3, 0}, {2, 0, 3}, {3, 2, 0}, {4, 1, 1}, {5, 1, 2},
	}
	v := tt.Breakdown(assignments)
	assert.Equal(t, 0, v.DayOrder)
	assert.Equal(t, 2, v.Gaps)
}
