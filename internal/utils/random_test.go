package utils

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/problem"
)

func TestCourseCode(t *testing.T) {
	assert.Equal(t, "GDSX", CourseCode("高等数学"))
	assert.Equal(t, "JSJWL", CourseCode("计算机网络"))
}

func TestGenerateRandomInstance(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		inst := GenerateRandomInstance(rand.New(rand.NewSource(seed)), 8)

		require.NoError(t, inst.Validate())
		assert.Len(t, inst.Modules, 8)
		assert.GreaterOrEqual(t, len(inst.Timeslots), 8)

		_, err := problem.NewTimetabling(inst)
		require.NoError(t, err)
	}
}

func TestGenerateRandomInstanceClamps(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Len(t, GenerateRandomInstance(rng, 0).Modules, 1)
	assert.Len(t, GenerateRandomInstance(rng, 100).Modules, len(courseNames))
}

func TestGenerateRandomInstanceDeterministic(t *testing.T) {
	a := GenerateRandomInstance(rand.New(rand.NewSource(7)), 6)
	b := GenerateRandomInstance(rand.New(rand.NewSource(7)), 6)
	assert.Equal(t, a, b)
}

func TestGenerateUsernameFromChineseName(t *testing.T) {
	username := GenerateUsernameFromChineseName("王伟")
	require.NotEmpty(t, username)
	assert.Equal(t, byte('w'), username[0])
}

func TestValidateRunLimits(t *testing.T) {
	params := evolution.DefaultParameters()
	require.NoError(t, ValidateRunLimits(params, 1000, 2000))

	params.PopulationSize = 1001
	assert.Error(t, ValidateRunLimits(params, 1000, 2000))

	params = evolution.DefaultParameters()
	params.Generations = 3000
	assert.Error(t, ValidateRunLimits(params, 1000, 2000))

	params = evolution.DefaultParameters()
	params.HallOfFameSize = params.PopulationSize + 1
	assert.Error(t, ValidateRunLimits(params, 1000, 2000))

	params = evolution.DefaultParameters()
	params.PopulationSize = 2
	assert.Error(t, ValidateRunLimits(params, 1000, 2000), "锦标赛规模 3 大于种群大小 2")
}

func TestValidateRealBounds(t *testing.T) {
	assert.NoError(t, ValidateRealBounds(-5, 5))
	assert.Error(t, ValidateRealBounds(1, 1))
	assert.Error(t, ValidateRealBounds(2, -2))
}
