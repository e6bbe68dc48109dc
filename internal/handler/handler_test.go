package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/config"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/domain"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/problem"
)

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.Engine.PopulationSize = 20
	cfg.Engine.Generations = 10
	cfg.Engine.CrossoverRate = 0.9
	cfg.Engine.MutationRate = 0.1
	cfg.Engine.HallOfFameSize = 1
	cfg.Engine.MaxPopulationSize = 100
	cfg.Engine.MaxGenerations = 50
	cfg.Engine.InstanceCacheSize = 4

	registry, err := problem.DefaultRegistry()
	require.NoError(t, err)

	h, err := NewHandler(cfg, nil, nil, nil, registry)
	require.NoError(t, err)
	h.RegisterRoutes()
	return h
}

func authCookie(t *testing.T, h *Handler, userID int64, role domain.Role) *http.Cookie {
	t.Helper()

	token, err := h.signToken(userID, string(role), time.Now().Add(time.Hour))
	require.NoError(t, err)
	return &http.Cookie{Name: tokenCookieName, Value: token}
}

func doRequest(t *testing.T, h *Handler, method, path string, body any, cookie *http.Cookie) (int, testResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	var resp testResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

// compactAssignments 默认实例的一个零代价排课
func compactAssignments() []problem.Assignment {
	return []problem.Assignment{
		{Module: 0, Room: 0, Timeslot: 0},
		{Module: 1, Room: 3, Timeslot: 0},
		{Module: 2, Room: 0, Timeslot: 1},
		{Module: 3, Room: 2, Timeslot: 0},
		{Module: 4, Room: 1, Timeslot: 1},
		{Module: 5, Room: 1, Timeslot: 2},
	}
}

func TestGetAllProblems(t *testing.T) {
	h := newTestHandler(t)

	code, resp := doRequest(t, h, http.MethodGet, "/problems", nil, nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Success)

	var records []problem.Record
	require.NoError(t, json.Unmarshal(resp.Data, &records))
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"knapsack", "nurses", "rosenbrock", "timetabling", "tsp"}, names)
}

func TestAuth(t *testing.T) {
	h := newTestHandler(t)
	body := map[string]any{"assignments": compactAssignments()}

	t.Run("未登录", func(t *testing.T) {
		_, resp := doRequest(t, h, http.MethodPost, "/timetabling/score", body, nil)
		assert.False(t, resp.Success)
		assert.Equal(t, "用户未登录", resp.Message)
	})

	t.Run("无效令牌", func(t *testing.T) {
		cookie := &http.Cookie{Name: tokenCookieName, Value: "not-a-jwt"}
		_, resp := doRequest(t, h, http.MethodPost, "/timetabling/score", body, cookie)
		assert.False(t, resp.Success)
		assert.Equal(t, "无效的令牌", resp.Message)
	})

	t.Run("过期令牌", func(t *testing.T) {
		token, err := h.signToken(1, string(domain.RoleMember), time.Now().Add(-time.Minute))
		require.NoError(t, err)
		cookie := &http.Cookie{Name: tokenCookieName, Value: token}
		_, resp := doRequest(t, h, http.MethodPost, "/timetabling/score", body, cookie)
		assert.False(t, resp.Success)
		assert.Equal(t, "无效的令牌", resp.Message)
	})

	t.Run("权限不足", func(t *testing.T) {
		user := map[string]string{"username": "lisi", "fullName": "李四", "email": "lisi@example.com", "role": "成员"}
		_, resp := doRequest(t, h, http.MethodPost, "/users", user, authCookie(t, h, 2, domain.RoleMember))
		assert.False(t, resp.Success)
		assert.Equal(t, "权限不足", resp.Message)
	})
}

func TestScoreTimetable(t *testing.T) {
	h := newTestHandler(t)
	cookie := authCookie(t, h, 1, domain.RoleMember)

	t.Run("紧凑课表", func(t *testing.T) {
		_, resp := doRequest(t, h, http.MethodPost, "/timetabling/score", map[string]any{"assignments": compactAssignments()}, cookie)
		require.True(t, resp.Success, resp.Message)

		var result scoreResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, 0.0, result.Cost)
		assert.True(t, result.Valid)
		assert.Equal(t, problem.Violations{}, result.Violations)
		require.Len(t, result.Table, 6)
		assert.Equal(t, "Physics", result.Table[1].Module)
		assert.Equal(t, "R4", result.Table[1].Room)
	})

	t.Run("教室冲突", func(t *testing.T) {
		assignments := compactAssignments()
		assignments[1] = problem.Assignment{Module: 1, Room: 2, Timeslot: 0}

		_, resp := doRequest(t, h, http.MethodPost, "/timetabling/score", map[string]any{"assignments": assignments}, cookie)
		require.True(t, resp.Success, resp.Message)

		var result scoreResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, 10.0, result.Cost)
		assert.False(t, result.Valid)
		assert.Equal(t, 1, result.Hard)
		assert.Equal(t, problem.Violations{RoomClashes: 1}, result.Violations)
	})

	t.Run("重复课程计入违反", func(t *testing.T) {
		assignments := compactAssignments()
		assignments[5] = problem.Assignment{Module: 0, Room: 1, Timeslot: 7}

		_, resp := doRequest(t, h, http.MethodPost, "/timetabling/score", map[string]any{"assignments": assignments}, cookie)
		require.True(t, resp.Success, resp.Message)

		var result scoreResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, 1, result.Violations.DuplicateModules)
		assert.False(t, result.Valid)
	})

	t.Run("数量不符", func(t *testing.T) {
		_, resp := doRequest(t, h, http.MethodPost, "/timetabling/score", map[string]any{"assignments": compactAssignments()[:3]}, cookie)
		assert.False(t, resp.Success)
	})

	t.Run("下标越界", func(t *testing.T) {
		assignments := compactAssignments()
		assignments[0].Room = 9
		_, resp := doRequest(t, h, http.MethodPost, "/timetabling/score", map[string]any{"assignments": assignments}, cookie)
		assert.False(t, resp.Success)
	})

	t.Run("缺少排课", func(t *testing.T) {
		_, resp := doRequest(t, h, http.MethodPost, "/timetabling/score", map[string]any{}, cookie)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "Assignments")
	})
}

func TestCreateRunRejectsBadRequests(t *testing.T) {
	h := newTestHandler(t)
	cookie := authCookie(t, h, 1, domain.RoleMember)

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"缺少问题", map[string]any{}, "必填字段"},
		{"未知问题", map[string]any{"problem": "nope"}, "问题不存在"},
		{"未知字段", `{"problem":"tsp","unknown":1}`, "请求体格式错误"},
		{"种群过大", map[string]any{"problem": "tsp", "populationSize": 1000}, "种群大小不能超过"},
		{"代数过多", map[string]any{"problem": "tsp", "generations": 500}, "迭代代数不能超过"},
		{"种群为零", map[string]any{"problem": "tsp", "populationSize": 0}, "种群大小"},
		{"交叉概率越界", map[string]any{"problem": "tsp", "crossoverRate": 1.5}, "CrossoverRate"},
		{"未知选择策略", map[string]any{"problem": "tsp", "selection": "rank"}, "Selection"},
		{"非排课问题指定实例", map[string]any{"problem": "tsp", "instanceId": 1}, "只有 timetabling"},
		{"表达式缺少维度", map[string]any{"problem": "expression", "expression": "x0*x0"}, "维度"},
		{"表达式语法错误", map[string]any{"problem": "expression", "expression": "x0 +", "dimension": 2}, "表达式"},
		{"表达式区间为空", map[string]any{"problem": "expression", "expression": "x0", "dimension": 1, "lower": 3, "upper": 1}, "下界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := doRequest(t, h, http.MethodPost, "/runs", tt.body, cookie)
			assert.Equal(t, http.StatusOK, code)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Message, tt.message)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRunRequestParameters(t *testing.T) {
	h := newTestHandler(t)

	params := (&runRequest{Problem: "tsp"}).parameters(h.config)
	assert.Equal(t, 20, params.PopulationSize)
	assert.Equal(t, 10, params.Generations)
	assert.Equal(t, evolution.Tournament, params.Selection)
	assert.Nil(t, params.Seed)

	pop, seed, rate := 30, int64(7), 0.0
	params = (&runRequest{
		Problem:        "tsp",
		PopulationSize: &pop,
		Seed:           &seed,
		MutationRate:   &rate,
		Selection:      evolution.Roulette,
	}).parameters(h.config)
	assert.Equal(t, 30, params.PopulationSize)
	assert.Equal(t, 0.0, params.MutationRate)
	assert.Equal(t, evolution.Roulette, params.Selection)
	require.NotNil(t, params.Seed)
	assert.Equal(t, int64(7), *params.Seed)
}

func TestRunCacheKey(t *testing.T) {
	h := newTestHandler(t)

	unseeded := &runRequest{Problem: "tsp"}
	_, ok := unseeded.cacheKey(unseeded.parameters(h.config))
	assert.False(t, ok)

	seed := int64(42)
	a := &runRequest{Problem: "tsp", Seed: &seed}
	b := &runRequest{Problem: "tsp", Seed: &seed, Notify: true}
	c := &runRequest{Problem: "knapsack", Seed: &seed}

	keyA, ok := a.cacheKey(a.parameters(h.config))
	require.True(t, ok)
	keyB, _ := b.cacheKey(b.parameters(h.config))
	keyC, _ := c.cacheKey(c.parameters(h.config))

	assert.Equal(t, keyA, keyB, "是否通知不影响结果")
	assert.NotEqual(t, keyA, keyC)
	assert.Contains(t, keyA, "run_cache_")
}

func TestCachedResultSharedAcrossUsers(t *testing.T) {
	h := newTestHandler(t)

	seed := int64(7)
	reqA := &runRequest{Problem: "tsp", Seed: &seed}
	reqB := &runRequest{Problem: "tsp", Seed: &seed, Notify: true}
	paramsA, paramsB := reqA.parameters(h.config), reqB.parameters(h.config)

	keyA, ok := reqA.cacheKey(paramsA)
	require.True(t, ok)
	keyB, _ := reqB.cacheKey(paramsB)
	require.Equal(t, keyA, keyB)

	runA := newRun(1, "tsp", reqA, paramsA)
	runA.ID = 10
	result := &evolution.Result{
		Best:        evolution.Individual{Genes: evolution.IntGenes{1, 0, 2}, Fitness: 12.5, Valid: true},
		BestFitness: 12.5,
		Evaluations: 300,
		Seed:        seed,
		Duration:    time.Second,
	}
	require.NoError(t, applyResult(runA, result, nil))

	// 经过一次 redis 存取
	data, err := json.Marshal(newCachedResult(runA, result.Duration))
	require.NoError(t, err)
	cached := &cachedResult{}
	require.NoError(t, json.Unmarshal(data, cached))
	assert.NotContains(t, string(data), `"userId"`)

	runB := newRun(2, "tsp", reqB, paramsB)
	cached.apply(runB)

	assert.Equal(t, int64(2), runB.UserID)
	assert.Zero(t, runB.ID, "命中缓存时应为当前用户插入新的运行记录")
	assert.Equal(t, seed, runB.Seed)
	assert.Equal(t, domain.RunStatusFinished, runB.Status)
	require.NotNil(t, runB.BestFitness)
	assert.Equal(t, 12.5, *runB.BestFitness)
	assert.Equal(t, 300, runB.Evaluations)
	assert.JSONEq(t, string(runA.Result), string(runB.Result))
	assert.Equal(t, time.Second, cached.Duration)

	// 修改 B 的记录不影响 A
	*runB.BestFitness = 0
	assert.Equal(t, 12.5, *runA.BestFitness)
}

func TestBuildProblem(t *testing.T) {
	h := newTestHandler(t)

	prob, err := h.buildProblem(&runRequest{Problem: "expression", Expression: "x0*x0 + x1*x1", Dimension: 2})
	require.NoError(t, err)
	assert.Equal(t, evolution.Minimize, prob.Direction)
	assert.Equal(t, problem.RosenbrockBounds, prob.Spec.RealRange)
	assert.Equal(t, 2, prob.Spec.Length)

	_, err = h.buildProblem(&runRequest{Problem: "tsp", InstanceID: new(int64)})
	assert.True(t, errors.Is(err, evolution.ErrConfiguration))

	_, err = h.buildProblem(&runRequest{Problem: "nope"})
	assert.True(t, errors.Is(err, problem.ErrProblemNotFound))
}

func TestApplyResult(t *testing.T) {
	run := &domain.Run{}
	require.NoError(t, applyResult(run, nil, errors.New("评估失败")))
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Equal(t, "评估失败", run.Error)
	assert.Nil(t, run.BestFitness)

	run = &domain.Run{}
	result := &evolution.Result{
		Best:        evolution.Individual{Genes: evolution.IntGenes{0, 1}, Fitness: 3},
		BestFitness: 3,
		Evaluations: 120,
	}
	require.NoError(t, applyResult(run, result, nil))
	assert.Equal(t, domain.RunStatusFinished, run.Status)
	require.NotNil(t, run.BestFitness)
	assert.Equal(t, 3.0, *run.BestFitness)
	assert.Equal(t, 120, run.Evaluations)
	assert.Contains(t, string(run.Result), `"bestFitness":3`)
}
