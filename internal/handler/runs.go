package handler

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/config"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/domain"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/problem"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/report"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/utils"
)

// runRequest 未指定的参数使用 ENGINE_ 配置中的默认值
type runRequest struct {
	Problem    string              `json:"problem" validate:"required"`
	InstanceID *int64              `json:"instanceId"`
	Expression string              `json:"expression" validate:"max=512"`
	Dimension  int                 `json:"dimension" validate:"omitempty,min=1,max=100"`
	Lower      *float64            `json:"lower"`
	Upper      *float64            `json:"upper"`
	Direction  evolution.Direction `json:"direction" validate:"omitempty,oneof=minimize maximize"`

	PopulationSize *int                `json:"populationSize"`
	Generations    *int                `json:"generations"`
	CrossoverRate  *float64            `json:"crossoverRate" validate:"omitempty,gte=0,lte=1"`
	MutationRate   *float64            `json:"mutationRate" validate:"omitempty,gte=0,lte=1"`
	HallOfFameSize *int                `json:"hallOfFameSize"`
	Seed           *int64              `json:"seed"`
	Selection      evolution.Selection `json:"selection" validate:"omitempty,oneof=tournament roulette"`
	TournamentSize *int                `json:"tournamentSize"`
	Operators      evolution.Operators `json:"operators"`

	Notify bool `json:"notify"`
}

func (req *runRequest) parameters(cfg *config.Config) evolution.Parameters {
	params := evolution.DefaultParameters()
	params.PopulationSize = cfg.Engine.PopulationSize
	params.Generations = cfg.Engine.Generations
	params.CrossoverRate = cfg.Engine.CrossoverRate
	params.MutationRate = cfg.Engine.MutationRate
	params.HallOfFameSize = cfg.Engine.HallOfFameSize

	if req.PopulationSize != nil {
		params.PopulationSize = *req.PopulationSize
	}
	if req.Generations != nil {
		params.Generations = *req.Generations
	}
	if req.CrossoverRate != nil {
		params.CrossoverRate = *req.CrossoverRate
	}
	if req.MutationRate != nil {
		params.MutationRate = *req.MutationRate
	}
	if req.HallOfFameSize != nil {
		params.HallOfFameSize = *req.HallOfFameSize
	}
	if req.Selection != "" {
		params.Selection = req.Selection
	}
	if req.TournamentSize != nil {
		params.TournamentSize = *req.TournamentSize
	}
	params.Seed = req.Seed
	params.Operators = req.Operators

	return params
}

// cacheKey 只有指定了种子的请求结果是确定的，才能缓存
// 键中不包含用户，不同用户的相同请求共享同一份结果
func (req *runRequest) cacheKey(params evolution.Parameters) (string, bool) {
	if req.Seed == nil {
		return "", false
	}

	payload, err := json.Marshal(struct {
		Problem    string               `json:"problem"`
		InstanceID *int64               `json:"instanceId"`
		Expression string               `json:"expression"`
		Dimension  int                  `json:"dimension"`
		Lower      *float64             `json:"lower"`
		Upper      *float64             `json:"upper"`
		Direction  evolution.Direction  `json:"direction"`
		Parameters evolution.Parameters `json:"parameters"`
	}{req.Problem, req.InstanceID, req.Expression, req.Dimension, req.Lower, req.Upper, req.Direction, params})
	if err != nil {
		return "", false
	}

	sum := sha256.Sum256(payload)
	return "run_cache_" + hex.EncodeToString(sum[:]), true
}

// buildProblem 根据请求构造问题，用户输入导致的错误都包装了 evolution.ErrConfiguration
func (h *Handler) buildProblem(req *runRequest) (evolution.Problem, error) {
	if req.InstanceID != nil {
		if req.Problem != "timetabling" {
			return evolution.Problem{}, fmt.Errorf("%w: 只有 timetabling 问题可以指定排课实例", evolution.ErrConfiguration)
		}
		t, err := h.loadTimetabling(req.InstanceID)
		if err != nil {
			return evolution.Problem{}, err
		}
		return problem.TimetablingRecord(t).Problem(), nil
	}

	if req.Problem == "expression" {
		if req.Dimension == 0 {
			return evolution.Problem{}, fmt.Errorf("%w: 表达式问题需要指定维度", evolution.ErrConfiguration)
		}

		bounds := problem.RosenbrockBounds
		if req.Lower != nil {
			bounds.Low = *req.Lower
		}
		if req.Upper != nil {
			bounds.High = *req.Upper
		}
		if err := utils.ValidateRealBounds(bounds.Low, bounds.High); err != nil {
			return evolution.Problem{}, fmt.Errorf("%w: %w", evolution.ErrConfiguration, err)
		}

		direction := req.Direction
		if direction == "" {
			direction = evolution.Minimize
		}

		expr, err := problem.NewExpression(req.Expression, req.Dimension)
		if err != nil {
			return evolution.Problem{}, err
		}
		return problem.ExpressionRecord(expr, bounds, direction).Problem(), nil
	}

	record, err := h.registry.Get(req.Problem)
	if err != nil {
		return evolution.Problem{}, err
	}
	return record.Problem(), nil
}

func (h *Handler) redisTimeout() time.Duration {
	return time.Duration(h.config.Redis.OperationTimeout) * time.Second
}

// cachedResult 缓存中只保存运行结果，不包含运行记录本身，命中时为当前用户生成新的运行记录
type cachedResult struct {
	BestFitness float64         `json:"bestFitness"`
	Evaluations int             `json:"evaluations"`
	Duration    time.Duration   `json:"duration"`
	Result      json.RawMessage `json:"result"`
}

// newCachedResult run 必须已经通过 applyResult 写入了成功的结果
func newCachedResult(run *domain.Run, duration time.Duration) *cachedResult {
	return &cachedResult{
		BestFitness: *run.BestFitness,
		Evaluations: run.Evaluations,
		Duration:    duration,
		Result:      run.Result,
	}
}

func (c *cachedResult) apply(run *domain.Run) {
	bestFitness := c.BestFitness
	run.Status = domain.RunStatusFinished
	run.BestFitness = &bestFitness
	run.Evaluations = c.Evaluations
	run.Error = ""
	run.Result = c.Result
}

// newRun 构造属于 userID 的运行记录，尚未写入数据库
func newRun(userID int64, name string, req *runRequest, params evolution.Parameters) *domain.Run {
	run := &domain.Run{
		UserID:     userID,
		Problem:    name,
		InstanceID: req.InstanceID,
		Expression: req.Expression,
		Parameters: params,
	}
	if params.Seed != nil {
		run.Seed = *params.Seed
	}
	return run
}

// loadCachedResult 缓存未命中或读取失败时返回 nil
func (h *Handler) loadCachedResult(key string) *cachedResult {
	if h.redisClient == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.redisTimeout())
	defer cancel()

	data, err := h.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("读取运行缓存失败", "key", key, "error", err)
		}
		return nil
	}

	cached := &cachedResult{}
	if err := json.Unmarshal(data, cached); err != nil {
		slog.Error("运行缓存格式错误", "key", key, "error", err)
		return nil
	}
	return cached
}

func (h *Handler) storeCachedResult(key string, cached *cachedResult) {
	if h.redisClient == nil {
		return
	}

	data, err := json.Marshal(cached)
	if err != nil {
		slog.Error("无法序列化运行结果", "key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.redisTimeout())
	defer cancel()

	expiration := time.Duration(h.config.Redis.CacheExpiration) * time.Second
	if err := h.redisClient.Set(ctx, key, data, expiration).Err(); err != nil {
		slog.Error("写入运行缓存失败", "key", key, "error", err)
	}
}

// applyResult 把运行结果写入运行记录
func applyResult(run *domain.Run, result *evolution.Result, runErr error) error {
	if runErr != nil {
		run.Status = domain.RunStatusFailed
		run.Error = runErr.Error()
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	run.Status = domain.RunStatusFinished
	run.BestFitness = &result.BestFitness
	run.Evaluations = result.Evaluations
	run.Result = data
	return nil
}

func (h *Handler) notifyRunFinished(userID int64, run *domain.Run, duration time.Duration) {
	user, err := h.repository.GetUserByID(userID)
	if err != nil {
		slog.Error("无法获取运行者信息", "userId", userID, "error", err)
		return
	}

	data := domain.RunFinishedMailData{
		FullName:    user.FullName,
		RunID:       run.ID,
		Problem:     run.Problem,
		Status:      string(run.Status),
		Generations: run.Parameters.Generations,
	}
	if run.BestFitness != nil {
		data.BestFitness = *run.BestFitness
		data.Duration = duration.Round(time.Millisecond).String()
	}

	if err := h.publishMail(domain.MailMessage{
		Type: "run_finished",
		To:   user.Email,
		Data: data,
	}); err != nil {
		slog.Error("无法发送运行完成邮件", "runId", run.ID, "error", err)
	}
}

func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	sub, err := h.currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	var req runRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	params := req.parameters(h.config)
	if err := params.Validate(); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateRunLimits(params, h.config.Engine.MaxPopulationSize, h.config.Engine.MaxGenerations); err != nil {
		h.badRequest(w, r, err)
		return
	}

	prob, err := h.buildProblem(&req)
	if err != nil {
		switch {
		case errors.Is(err, problem.ErrProblemNotFound):
			h.errorResponse(w, r, "问题不存在")
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "排课实例不存在")
		case errors.Is(err, evolution.ErrConfiguration), errors.Is(err, problem.ErrInvalidInstance):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	cacheKey, cacheable := req.cacheKey(params)
	if cacheable {
		if cached := h.loadCachedResult(cacheKey); cached != nil {
			run := newRun(sub, prob.Name, &req, params)
			if err := h.repository.InsertRun(run); err != nil {
				h.internalServerError(w, r, err)
				return
			}
			cached.apply(run)
			if err := h.repository.FinishRun(run); err != nil {
				h.internalServerError(w, r, err)
				return
			}

			report.ObserveRun(prob.Name, "cached", 0, 0)
			if req.Notify {
				h.notifyRunFinished(sub, run, cached.Duration)
			}

			h.successResponse(w, r, "运行完成（缓存）", run)
			return
		}
	}

	// 先确定种子，保证运行记录中的种子和实际使用的一致
	if params.Seed == nil {
		seed := time.Now().UnixNano()
		params.Seed = &seed
	}

	reporters := report.Multi{report.MetricsReporter{Problem: prob.Name}}
	publisher := &report.RedisPublisher{Client: h.redisClient, Timeout: h.redisTimeout()}
	if h.redisClient != nil {
		reporters = append(reporters, publisher)
	}

	opts := []evolution.Option{evolution.WithReporter(reporters)}
	if h.config.Engine.Workers > 0 {
		opts = append(opts, evolution.WithStrategy(evolution.Parallel{Workers: h.config.Engine.Workers}))
	}

	engine, err := evolution.New(prob, params, opts...)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	run := newRun(sub, prob.Name, &req, params)
	run.Seed = engine.Seed()
	if err := h.repository.InsertRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	publisher.RunID = run.ID

	result, runErr := engine.Run(r.Context())
	if err := applyResult(run, result, runErr); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := h.repository.FinishRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if runErr != nil {
		report.ObserveRun(prob.Name, string(domain.RunStatusFailed), 0, 0)
	} else {
		report.ObserveRun(prob.Name, string(domain.RunStatusFinished), result.Duration, result.Evaluations)
	}

	if req.Notify {
		var duration time.Duration
		if result != nil {
			duration = result.Duration
		}
		h.notifyRunFinished(sub, run, duration)
	}

	if runErr != nil {
		h.errorResponse(w, r, "运行失败: "+runErr.Error())
		return
	}

	if cacheable {
		h.storeCachedResult(cacheKey, newCachedResult(run, result.Duration))
	}

	h.successResponse(w, r, "运行完成", run)
}

func (h *Handler) GetMyRuns(w http.ResponseWriter, r *http.Request) {
	sub, err := h.currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	runs, err := h.repository.GetRunsByUserID(sub)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取运行记录成功", runs)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RunCtx).(*domain.Run)
	h.successResponse(w, r, "获取运行记录成功", run)
}
