package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/domain"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/problem"
)

// loadTimetabling 根据实例 ID 构造排课问题，instanceID 为 nil 时使用默认实例
func (h *Handler) loadTimetabling(instanceID *int64) (*problem.Timetabling, error) {
	if instanceID == nil {
		return problem.NewTimetabling(problem.DefaultInstance())
	}

	if cached, ok := h.instances.Get(*instanceID); ok {
		return cached.(*problem.Timetabling), nil
	}

	ti, err := h.repository.GetTimetablingInstanceByID(*instanceID)
	if err != nil {
		return nil, err
	}

	t, err := problem.NewTimetabling(&ti.Instance)
	if err != nil {
		return nil, err
	}
	h.instances.Add(ti.ID, t)

	return t, nil
}

type scoreResult struct {
	Cost       float64            `json:"cost"`
	Valid      bool               `json:"valid"`
	Hard       int                `json:"hard"`
	Soft       int                `json:"soft"`
	Violations problem.Violations `json:"violations"`
	Table      []problem.Entry    `json:"table"`
}

func (h *Handler) ScoreTimetable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InstanceID  *int64               `json:"instanceId"`
		Assignments []problem.Assignment `json:"assignments" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	t, err := h.loadTimetabling(req.InstanceID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "排课实例不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := t.Check(req.Assignments); err != nil {
		h.badRequest(w, r, err)
		return
	}

	v := t.Breakdown(req.Assignments)
	h.successResponse(w, r, "评分成功", scoreResult{
		Cost:       t.Cost(req.Assignments),
		Valid:      t.IsValid(req.Assignments),
		Hard:       v.Hard(),
		Soft:       v.Soft(),
		Violations: v,
		Table:      t.Table(req.Assignments),
	})
}

func (h *Handler) CreateTimetablingInstance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string           `json:"name" validate:"required,max=64"`
		Description string           `json:"description" validate:"max=256"`
		Instance    problem.Instance `json:"instance"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	t, err := problem.NewTimetabling(&req.Instance)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	sub, err := h.currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ti := &domain.TimetablingInstance{
		Name:        req.Name,
		Description: req.Description,
		Instance:    req.Instance,
		CreatedBy:   sub,
	}

	if err := h.repository.CreateTimetablingInstance(ti); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "timetabling_instances_name_key":
			h.badRequest(w, r, errors.New("实例名称已存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.instances.Add(ti.ID, t)

	h.successResponse(w, r, "创建排课实例成功", ti)
}

func (h *Handler) GetAllTimetablingInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := h.repository.GetAllTimetablingInstances()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排课实例列表成功", instances)
}

func (h *Handler) GetTimetablingInstance(w http.ResponseWriter, r *http.Request) {
	ti := r.Context().Value(TimetablingInstanceCtx).(*domain.TimetablingInstance)
	h.successResponse(w, r, "获取排课实例成功", ti)
}
