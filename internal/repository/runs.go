package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/domain"
)

const runColumns = `
	id, user_id, problem, instance_id, expression, parameters, seed, status,
	best_fitness, evaluations, error, result, created_at, finished_at, version
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	run := &domain.Run{}

	var (
		instanceID  sql.NullInt64
		bestFitness sql.NullFloat64
		parameters  []byte
		result      []byte
		finishedAt  sql.NullTime
	)

	dst := []any{
		&run.ID, &run.UserID, &run.Problem, &instanceID, &run.Expression, &parameters, &run.Seed, &run.Status,
		&bestFitness, &run.Evaluations, &run.Error, &result, &run.CreatedAt, &finishedAt, &run.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(parameters, &run.Parameters); err != nil {
		return nil, err
	}
	if instanceID.Valid {
		run.InstanceID = &instanceID.Int64
	}
	if bestFitness.Valid {
		run.BestFitness = &bestFitness.Float64
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	if len(result) > 0 {
		run.Result = json.RawMessage(result)
	}

	return run, nil
}

// InsertRun 插入一条状态为 running 的运行记录
func (r *Repository) InsertRun(run *domain.Run) error {
	parameters, err := json.Marshal(run.Parameters)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO runs (user_id, problem, instance_id, expression, parameters, seed, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	run.Status = domain.RunStatusRunning
	args := []any{run.UserID, run.Problem, run.InstanceID, run.Expression, parameters, run.Seed, run.Status}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.CreatedAt, &run.Version)
}

// FinishRun 写入运行结果，run.Status 为 finished 或 failed
func (r *Repository) FinishRun(run *domain.Run) error {
	var result any
	if len(run.Result) > 0 {
		result = []byte(run.Result)
	}

	query := `
		UPDATE runs
		SET status = $1, best_fitness = $2, evaluations = $3, error = $4, result = $5,
			finished_at = NOW(), version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING finished_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{run.Status, run.BestFitness, run.Evaluations, run.Error, result, run.ID, run.Version}
	var finishedAt sql.NullTime
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&finishedAt, &run.Version); err != nil {
		return err
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	return nil
}

func (r *Repository) GetRunByID(id int64) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanRun(r.dbpool.QueryRowContext(ctx, query, id))
}

// GetRunsByUserID 按创建时间倒序返回，列表中不包含完整结果
func (r *Repository) GetRunsByUserID(userID int64) ([]*domain.Run, error) {
	query := `
		SELECT
			id, user_id, problem, instance_id, expression, parameters, seed, status,
			best_fitness, evaluations, error, NULL, created_at, finished_at, version
		FROM runs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}
