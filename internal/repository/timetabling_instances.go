package repository

import (
	"encoding/json"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/domain"
)

func (r *Repository) CreateTimetablingInstance(ti *domain.TimetablingInstance) error {
	data, err := json.Marshal(ti.Instance)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO timetabling_instances (name, description, data, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{ti.Name, ti.Description, data, ti.CreatedBy}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&ti.ID, &ti.CreatedAt, &ti.Version)
}

func (r *Repository) GetTimetablingInstanceByID(id int64) (*domain.TimetablingInstance, error) {
	query := `
		SELECT name, description, data, created_by, created_at, version
		FROM timetabling_instances WHERE id = $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	ti := &domain.TimetablingInstance{
		ID: id,
	}

	var data []byte
	dst := []any{&ti.Name, &ti.Description, &data, &ti.CreatedBy, &ti.CreatedAt, &ti.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &ti.Instance); err != nil {
		return nil, err
	}

	return ti, nil
}

func (r *Repository) GetAllTimetablingInstances() ([]*domain.TimetablingInstance, error) {
	query := `
		SELECT id, name, description, data, created_by, created_at, version
		FROM timetabling_instances ORDER BY id
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instances := make([]*domain.TimetablingInstance, 0)
	for rows.Next() {
		ti := &domain.TimetablingInstance{}
		var data []byte
		dst := []any{&ti.ID, &ti.Name, &ti.Description, &data, &ti.CreatedBy, &ti.CreatedAt, &ti.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &ti.Instance); err != nil {
			return nil, err
		}
		instances = append(instances, ti)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return instances, nil
}
