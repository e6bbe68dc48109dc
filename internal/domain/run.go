package domain

import (
	"encoding/json"
	"time"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusFinished RunStatus = "finished"
	RunStatusFailed   RunStatus = "failed"
)

// Run 一次进化运行的记录，Result 保存 evolution.Result 序列化后的 JSON
type Run struct {
	ID          int64                `json:"id"`
	UserID      int64                `json:"userId"`
	Problem     string               `json:"problem"`
	InstanceID  *int64               `json:"instanceId"`
	Expression  string               `json:"expression,omitempty"`
	Parameters  evolution.Parameters `json:"parameters"`
	Seed        int64                `json:"seed"`
	Status      RunStatus            `json:"status"`
	BestFitness *float64             `json:"bestFitness"`
	Evaluations int                  `json:"evaluations"`
	Error       string               `json:"error,omitempty"`
	Result      json.RawMessage      `json:"result,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	FinishedAt  *time.Time           `json:"finishedAt"`
	Version     int32                `json:"-"`
}
