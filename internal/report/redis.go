package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

// Progress 发布到 redis 频道中的消息
type Progress struct {
	RunID      int64                 `json:"runId"`
	Done       bool                  `json:"done"`
	Statistics *evolution.Statistics `json:"statistics,omitempty"`
	Best       *evolution.Individual `json:"best,omitempty"`
}

func ProgressChannel(runID int64) string {
	return fmt.Sprintf("run:%d:progress", runID)
}

// RedisPublisher 把每一代的统计信息发布到 run:<id>:progress 频道
// 发布失败只记录日志，不影响进化过程
type RedisPublisher struct {
	Client  *redis.Client
	// RunID 需要在第一次发布之前设置
	RunID   int64
	Timeout time.Duration
}

func (p *RedisPublisher) Generation(stats evolution.Statistics) {
	p.publish(Progress{RunID: p.RunID, Statistics: &stats})
}

func (p *RedisPublisher) Finish(best evolution.Individual, history []evolution.Statistics) {
	p.publish(Progress{RunID: p.RunID, Done: true, Best: &best})
}

func (p *RedisPublisher) publish(msg Progress) {
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("无法序列化进度消息", "runId", p.RunID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
	defer cancel()

	if err := p.Client.Publish(ctx, ProgressChannel(p.RunID), payload).Err(); err != nil {
		slog.Error("无法发布进度消息", "runId", p.RunID, "error", err)
	}
}
