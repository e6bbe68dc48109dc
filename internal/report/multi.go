package report

import "github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"

// Multi 按顺序把事件转发给多个 Reporter
type Multi []evolution.Reporter

func (m Multi) Generation(stats evolution.Statistics) {
	for _, r := range m {
		r.Generation(stats)
	}
}

func (m Multi) Finish(best evolution.Individual, history []evolution.Statistics) {
	for _, r := range m {
		r.Finish(best, history)
	}
}
