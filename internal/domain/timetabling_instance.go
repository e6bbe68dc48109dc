package domain

import (
	"time"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/problem"
)

type TimetablingInstance struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Instance    problem.Instance `json:"instance"`
	CreatedBy   int64            `json:"createdBy"`
	CreatedAt   time.Time        `json:"createdAt"`
	Version     int32            `json:"-"`
}
