package queue

import (
	"encoding/json"
	"time"

	"github.com/egor-mailer/linktrack/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskTokenExpireSweep 令牌过期扫描任务
	TaskTokenExpireSweep = constants.TaskTokenExpireSweep
)

// TokenExpireSweepPayload 过期扫描任务载荷
type TokenExpireSweepPayload struct {
	Now time.Time `json:"now"`
}

// NewTokenExpireSweepTask 创建过期扫描任务
func NewTokenExpireSweepTask(payload TokenExpireSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTokenExpireSweep, body), nil
}
