package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/egor-mailer/linktrack/internal/logger"
	"github.com/egor-mailer/linktrack/internal/provider"
	"github.com/egor-mailer/linktrack/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskTokenExpireSweep, c.handleTokenExpireSweep)
}

func (c *Consumer) handleTokenExpireSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_token_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.TokenExpireSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_token_sweep_unmarshal_failed", "error", err)
		return err
	}
	now := payload.Now
	if now.IsZero() {
		now = time.Now()
	}
	swept, err := c.TokenService.SweepExpired(ctx, now)
	if err != nil {
		logger.Warnw("worker_token_sweep_failed", "error", err)
		return err
	}
	logger.Debugw("worker_token_sweep_done", "swept", swept)
	return nil
}
