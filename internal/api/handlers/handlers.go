package handlers

import (
	"context"

	"github.com/hibiken/asynq"
)

// IAsynqClient is the slice of the asynq client handlers use, narrowed
// so tests can substitute a recorder.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
