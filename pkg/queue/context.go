package queue

import (
	"context"

	"github.com/google/uuid"
)

// TaskInfo describes the task a handler is running for.
type TaskInfo struct {
	ID          uuid.UUID
	Name        string
	Attempt     int
	MaxAttempts int
}

type taskInfoKey struct{}

func withTaskInfo(ctx context.Context, task *Task) context.Context {
	return context.WithValue(ctx, taskInfoKey{}, TaskInfo{
		ID:          task.ID,
		Name:        task.TaskName,
		Attempt:     task.Attempts,
		MaxAttempts: task.MaxAttempts,
	})
}

// TaskFromContext returns the info of the task being handled.
func TaskFromContext(ctx context.Context) (TaskInfo, bool) {
	info, ok := ctx.Value(taskInfoKey{}).(TaskInfo)
	return info, ok
}
