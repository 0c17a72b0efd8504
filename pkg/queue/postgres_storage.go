package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/inboxshot/pkg/pg"
)

const taskColumns = `id, queue, task_name, payload, status, attempts, max_attempts, stall_count,
	scheduled_at, locked_until, locked_by, error, created_at`

// PostgresStorage implements the queue repositories on top of the
// queue_tasks and queue_tasks_dlq tables.
type PostgresStorage struct {
	db pg.DB
}

// NewPostgresStorage creates a storage backed by db.
func NewPostgresStorage(db pg.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// CreateTask implements EnqueuerRepository
func (s *PostgresStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO queue_tasks (id, queue, task_name, payload, status, attempts, max_attempts,
			stall_count, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, 0, $7, $8)`,
		task.ID, task.Queue, task.TaskName, task.Payload, string(task.Status),
		task.MaxAttempts, task.ScheduledAt, task.CreatedAt)
	return err
}

// ClaimTask implements WorkerRepository
func (s *PostgresStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE queue_tasks
		SET status = 'processing',
			attempts = attempts + 1,
			locked_by = $1,
			locked_until = now() + make_interval(secs => $3)
		WHERE id = (
			SELECT id FROM queue_tasks
			WHERE status = 'pending' AND queue = ANY($2) AND scheduled_at <= now()
			ORDER BY scheduled_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING `+taskColumns,
		workerID, queues, lockDuration.Seconds())

	task, err := scanTask(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNoTaskToClaim
		}
		return nil, err
	}
	return task, nil
}

// CompleteTask implements WorkerRepository
func (s *PostgresStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM queue_tasks WHERE id = $1 AND status = 'processing'`, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return nil
}

// RetryTask implements WorkerRepository
func (s *PostgresStorage) RetryTask(ctx context.Context, taskID uuid.UUID, errorMsg string, retryAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_tasks
		SET status = 'pending', error = $2, scheduled_at = $3, locked_until = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'processing'`,
		taskID, errorMsg, retryAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return nil
}

// MoveToDLQ implements WorkerRepository
func (s *PostgresStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID, errorMsg string) error {
	tag, err := s.db.Exec(ctx, `
		WITH moved AS (
			DELETE FROM queue_tasks WHERE id = $1
			RETURNING id, queue, task_name, payload, attempts, created_at
		)
		INSERT INTO queue_tasks_dlq (id, task_id, queue, task_name, payload, error, attempts, failed_at, created_at)
		SELECT $2, id, queue, task_name, payload, $3, attempts, now(), created_at FROM moved`,
		taskID, uuid.New(), errorMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return nil
}

// ExtendLock implements WorkerRepository
func (s *PostgresStorage) ExtendLock(ctx context.Context, taskID uuid.UUID, duration time.Duration) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_tasks SET locked_until = now() + make_interval(secs => $2)
		WHERE id = $1 AND status = 'processing'`,
		taskID, duration.Seconds())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return nil
}

// ReclaimStalled implements WorkerRepository
func (s *PostgresStorage) ReclaimStalled(ctx context.Context, maxStalls int) ([]*Task, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		UPDATE queue_tasks SET stall_count = stall_count + 1
		WHERE id IN (
			SELECT id FROM queue_tasks
			WHERE status = 'processing' AND locked_until < now()
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+taskColumns)
	if err != nil {
		return nil, err
	}
	tasks, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (*Task, error) {
		return scanTask(r)
	})
	if err != nil {
		return nil, err
	}

	for _, task := range tasks {
		if task.StallCount > maxStalls {
			if _, err := tx.Exec(ctx, `
				WITH moved AS (
					DELETE FROM queue_tasks WHERE id = $1
					RETURNING id, queue, task_name, payload, attempts, created_at
				)
				INSERT INTO queue_tasks_dlq (id, task_id, queue, task_name, payload, error, attempts, failed_at, created_at)
				SELECT $2, id, queue, task_name, payload, $3, attempts, now(), created_at FROM moved`,
				task.ID, uuid.New(), ErrStalled.Error()); err != nil {
				return nil, err
			}
			task.Status = TaskStatusFailed
			continue
		}

		if _, err := tx.Exec(ctx, `
			UPDATE queue_tasks
			SET status = 'pending', attempts = attempts - 1, locked_until = NULL, locked_by = NULL
			WHERE id = $1`, task.ID); err != nil {
			return nil, err
		}
		task.Status = TaskStatusPending
		task.Attempts--
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var (
		t      Task
		status string
	)
	err := row.Scan(&t.ID, &t.Queue, &t.TaskName, &t.Payload, &status, &t.Attempts, &t.MaxAttempts,
		&t.StallCount, &t.ScheduledAt, &t.LockedUntil, &t.LockedBy, &t.Error, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = TaskStatus(status)
	return &t, nil
}
