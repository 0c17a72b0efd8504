package queue

import "errors"

var (
	ErrRepositoryNil            = errors.New("repository cannot be nil")
	ErrPayloadNil               = errors.New("payload cannot be nil")
	ErrHandlerNotFound          = errors.New("no handler registered for task type")
	ErrNoHandlers               = errors.New("no task handlers registered")
	ErrNoTaskToClaim            = errors.New("no task available to claim")
	ErrTaskNotFound             = errors.New("task not found")
	ErrTaskNotProcessing        = errors.New("task is not in processing state")
	ErrStalled                  = errors.New("task stalled more than the allowed number of times")
	ErrWorkerAlreadyStarted     = errors.New("worker already started")
	ErrWorkerNotStarted         = errors.New("worker not started")
	ErrFailedToUpdateTaskStatus = errors.New("failed to update task status")
	ErrFailedToMoveToDLQ        = errors.New("failed to move task to dead letter queue")
)

type unrecoverableError struct{ err error }

func (e *unrecoverableError) Error() string { return e.err.Error() }
func (e *unrecoverableError) Unwrap() error { return e.err }

// Unrecoverable marks a handler error as terminal: the task goes straight
// to the dead letter queue regardless of remaining attempts.
func Unrecoverable(err error) error {
	if err == nil {
		return nil
	}
	return &unrecoverableError{err: err}
}

// IsUnrecoverable reports whether err was wrapped with Unrecoverable.
func IsUnrecoverable(err error) bool {
	var u *unrecoverableError
	return errors.As(err, &u)
}
