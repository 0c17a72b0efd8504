package pipeline

import "errors"

var (
	ErrInvalidJob = errors.New("pipeline: invalid job")
	ErrNoTargets  = errors.New("pipeline: run has no provider and engine combinations")
	ErrEnqueue    = errors.New("pipeline: failed to enqueue run jobs")
)
