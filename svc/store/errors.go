package store

import "errors"

var (
	ErrNotFound      = errors.New("store: not found")
	ErrInvalidStatus = errors.New("store: invalid run status")
	ErrInvalidRun    = errors.New("store: invalid run")
)
