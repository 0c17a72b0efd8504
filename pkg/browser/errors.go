package browser

import "errors"

var (
	ErrTimeout          = errors.New("browser: timed out")
	ErrUnknownEngine    = errors.New("browser: unknown engine")
	ErrNoBoundingBox    = errors.New("browser: element has no bounding box")
	ErrInvalidState     = errors.New("browser: invalid storage state")
	ErrDriverNotRunning = errors.New("browser: driver not running")
)
