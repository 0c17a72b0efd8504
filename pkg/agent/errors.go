package agent

import "errors"

var (
	ErrAgentFailed     = errors.New("agent: instruction failed")
	ErrMaxSteps        = errors.New("agent: step limit reached")
	ErrInvalidAction   = errors.New("agent: invalid action")
	ErrNoPage          = errors.New("agent: instruction has no page")
	ErrUnknownVariable = errors.New("agent: unknown variable")
	ErrMissingAPIKey   = errors.New("agent: api key is required")
	ErrEmptyCompletion = errors.New("agent: empty completion")
)
