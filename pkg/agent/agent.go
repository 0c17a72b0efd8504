package agent

import (
	"context"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
)

// Instruction is a natural-language task for an agent driving a page.
type Instruction struct {
	Page browser.Page
	// Goal describes the task, e.g. "Log in to the mailbox".
	Goal string
	// Variables are secrets the agent may type as {{name}}. Only names reach the model.
	Variables map[string]string
	// MaxSteps bounds the number of actions; zero uses the agent default.
	MaxSteps int
}

// Result summarizes a finished instruction.
type Result struct {
	Steps   int
	Summary string
}

// InstructionFollowingAgent performs a natural-language instruction against a page.
type InstructionFollowingAgent interface {
	Execute(ctx context.Context, in Instruction) (Result, error)
}
