package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/inboxshot/pkg/logger"
)

const systemPrompt = `You operate a web browser to complete a task on a webmail site.
Each turn you receive the task, the current URL, the actions taken so far and a simplified DOM.
Answer with exactly one JSON object and nothing else:
{"action": "click|fill|type|press|goto|wait|done|fail", "selector": "<css selector>", "value": "<text>", "reason": "<short>"}
- click and wait need a selector; fill and press need a selector and a value; type and goto need a value.
- Secrets are available as placeholders such as {{password}}. Use the placeholder as the value; never guess secret values.
- Answer "done" once the task is complete and "fail" with a reason if it cannot be completed.`

// BrowserAgent follows instructions by asking a model for one action at a time against a
// DOM snapshot of the page.
type BrowserAgent struct {
	completer     Completer
	maxSteps      int
	snapshotLimit int
	actionTimeout time.Duration
	log           *slog.Logger
}

var _ InstructionFollowingAgent = (*BrowserAgent)(nil)

// Option configures a BrowserAgent.
type Option func(*BrowserAgent)

// WithLogger sets the agent logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *BrowserAgent) {
		if l != nil {
			a.log = l
		}
	}
}

// New builds an agent over completer using limits from cfg.
func New(completer Completer, cfg Config, opts ...Option) *BrowserAgent {
	a := &BrowserAgent{
		completer:     completer,
		maxSteps:      cfg.MaxSteps,
		snapshotLimit: cfg.SnapshotLimit,
		actionTimeout: cfg.ActionTimeout,
		log:           slog.Default(),
	}
	if a.maxSteps <= 0 {
		a.maxSteps = 12
	}
	if a.actionTimeout <= 0 {
		a.actionTimeout = 10 * time.Second
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Execute runs the instruction to completion, failure or the step limit.
func (a *BrowserAgent) Execute(ctx context.Context, in Instruction) (Result, error) {
	if in.Page == nil {
		return Result{}, ErrNoPage
	}
	maxSteps := in.MaxSteps
	if maxSteps <= 0 {
		maxSteps = a.maxSteps
	}

	var history []string
	for step := 1; step <= maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return Result{Steps: step - 1}, err
		}

		prompt, err := a.prompt(ctx, in, history)
		if err != nil {
			return Result{Steps: step - 1}, errors.Join(ErrAgentFailed, err)
		}

		reply, err := a.completer.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			return Result{Steps: step - 1}, errors.Join(ErrAgentFailed, err)
		}

		act, err := ParseAction(reply)
		if err != nil {
			// One malformed reply is fed back to the model rather than aborting.
			history = append(history, fmt.Sprintf("%d. invalid reply: %v", step, err))
			continue
		}

		a.log.DebugContext(ctx, "agent action",
			logger.Step(act.Action),
			slog.String("selector", act.Selector),
			slog.String("reason", act.Reason),
		)

		switch act.Action {
		case ActionDone:
			return Result{Steps: step, Summary: act.Reason}, nil
		case ActionFail:
			return Result{Steps: step, Summary: act.Reason}, fmt.Errorf("%w: %s", ErrAgentFailed, act.Reason)
		}

		if err := a.perform(ctx, in, act); err != nil {
			if errors.Is(err, ErrUnknownVariable) || ctx.Err() != nil {
				return Result{Steps: step}, errors.Join(ErrAgentFailed, err)
			}
			history = append(history, fmt.Sprintf("%d. %s -> error: %v", step, act, err))
			continue
		}
		history = append(history, fmt.Sprintf("%d. %s -> ok", step, act))
	}

	return Result{Steps: maxSteps}, errors.Join(ErrAgentFailed, ErrMaxSteps)
}

func (a *BrowserAgent) prompt(ctx context.Context, in Instruction, history []string) (string, error) {
	raw, err := in.Page.Content(ctx)
	if err != nil {
		return "", err
	}
	dom, err := Snapshot(raw, a.snapshotLimit)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", in.Goal)
	if len(in.Variables) > 0 {
		names := make([]string, 0, len(in.Variables))
		for name := range in.Variables {
			names = append(names, "{{"+name+"}}")
		}
		slices.Sort(names)
		fmt.Fprintf(&b, "Available placeholders: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "Current URL: %s\n", in.Page.URL())
	if len(history) > 0 {
		fmt.Fprintf(&b, "Actions so far:\n%s\n", strings.Join(history, "\n"))
	}
	fmt.Fprintf(&b, "DOM:\n%s\n", dom)
	return b.String(), nil
}

func (a *BrowserAgent) perform(ctx context.Context, in Instruction, act Action) error {
	value, err := Substitute(act.Value, in.Variables)
	if err != nil {
		return err
	}
	p := in.Page
	t := a.actionTimeout

	switch act.Action {
	case ActionClick:
		return p.Click(ctx, act.Selector, t)
	case ActionFill:
		return p.Fill(ctx, act.Selector, value, t)
	case ActionType:
		return p.TypeText(ctx, value, 50*time.Millisecond)
	case ActionPress:
		return p.Press(ctx, act.Selector, value, t)
	case ActionGoto:
		return p.Goto(ctx, value)
	case ActionWait:
		return p.WaitVisible(ctx, act.Selector, t)
	}
	return fmt.Errorf("%w: %q", ErrInvalidAction, act.Action)
}
