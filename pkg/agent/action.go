package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Action kinds the model may answer with.
const (
	ActionClick = "click"
	ActionFill  = "fill"
	ActionType  = "type"
	ActionPress = "press"
	ActionGoto  = "goto"
	ActionWait  = "wait"
	ActionDone  = "done"
	ActionFail  = "fail"
)

// Action is one step decided by the model.
type Action struct {
	Action   string `json:"action"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func (a Action) String() string {
	switch a.Action {
	case ActionFill, ActionPress:
		return fmt.Sprintf("%s %s %q", a.Action, a.Selector, a.Value)
	case ActionType, ActionGoto:
		return fmt.Sprintf("%s %q", a.Action, a.Value)
	default:
		return strings.TrimSpace(a.Action + " " + a.Selector)
	}
}

var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// ParseAction decodes a model reply, tolerating a surrounding code fence.
func ParseAction(reply string) (Action, error) {
	reply = strings.TrimSpace(reply)
	if m := fenceRe.FindStringSubmatch(reply); m != nil {
		reply = m[1]
	}

	var a Action
	if err := json.Unmarshal([]byte(reply), &a); err != nil {
		return Action{}, errors.Join(ErrInvalidAction, err)
	}
	a.Action = strings.ToLower(strings.TrimSpace(a.Action))

	switch a.Action {
	case ActionClick, ActionWait:
		if a.Selector == "" {
			return Action{}, fmt.Errorf("%w: %s needs a selector", ErrInvalidAction, a.Action)
		}
	case ActionFill, ActionPress:
		if a.Selector == "" || a.Value == "" {
			return Action{}, fmt.Errorf("%w: %s needs a selector and a value", ErrInvalidAction, a.Action)
		}
	case ActionType, ActionGoto:
		if a.Value == "" {
			return Action{}, fmt.Errorf("%w: %s needs a value", ErrInvalidAction, a.Action)
		}
	case ActionDone, ActionFail:
	default:
		return Action{}, fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a.Action)
	}
	return a, nil
}

var varRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Substitute replaces {{name}} placeholders with variable values.
func Substitute(s string, vars map[string]string) (string, error) {
	var missing []string
	out := varRe.ReplaceAllStringFunc(s, func(m string) string {
		name := varRe.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariable, strings.Join(missing, ", "))
	}
	return out, nil
}
