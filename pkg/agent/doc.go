// Package agent drives a browser page from natural-language instructions.
//
// BrowserAgent asks a Completer for one JSON action per step, given the goal, the
// current URL, the actions taken so far and a trimmed DOM snapshot of the page:
//
//	completer, err := agent.NewOpenAICompleter(cfg)
//	if err != nil {
//		return err
//	}
//	a := agent.New(completer, cfg, agent.WithLogger(log))
//	res, err := a.Execute(ctx, agent.Instruction{
//		Page:      page,
//		Goal:      "Sign in with {{username}} and {{password}}",
//		Variables: map[string]string{"username": user, "password": pass},
//	})
//
// Variables are substituted into action values after the model replies. Only their
// names are sent in prompts, and input values are stripped from snapshots.
package agent
