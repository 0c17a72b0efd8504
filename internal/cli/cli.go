// Package cli implements the session maintenance commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrymomot/inboxshot/pkg/environment"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
	"github.com/dmitrymomot/inboxshot/svc/sessioncache"
)

// Maintainer runs session cache maintenance. sessioncache.Cache satisfies it.
type Maintainer interface {
	CacheAll(ctx context.Context, force bool) ([]sessioncache.Report, error)
	Clone(ctx context.Context, source environment.Environment, targets []environment.Environment, force bool) ([]sessioncache.Report, error)
	Verify(ctx context.Context, clients []mailbox.Client, engines []mailbox.Engine) []sessioncache.Verification
}

// Options tell the factory what a command needs.
type Options struct {
	// Debug shows the browser and logs at debug level.
	Debug bool
	// Login is set when the command may sign in, so credentials must be loaded.
	Login bool
}

// Factory builds the maintainer for one command. The returned func releases it.
type Factory func(ctx context.Context, opts Options) (Maintainer, func(), error)

// FailedError reports how many combinations a command could not handle.
type FailedError struct {
	Count int
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("%d combination(s) failed", e.Count)
}

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
)

// Run dispatches args to a command. A *FailedError means the command ran but some
// combinations failed.
func Run(ctx context.Context, args []string, out io.Writer, factory Factory) error {
	if len(args) == 0 {
		printUsage(out)
		return nil
	}

	switch args[0] {
	case "cache-all-sessions":
		return runCacheAll(ctx, args[1:], out, factory)
	case "clone-sessions":
		return runClone(ctx, args[1:], out, factory)
	case "verify-sessions":
		return runVerify(ctx, args[1:], out, factory)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, titleStyle.Render("sessions: mailbox session cache maintenance"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  cache-all-sessions [--force] [--debug]")
	fmt.Fprintln(out, "      log in and cache every combination whose session is not valid")
	fmt.Fprintln(out, "  clone-sessions --source <env> --targets <env,env> [--force]")
	fmt.Fprintln(out, "      copy cached sessions between environments")
	fmt.Fprintln(out, "  verify-sessions [--client <name>] [--engine <name>]")
	fmt.Fprintln(out, "      probe cached sessions without changing them")
}

func runCacheAll(ctx context.Context, args []string, out io.Writer, factory Factory) error {
	fs := flag.NewFlagSet("cache-all-sessions", flag.ContinueOnError)
	fs.SetOutput(out)
	force := fs.Bool("force", false, "refresh every combination, even valid ones")
	debug := fs.Bool("debug", false, "show the browser and log at debug level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, release, err := factory(ctx, Options{Debug: *debug, Login: true})
	if err != nil {
		return err
	}
	defer release()

	reports, err := m.CacheAll(ctx, *force)
	failed := printReports(out, reports)
	if err != nil && failed == 0 {
		return err
	}
	if failed > 0 {
		return &FailedError{Count: failed}
	}
	return nil
}

func runClone(ctx context.Context, args []string, out io.Writer, factory Factory) error {
	fs := flag.NewFlagSet("clone-sessions", flag.ContinueOnError)
	fs.SetOutput(out)
	sourceFlag := fs.String("source", "", "environment to copy from")
	targetsFlag := fs.String("targets", "", "comma separated environments to copy to")
	force := fs.Bool("force", false, "overwrite sessions present in targets")
	if err := fs.Parse(args); err != nil {
		return err
	}

	source, err := environment.Parse(strings.TrimSpace(*sourceFlag))
	if err != nil {
		return fmt.Errorf("--source: %w", err)
	}
	var targets []environment.Environment
	for _, s := range strings.Split(*targetsFlag, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		env, err := environment.Parse(s)
		if err != nil {
			return fmt.Errorf("--targets: %w", err)
		}
		if env == source {
			return fmt.Errorf("--targets: %s is the source", env)
		}
		targets = append(targets, env)
	}
	if len(targets) == 0 {
		return errors.New("--targets: at least one environment is required")
	}

	m, release, err := factory(ctx, Options{})
	if err != nil {
		return err
	}
	defer release()

	reports, err := m.Clone(ctx, source, targets, *force)
	failed := printReports(out, reports)
	if err != nil && failed == 0 {
		return err
	}
	if failed > 0 {
		return &FailedError{Count: failed}
	}
	return nil
}

func runVerify(ctx context.Context, args []string, out io.Writer, factory Factory) error {
	fs := flag.NewFlagSet("verify-sessions", flag.ContinueOnError)
	fs.SetOutput(out)
	clientFlag := fs.String("client", "", "only this provider")
	engineFlag := fs.String("engine", "", "only this engine")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		clients []mailbox.Client
		engines []mailbox.Engine
	)
	if s := strings.TrimSpace(*clientFlag); s != "" {
		c, err := mailbox.ParseClient(s)
		if err != nil {
			return err
		}
		clients = append(clients, c)
	}
	if s := strings.TrimSpace(*engineFlag); s != "" {
		e, err := mailbox.ParseEngine(s)
		if err != nil {
			return err
		}
		engines = append(engines, e)
	}

	m, release, err := factory(ctx, Options{})
	if err != nil {
		return err
	}
	defer release()

	failed := 0
	for _, v := range m.Verify(ctx, clients, engines) {
		name := fmt.Sprintf("%s-%s", v.Combination.Client, v.Combination.Engine)
		switch {
		case v.Valid:
			fmt.Fprintf(out, "%s %s\n", okStyle.Render("✅"), name)
		case v.Err != nil:
			failed++
			fmt.Fprintf(out, "%s %s %s\n", failStyle.Render("❌"), name, mutedStyle.Render(v.Err.Error()))
		default:
			failed++
			fmt.Fprintf(out, "%s %s %s\n", failStyle.Render("❌"), name, mutedStyle.Render("session expired"))
		}
	}
	if failed > 0 {
		fmt.Fprintln(out, failStyle.Render(fmt.Sprintf("%d failed", failed)))
		return &FailedError{Count: failed}
	}
	return nil
}

// printReports writes one line per report and returns the number of failures.
func printReports(out io.Writer, reports []sessioncache.Report) int {
	failed := 0
	for _, r := range reports {
		name := fmt.Sprintf("%s-%s", r.Combination.Client, r.Combination.Engine)
		if r.Target != "" {
			name += " -> " + r.Target.String()
		}
		switch r.Outcome {
		case sessioncache.OutcomeFailed:
			failed++
			msg := string(r.Outcome)
			if r.Err != nil {
				msg = r.Err.Error()
			}
			fmt.Fprintf(out, "%s %s %s\n", failStyle.Render("❌"), name, mutedStyle.Render(msg))
		case sessioncache.OutcomeMissing:
			// nothing to copy; not a failure, but the target stays without a session
			fmt.Fprintf(out, "%s %s %s\n", warnStyle.Render("⚠️"), name, warnStyle.Render("source session missing"))
		default:
			fmt.Fprintf(out, "%s %s %s\n", okStyle.Render("✅"), name, mutedStyle.Render(string(r.Outcome)))
		}
	}
	if failed > 0 {
		fmt.Fprintln(out, failStyle.Render(fmt.Sprintf("%d failed", failed)))
	}
	return failed
}
