package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ruliad/internal/core"
	"ruliad/internal/engine"
	"ruliad/internal/runner"
	"ruliad/internal/store"
)

// appHandle is the slice of the app the lookup helpers need.
type appHandle interface {
	Gateway() store.Gateway
}

// RunOptions holds options for the run command.
type RunOptions struct {
	Env   string
	Suite bool
}

// NewRunCommand creates the run command for headless execution, useful
// in scripts and CI. The named request (or suite with --suite) is
// looked up in the store, executed against the environment's engine,
// and the outcome recorded exactly as a TUI run would be.
func NewRunCommand(root *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run NAME",
		Short: "Execute a stored request or suite by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runByName(cmd, root, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Env, "env", "e", "", "Environment to run against (default from config)")
	cmd.Flags().BoolVar(&opts.Suite, "suite", false, "Treat NAME as a suite")

	return cmd
}

func runByName(cmd *cobra.Command, root *RootOptions, name string, opts *RunOptions) error {
	a, err := root.newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	env, envCfg := root.cfg.Resolve(opts.Env)
	eng := engine.NewClient(envCfg.APIs.RuleEngine)
	run := runner.New(env, eng, a.Gateway(), root.cfg.User)
	out := cmd.OutOrStdout()

	if opts.Suite {
		suite, err := findSuite(ctx, a, env, name)
		if err != nil {
			return err
		}

		run = runner.New(env, eng, a.Gateway(), root.cfg.User,
			runner.WithProgressCallback(func(current, total int, result *runner.EntryResult) {
				mark := "✓"
				if result.Err != nil {
					mark = "!"
				} else if !result.Matched {
					mark = "✗"
				}
				fmt.Fprintf(out, "%s [%d/%d] %s xid=%s\n", mark, current, total, result.RuleName, result.XID)
			}))

		summary, err := run.RunSuite(ctx, suite)
		if err != nil && summary == nil {
			return err
		}
		fmt.Fprintf(out, "\n%s: %s in %s\n", suite.Name, summary.Describe(), summary.TotalDuration)
		if summary.Mismatched > 0 || summary.Errors > 0 {
			return fmt.Errorf("suite %s failed", suite.Name)
		}
		return nil
	}

	req, err := findRequest(ctx, a, env, name)
	if err != nil {
		return err
	}

	result, err := run.RunRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("run %s: %w", req.Name, err)
	}

	fmt.Fprintf(out, "%s (%s)\n", req.Name, req.RuleName)
	fmt.Fprintf(out, "  decision: %s\n", result.Decision)
	fmt.Fprintf(out, "  duration: %s\n", result.Duration)
	if !result.Passed {
		return fmt.Errorf("rule %s did not pass", req.RuleName)
	}
	return nil
}

func findRequest(ctx context.Context, a appHandle, env, name string) (*core.Request, error) {
	reqs, err := a.Gateway().ListRequests(ctx, env)
	if err != nil {
		return nil, err
	}
	for _, req := range reqs {
		if strings.EqualFold(req.Name, name) || req.ID == name {
			return req, nil
		}
	}
	return nil, fmt.Errorf("no request named %q in %s", name, env)
}

func findSuite(ctx context.Context, a appHandle, env, name string) (*core.Suite, error) {
	suites, err := a.Gateway().ListSuites(ctx, env)
	if err != nil {
		return nil, err
	}
	for _, suite := range suites {
		if strings.EqualFold(suite.Name, name) || suite.ID == name {
			return suite, nil
		}
	}
	return nil, fmt.Errorf("no suite named %q in %s", name, env)
}
