package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ruliad/internal/core"
	"ruliad/internal/store"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Env     string
	Limit   int
	Request string
}

// NewHistoryCommand creates the history command, which lists recorded
// runs for an environment, newest first.
func NewHistoryCommand(root *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs for an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Env, "env", "e", "", "Environment to inspect (default from config)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().StringVarP(&opts.Request, "request", "r", "", "Only runs of the named request")

	return cmd
}

func showHistory(cmd *cobra.Command, root *RootOptions, opts *HistoryOptions) error {
	a, err := root.newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	env, _ := root.cfg.Resolve(opts.Env)
	out := cmd.OutOrStdout()

	runs, err := loadRuns(ctx, a, env, opts)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs recorded for %s\n", env)
		return nil
	}

	for _, run := range runs {
		result := run.Result
		if result == "" {
			result = "-"
		}
		fmt.Fprintf(out, "%s  %-8s %-10s %-6s %4dms  %s\n",
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.RunType,
			run.Status,
			result,
			run.ExecutionMS,
			run.CreatedBy)
	}
	return nil
}

func loadRuns(ctx context.Context, a appHandle, env string, opts *HistoryOptions) ([]store.Run, error) {
	if opts.Request != "" {
		req, err := findRequest(ctx, a, env, opts.Request)
		if err != nil {
			return nil, err
		}
		runs, err := a.Gateway().RunHistory(ctx, env, core.KindRequest, req.ID)
		if err != nil {
			return nil, err
		}
		if opts.Limit > 0 && len(runs) > opts.Limit {
			runs = runs[:opts.Limit]
		}
		return runs, nil
	}
	return a.Gateway().AllRunHistory(ctx, env, opts.Limit)
}
