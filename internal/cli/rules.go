package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ruliad/internal/metadata"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Env string
}

// NewRulesCommand creates the rules command, which lists the rules
// deployed to an environment's metadata service.
func NewRulesCommand(root *RootOptions) *cobra.Command {
	opts := &RulesOptions{}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List rules deployed to an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRules(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Env, "env", "e", "", "Environment to inspect (default from config)")

	return cmd
}

func listRules(cmd *cobra.Command, root *RootOptions, opts *RulesOptions) error {
	env, envCfg := root.cfg.Resolve(opts.Env)
	meta := metadata.NewClient(envCfg.APIs.RuleMetadata)
	out := cmd.OutOrStdout()

	rules, err := meta.Rules(context.Background())
	if err != nil {
		return fmt.Errorf("list rules for %s: %w", env, err)
	}

	if len(rules) == 0 {
		fmt.Fprintf(out, "No rules deployed to %s\n", env)
		return nil
	}

	for _, rule := range rules {
		if rule.Description != "" {
			fmt.Fprintf(out, "%-30s %s\n", rule.Name, rule.Description)
		} else {
			fmt.Fprintln(out, rule.Name)
		}
	}
	return nil
}
