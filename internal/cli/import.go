package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ruliad/internal/core"
)

// ImportOptions holds options for the import command.
type ImportOptions struct {
	Env  string
	Name string
}

// NewImportCommand creates the import command, which loads a suite from
// a delimited file and stores it for later runs.
func NewImportCommand(root *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a suite from a rule_name,xid,expected_result file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importSuite(cmd, root, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Env, "env", "e", "", "Environment the suite belongs to (default from config)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Suite name (default derived from the file name)")

	return cmd
}

func importSuite(cmd *cobra.Command, root *RootOptions, path string, opts *ImportOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open suite file: %w", err)
	}
	defer f.Close()

	entries, err := core.ParseSuiteEntries(f)
	if err != nil {
		return err
	}

	name := opts.Name
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	a, err := root.newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	env, _ := root.cfg.Resolve(opts.Env)
	suite := &core.Suite{
		Name:        name,
		Environment: env,
		SourceFile:  filepath.Base(path),
		Entries:     entries,
		Status:      core.StatusActive,
		CreatedBy:   root.cfg.User,
	}
	if err := suite.Validate(); err != nil {
		return err
	}

	id, err := a.Gateway().Create(context.Background(), suite)
	if err != nil {
		return fmt.Errorf("store suite: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d entries into %s (id %s)\n", name, len(entries), env, id)
	return nil
}
