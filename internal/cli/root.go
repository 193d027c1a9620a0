package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ruliad/internal/app"
	"ruliad/internal/config"
)

// RootOptions holds the persistent flags shared by every command.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand creates the root command. Running it without a
// subcommand opens the interactive navigator.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "ruliad",
		Short:   "Ruliad - a navigator for business rule evaluations",
		Long:    "Ruliad manages, executes and inspects rule evaluation requests across environments.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// setup loads the config and opens the log file under DataDir. Logs go
// to a file rather than stderr so they never corrupt the TUI screen.
func (o *RootOptions) setup() error {
	path := o.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	o.cfg = cfg

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{filepath.Join(cfg.DataDir, "ruliad.log")}
	logCfg.ErrorOutputPaths = logCfg.OutputPaths
	if o.Verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	log, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	o.log = log
	return nil
}

func (o *RootOptions) newApp() (*app.App, error) {
	return app.New(o.cfg, app.WithLogger(o.log))
}

func runTUI(opts *RootOptions) error {
	a, err := opts.newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.RunTUI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}
	return nil
}
