// Package cli implements the rawready command line: one-shot scans, file
// previews and rule listings against a data root.
package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rawready/internal/config"
	"github.com/JonMunkholm/rawready/internal/core"
	"github.com/JonMunkholm/rawready/internal/logging"
	"github.com/JonMunkholm/rawready/internal/report"
)

// ErrChecksFailed is returned by scan --fail-on-error when any check fails.
var ErrChecksFailed = errors.New("one or more checks failed")

// options holds the persistent flags shared by every subcommand.
type options struct {
	dataRoot  string
	rulesPath string
	workers   int
	logLevel  string
	jsonOut   bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "rawready",
		Short:         "Profile raw data files and run conformance checks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dataRoot, "data-root", "", "data root to scan (default from DATA_ROOT)")
	flags.StringVar(&opts.rulesPath, "rules", "", "rule document path (default from RULES_PATH)")
	flags.IntVar(&opts.workers, "workers", 0, "files profiled in parallel (default from SCAN_WORKERS)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	flags.BoolVar(&opts.jsonOut, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newScanCommand(opts),
		newPreviewCommand(opts),
		newRulesCommand(opts),
	)
	return root
}

// Execute runs the command tree. Errors with a known user message come back
// as *core.UserError.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if core.IsUserFacing(err) {
		return core.NewUserError(err)
	}
	return err
}

// resolve fills unset flags from the environment configuration and routes
// logs to stderr so stdout carries only command output.
func (o *options) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("data-root") {
		o.dataRoot = cfg.Scan.DataRoot
	}
	if !flags.Changed("rules") {
		o.rulesPath = cfg.Scan.RulesPath
	}
	if !flags.Changed("workers") {
		o.workers = cfg.Scan.Workers
	}
	if !flags.Changed("log-level") {
		o.logLevel = cfg.Logging.Level
	}

	slog.SetDefault(logging.New(cmd.ErrOrStderr(), o.logLevel, cfg.Logging.Format))
	return nil
}

func (o *options) sandbox() (*core.Sandbox, error) {
	return core.NewSandbox(o.dataRoot)
}

func (o *options) builder() (*report.Builder, error) {
	sb, err := o.sandbox()
	if err != nil {
		return nil, err
	}
	return report.NewBuilder(sb, o.rulesPath, report.WithWorkers(o.workers)), nil
}
