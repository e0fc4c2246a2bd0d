// Package cli implements the cobra command tree for filtersync.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/filtersync/internal/config"
	"github.com/hupe1980/filtersync/internal/logging"
)

// Process exit codes.
const (
	exitFailure     = 1
	exitUsage       = 2
	exitDifferences = 3
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Code != exitDifferences {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}

			return exitErr.Code
		}

		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		return exitFailure
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "filtersync",
		Short: "Keep filter objects and URL query strings in sync",
		Long: `filtersync reconciles a structured filter object with the query string
of a URL.

Every filter field is stored in the query as a JSON literal, so strings keep
their quotes and numbers, booleans, arrays and objects round-trip exactly.
Reading the filters through filtersync commits the query whenever the two
disagree, which keeps shared and bookmarked URLs canonical.

Fields, defaults and validation come from a filter profile: the built-in
"search" profile, a profile declared in .filtersync.yaml or --profile-file,
or an ad-hoc profile built from --field flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("profile", cfg.Profile),
				slog.String("configFile", cfg.ConfigFile),
				slog.Int("customProfiles", len(cfg.Profiles)),
			)

			return nil
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .filtersync.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.StringP("profile", "p", config.DefaultProfile, "filter profile to reconcile against")
	pf.String("profile-file", "", "YAML file with additional filter profiles")
	pf.StringP("output-format", "o", "json", "filter object output format: json, yaml")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: exitUsage, Err: err}
	})

	// Register subcommands.
	cmd.AddCommand(
		newVersionCommand(),
		newDecodeCommand(),
		newSyncCommand(),
		newEncodeCommand(),
		newDiffCommand(),
		newPlanCommand(),
		newWatchCommand(),
		newProfilesCommand(),
		newCompletionCommand(),
	)

	registerProfileCompletion(cmd)

	return cmd
}
