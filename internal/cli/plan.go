package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/filtersync/internal/config"
	"github.com/hupe1980/filtersync/internal/output"
	"github.com/hupe1980/filtersync/internal/plan"
	"github.com/hupe1980/filtersync/internal/router"
)

type planOptions struct {
	schemaOptions

	// Output format: "table" (default), "json", "yaml".
	format string
}

func newPlanCommand() *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan <url-or-query>",
		Short: "Preview what reading the filters of a URL would commit",
		Long: `Plan is a dry run of the first read of a URL's filters. It reports
whether the query would be committed, shows the query before and after, and
lists every field the commit would add, remove, or change.

Nothing is committed.`,
		Example: `  filtersync plan '/search?q="shoes"&bogus=1'
  filtersync plan 'page=abc' --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table, json, yaml")

	registerSchemaFlags(cmd, &opts.schemaOptions)

	return cmd
}

func runPlan(cmd *cobra.Command, raw string, opts *planOptions) error {
	cfg := config.FromContext(cmd.Context())

	sel, err := resolveProfile(cmd, &opts.schemaOptions)
	if err != nil {
		return err
	}

	r, err := router.New(raw, cfg.Mode())
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	e, err := sel.newEngine(cmd.Context(), r.Query(), nil)
	if err != nil {
		return err
	}

	p := plan.Build(e)
	w := cmd.OutOrStdout()

	switch opts.format {
	case "table":
		plan.FormatTable(w, p)
	case "json":
		if err := plan.FormatJSON(w, p); err != nil {
			return &ExitError{Code: exitFailure, Err: fmt.Errorf("formatting JSON: %w", err)}
		}
	case "yaml":
		data, err := output.RenderYAML(p)
		if err != nil {
			return &ExitError{Code: exitFailure, Err: err}
		}

		return writeRendered(cmd, data)
	default:
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("invalid --format %q: must be one of table, json, yaml", opts.format)}
	}

	return nil
}
