package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/filtersync/internal/config"
	"github.com/hupe1980/filtersync/internal/maputil"
	"github.com/hupe1980/filtersync/internal/output"
	"github.com/hupe1980/filtersync/internal/plan"
	"github.com/hupe1980/filtersync/internal/router"
)

type diffOptions struct {
	schemaOptions

	// Output format: "unified" (default), "json".
	format string

	// Return exit code 3 when the filter objects differ.
	exitCode bool
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <url-or-query-a> <url-or-query-b>",
		Short: "Compare the filter objects of two URLs",
		Long: `Diff decodes two URLs or query strings through the selected profile and
compares the resulting filter objects. Queries that differ only in key
order, quoting of unknown keys, or values equal to a default produce no
differences.

The unified format diffs the YAML renderings of both objects. The json
format lists per-field changes.

Exit codes:
  0  No differences, or differences without --exit-code
  1  Error
  2  Invalid arguments
  3  Differences found and --exit-code set`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], args[1], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.format, "format", "unified", "output format: unified, json")
	f.BoolVar(&opts.exitCode, "exit-code", false, "exit with code 3 when the filter objects differ")

	registerSchemaFlags(cmd, &opts.schemaOptions)

	return cmd
}

func runDiff(cmd *cobra.Command, rawA, rawB string, opts *diffOptions) error {
	if opts.format != "unified" && opts.format != "json" {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("invalid --format %q: must be one of unified, json", opts.format)}
	}

	cfg := config.FromContext(cmd.Context())

	sel, err := resolveProfile(cmd, &opts.schemaOptions)
	if err != nil {
		return err
	}

	a, err := decodeLocation(cmd, sel, rawA)
	if err != nil {
		return err
	}

	b, err := decodeLocation(cmd, sel, rawB)
	if err != nil {
		return err
	}

	d, err := plan.DiffObjects(a, b, rawA, rawB)
	if err != nil {
		return &ExitError{Code: exitFailure, Err: err}
	}

	if opts.format == "json" {
		data, err := output.RenderJSON(d.Changes)
		if err != nil {
			return &ExitError{Code: exitFailure, Err: err}
		}

		if err := writeRendered(cmd, data); err != nil {
			return err
		}
	} else {
		d.Write(cmd.OutOrStdout(), !cfg.NoColor)
	}

	if opts.exitCode && d.Differs() {
		return &ExitError{Code: exitDifferences, Err: fmt.Errorf("%d field(s) differ", len(d.Changes))}
	}

	return nil
}

// decodeLocation reconciles raw against the profile without committing and
// returns the filter object.
func decodeLocation(cmd *cobra.Command, sel *selectedProfile, raw string) (maputil.Object, error) {
	r, err := router.New(raw, router.ModePush)
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}

	e, err := sel.newEngine(cmd.Context(), r.Query(), nil)
	if err != nil {
		return nil, err
	}

	return e.Peek(), nil
}
