package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/filtersync/internal/config"
	"github.com/hupe1980/filtersync/internal/output"
	"github.com/hupe1980/filtersync/internal/query"
	"github.com/hupe1980/filtersync/internal/router"
)

type decodeOptions struct {
	schemaOptions

	explain bool
	count   bool
}

func newDecodeCommand() *cobra.Command {
	opts := &decodeOptions{}

	cmd := &cobra.Command{
		Use:   "decode <url-or-query>",
		Short: "Print the filter object a URL or query decodes to",
		Long: `Decode reconciles a URL or bare query string against the selected
profile and prints the resulting filter object.

Query values are JSON literals. Values that are not valid JSON are taken as
raw strings. Keys without a field in the profile, and values the field
rejects, are dropped; --explain lists them on stderr. Defaults fill in
fields the query lacks, and empty values are removed.`,
		Example: `  filtersync decode '?q="shoes"&tags=["red"]'
  filtersync decode 'https://shop.example/search?page=2' -o yaml
  filtersync decode --count 'q="shoes"&tags=["red"]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.explain, "explain", false, "list dropped and raw query keys on stderr")
	f.BoolVar(&opts.count, "count", false, "print only the number of active countable filters")

	registerSchemaFlags(cmd, &opts.schemaOptions)

	return cmd
}

func runDecode(cmd *cobra.Command, raw string, opts *decodeOptions) error {
	cfg := config.FromContext(cmd.Context())

	sel, err := resolveProfile(cmd, &opts.schemaOptions)
	if err != nil {
		return err
	}

	r, err := router.New(raw, cfg.Mode())
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	if opts.explain {
		validators, _ := sel.profile.Validators()
		_, report := query.DecodeWithReport(r.Query(), nil, validators)
		writeReport(cmd, report)
	}

	e, err := sel.newEngine(cmd.Context(), r.Query(), nil)
	if err != nil {
		return err
	}

	if opts.count {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), e.Count())
		return err
	}

	data, err := output.Render(e.Peek(), cfg.Format())
	if err != nil {
		return &ExitError{Code: exitFailure, Err: err}
	}

	return writeRendered(cmd, data)
}

func writeReport(cmd *cobra.Command, report query.Report) {
	w := cmd.ErrOrStderr()

	if len(report.Unknown) > 0 {
		_, _ = fmt.Fprintf(w, "dropped (no such field): %s\n", strings.Join(report.Unknown, ", "))
	}

	if len(report.Rejected) > 0 {
		_, _ = fmt.Fprintf(w, "dropped (rejected value): %s\n", strings.Join(report.Rejected, ", "))
	}

	if len(report.Raw) > 0 {
		_, _ = fmt.Fprintf(w, "not JSON, read as string: %s\n", strings.Join(report.Raw, ", "))
	}

	if report.Dropped() == 0 && len(report.Raw) == 0 {
		_, _ = fmt.Fprintln(w, "all query keys accepted")
	}
}
