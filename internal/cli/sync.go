package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/filtersync/internal/config"
	"github.com/hupe1980/filtersync/internal/maputil"
	"github.com/hupe1980/filtersync/internal/output"
	"github.com/hupe1980/filtersync/internal/query"
	"github.com/hupe1980/filtersync/internal/router"
)

type syncOptions struct {
	schemaOptions

	reset   bool
	set     []string
	unset   []string
	history bool
	filters bool
	back    bool
}

func newSyncCommand() *cobra.Command {
	opts := &syncOptions{}

	cmd := &cobra.Command{
		Use:   "sync <url-or-query>",
		Short: "Apply filter changes and print the committed URL",
		Long: `Sync loads a URL into a router, applies the requested filter changes
and reads the filters back, which commits the query whenever it disagrees
with the filter object. The resulting URL is printed.

Changes run in order: --reset first, then every --set, then every --unset.
--back then returns to the previous history entry, so the printed URL and
filters are those of the location before the commit.
--set values are JSON literals; anything that is not valid JSON is taken as
a string. Setting a field to an empty value removes it.

Commits are recorded as new history entries (--history-mode push) or
replace the current one (--history-mode replace). --history prints the
recorded entries.`,
		Example: `  filtersync sync '/search?q="shoes"' --set 'tags=["red"]' --set page=2
  filtersync sync '/search?q="shoes"&page=3' --reset
  filtersync sync 'q="shoes"' --unset q --history`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.reset, "reset", false, "restore defaults, keeping non-resetable fields")
	f.StringArrayVar(&opts.set, "set", nil, "set a field (name=<json>)")
	f.StringArrayVar(&opts.unset, "unset", nil, "remove a field")
	f.BoolVar(&opts.history, "history", false, "print the router history")
	f.BoolVar(&opts.filters, "filters", false, "print the filter object after the URL")
	f.BoolVar(&opts.back, "back", false, "go back one history entry after reading, discarding the commit")
	f.String("history-mode", router.ModePush.String(), "how commits are recorded: push, replace")

	registerSchemaFlags(cmd, &opts.schemaOptions)

	return cmd
}

func runSync(cmd *cobra.Command, raw string, opts *syncOptions) error {
	cfg := config.FromContext(cmd.Context())

	sel, err := resolveProfile(cmd, &opts.schemaOptions)
	if err != nil {
		return err
	}

	partial := maputil.Object{}

	for _, spec := range opts.set {
		name, value, err := parseAssignment("set", spec)
		if err != nil {
			return err
		}

		partial[name] = value
	}

	for _, name := range opts.unset {
		partial[name] = nil
	}

	r, err := router.New(raw, cfg.Mode())
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	commits := 0

	e, err := sel.newEngine(cmd.Context(), r.Query(), func(q *query.Values) {
		commits++
		r.Commit(q)
	})
	if err != nil {
		return err
	}

	if opts.reset {
		e.Reset()
	}

	if len(partial) > 0 {
		e.Apply(partial)
	}

	data := e.Data()
	wentBack := false

	if opts.back {
		if wentBack = r.Back(); wentBack {
			prev, err := sel.newEngine(cmd.Context(), r.Query(), nil)
			if err != nil {
				return err
			}

			data = prev.Peek()
		}
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w, r.URL())

	if opts.filters {
		rendered, err := output.Render(data, cfg.Format())
		if err != nil {
			return &ExitError{Code: exitFailure, Err: err}
		}

		if err := writeRendered(cmd, rendered); err != nil {
			return err
		}
	}

	if opts.history {
		for i, entry := range r.History() {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", i, entry.Mode, entry.URL)
		}
	}

	if !cfg.Quiet {
		state := "in sync, nothing committed"
		if commits > 0 {
			state = fmt.Sprintf("committed (%d active filters)", e.Count())
		}

		switch {
		case wentBack:
			state = "went back, commit discarded"
		case opts.back:
			state += "; nothing to go back to"
		}

		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), state)
	}

	return nil
}
