package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/filtersync/internal/config"
	"github.com/hupe1980/filtersync/internal/logging"
	"github.com/hupe1980/filtersync/internal/output"
	"github.com/hupe1980/filtersync/internal/query"
	"github.com/hupe1980/filtersync/internal/router"
	"github.com/hupe1980/filtersync/internal/watch"
)

type watchOptions struct {
	schemaOptions

	// Watch-specific options.
	debounce time.Duration
	write    bool
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Reconcile a URL file whenever it changes",
		Long: `Watch monitors a file holding a single URL or query string and
reconciles it against the selected profile on every change.

File changes are debounced to avoid rapid re-runs, and runs never overlap.
Each run reports whether the query was committed and which filters changed
since the previous run.

With --write the committed URL is written back to the file. The write
triggers one more run, which finds the query in sync and writes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&opts.debounce, "debounce", 200*time.Millisecond, "debounce interval for file changes")
	f.BoolVar(&opts.write, "write", false, "write the committed URL back to the file")

	registerSchemaFlags(cmd, &opts.schemaOptions)

	return cmd
}

func runWatch(cmd *cobra.Command, file string, opts *watchOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	sel, err := resolveProfile(cmd, &opts.schemaOptions)
	if err != nil {
		return err
	}

	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		return reconcileFile(fnCtx, sel, cfg.Mode(), file, opts.write)
	}

	wOpts := watch.DefaultOptions()
	wOpts.File = file
	wOpts.Debounce = opts.debounce
	wOpts.Logger = logger
	wOpts.Out = cmd.ErrOrStderr()

	if err := watch.Run(ctx, wOpts, runFn); err != nil {
		return &ExitError{Code: exitFailure, Err: err}
	}

	return nil
}

// reconcileFile reads one URL from file, reads its filters through a fresh
// engine and, when write is set, writes a committed URL back.
func reconcileFile(ctx context.Context, sel *selectedProfile, mode router.Mode, file string, write bool) (*watch.RunResult, error) {
	data, err := os.ReadFile(file) //nolint:gosec // User-specified input file
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	r, err := router.New(strings.TrimSpace(string(data)), mode)
	if err != nil {
		return nil, err
	}

	committed := false

	e, err := sel.newEngine(ctx, r.Query(), func(q *query.Values) {
		committed = true
		r.Commit(q)
	})
	if err != nil {
		return nil, err
	}

	result := &watch.RunResult{
		Filters: e.Data(),
		Count:   e.Count(),
		URL:     r.URL(),
	}
	result.Committed = committed

	if committed && write {
		w := output.NewFileWriter(file, output.WithLogger(logging.FromContext(ctx)))
		if err := w.Write([]byte(result.URL + "\n")); err != nil {
			return nil, err
		}

		result.Written = true
	}

	return result, nil
}
