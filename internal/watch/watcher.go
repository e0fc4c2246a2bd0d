package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/filtersync/internal/maputil"
)

// RunFunc is called each time the watched file changes. It reconciles the
// file's content and reports the outcome.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult holds the outcome of a single reconciliation so the watcher can
// report filter changes between runs.
type RunResult struct {
	// URL is the reconciled URL or query.
	URL string
	// Committed reports whether the run committed a new query.
	Committed bool
	// Written reports whether the committed query was written back.
	Written bool
	// Count is the number of active countable filters.
	Count int
	// Filters is the reconciled filter object.
	Filters maputil.Object
}

// Options configures the watch behaviour.
type Options struct {
	// File is the file holding the URL or query to reconcile.
	File string

	// Debounce is the quiet period before triggering a run.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 200 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run starts the file watcher and blocks until the context is cancelled
// or a SIGINT/SIGTERM signal is received.
//
// The parent directory is watched rather than the file itself, so editors
// that replace the file by rename keep triggering runs.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	target, err := filepath.Abs(opts.File)
	if err != nil {
		return fmt.Errorf("resolving watch file %q: %w", opts.File, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("watching file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("watching file: %s is a directory", target)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching directory %q: %w", filepath.Dir(target), err)
	}

	// Trap SIGINT / SIGTERM for graceful shutdown.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", target, opts.Debounce)

	r := &runner{opts: opts, runFn: runFn}

	r.run(sigCtx, "(initial)")

	debouncer := NewDebouncer(opts.Debounce, opts.Logger, func(path string) {
		r.run(sigCtx, path)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) || filepath.Clean(event.Name) != target {
				continue
			}

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// runner serializes runs and remembers the previous filter object.
type runner struct {
	opts  Options
	runFn RunFunc

	mu   sync.Mutex
	prev maputil.Object
	runs int
}

// run executes a single reconciliation and prints the status line.
func (r *runner) run(ctx context.Context, trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	now := time.Now().Format("15:04:05")
	out := r.opts.Out

	result, err := r.runFn(ctx)
	if err != nil {
		fmt.Fprintf(out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		return
	}

	state := "in sync"
	if result.Committed {
		state = "committed"
	}

	if result.Written {
		state += ", written"
	}

	fmt.Fprintf(out, "[%s] %s → %s (%d active filters) %s\n", now, trigger, state, result.Count, result.URL)

	if r.runs > 0 {
		if changes := FilterDiff(r.prev, result.Filters); len(changes) > 0 {
			fmt.Fprintf(out, "  filters: %s\n", FilterDiffSummary(changes))

			for _, c := range changes {
				r.opts.Logger.Debug("filter changed",
					slog.String("field", c.Field),
					slog.String("kind", c.Kind),
					slog.String("detail", c.Detail),
				)
			}
		}
	}

	r.prev = maputil.Overlay(nil, result.Filters)
	r.runs++
}

// isRelevant filters out events that cannot change file content.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	// Only care about write, create, remove, rename.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	// Ignore editor temporary files.
	if strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
