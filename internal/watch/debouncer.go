package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces rapid file events into a single callback invocation.
// Only the last event within the configured interval triggers the callback.
type Debouncer struct {
	interval time.Duration
	logger   *slog.Logger
	mu       sync.Mutex
	timer    *time.Timer
	callback func(path string)
	lastPath string
}

// NewDebouncer creates a debouncer that waits for interval of quiet before
// firing callback with the path of the last event. A nil logger uses
// slog.Default.
func NewDebouncer(interval time.Duration, logger *slog.Logger, callback func(path string)) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Debouncer{
		interval: interval,
		logger:   logger,
		callback: callback,
	}
}

// Trigger records an event for the given path and restarts the quiet period.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastPath = path

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("debounced run panicked", slog.Any("error", r))
		}
	}()

	d.mu.Lock()
	p := d.lastPath
	d.timer = nil
	d.mu.Unlock()

	d.callback(p)
}

// Stop cancels any pending debounced callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
