// Package watch re-runs filter reconciliation whenever a file holding a URL
// or query string changes. Rapid events are debounced and runs are
// serialized, so the callback never executes concurrently with itself.
package watch
