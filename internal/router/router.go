// Package router provides an in-process routing collaborator for the
// filter engine: it owns the query representation of a single location,
// accepts commits from the engine and keeps a navigation history.
package router

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hupe1980/filtersync/internal/query"
)

// Mode determines how a commit is recorded in the history.
type Mode int

const (
	// ModePush adds a new history entry.
	ModePush Mode = iota

	// ModeReplace replaces the current history entry.
	ModeReplace
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModePush:
		return "push"
	case ModeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "push":
		return ModePush, nil
	case "replace":
		return ModeReplace, nil
	default:
		return 0, fmt.Errorf("invalid history mode %q: must be one of push, replace", s)
	}
}

// Entry is one recorded location.
type Entry struct {
	Mode Mode
	URL  string
}

// Router holds a location whose query is shared with a filter engine.
type Router struct {
	base    *url.URL
	query   *query.Values
	mode    Mode
	history []Entry

	// snapshots holds the query of each history entry.
	snapshots []*query.Values
}

// New parses raw, which may be an absolute or relative URL or a bare query
// string, into a Router. The parsed location is the first history entry.
func New(raw string, mode Mode) (*Router, error) {
	raw = strings.TrimSpace(raw)

	var base *url.URL

	if looksLikeBareQuery(raw) {
		base = &url.URL{RawQuery: strings.TrimPrefix(raw, "?")}
	} else {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing location %q: %w", raw, err)
		}

		base = u
	}

	r := &Router{
		base:  base,
		query: query.Parse(base.RawQuery),
		mode:  mode,
	}

	r.record(ModePush)

	return r, nil
}

// Query returns the live query representation. Hand it to the engine.
func (r *Router) Query() *query.Values {
	return r.query
}

// Commit records q as the new location. It satisfies filter.CommitFunc.
func (r *Router) Commit(q *query.Values) {
	if q != r.query {
		r.query.Replace(q)
	}

	if r.mode == ModeReplace && len(r.history) > 0 {
		last := len(r.history) - 1
		r.history[last] = Entry{Mode: ModeReplace, URL: r.URL()}
		r.snapshots[last] = r.query.Clone()

		return
	}

	r.record(r.mode)
}

func (r *Router) record(mode Mode) {
	r.history = append(r.history, Entry{Mode: mode, URL: r.URL()})
	r.snapshots = append(r.snapshots, r.query.Clone())
}

// Back pops the latest history entry and restores the previous location's
// query in place. It reports false when there is nothing to go back to.
func (r *Router) Back() bool {
	if len(r.history) < 2 {
		return false
	}

	last := len(r.history) - 1
	r.history = r.history[:last]
	r.snapshots = r.snapshots[:last]

	r.query.Replace(r.snapshots[last-1])

	return true
}

// History returns a copy of the recorded entries, oldest first.
func (r *Router) History() []Entry {
	return append([]Entry(nil), r.history...)
}

// URL renders the current location.
func (r *Router) URL() string {
	u := *r.base
	u.RawQuery = r.query.Encode()
	u.ForceQuery = false

	s := u.String()
	if s == "" {
		return "?"
	}

	return s
}

// looksLikeBareQuery reports whether raw is a query string without a path,
// such as `?q="x"` or `q="x"&page=2`.
func looksLikeBareQuery(raw string) bool {
	if raw == "" || strings.HasPrefix(raw, "?") {
		return true
	}

	return !strings.Contains(raw, "?") && strings.Contains(raw, "=")
}
