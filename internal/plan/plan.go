package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hupe1980/filtersync/internal/filter"
	"github.com/hupe1980/filtersync/internal/maputil"
)

// ChangeType represents the type of change a commit would make to a field.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeChanged ChangeType = "changed"
)

// FieldChange is a single field that differs between the query and the
// filter object.
type FieldChange struct {
	Field string     `json:"field" yaml:"field"`
	Type  ChangeType `json:"type" yaml:"type"`
	Old   any        `json:"old,omitempty" yaml:"old,omitempty"`
	New   any        `json:"new,omitempty" yaml:"new,omitempty"`
}

// Plan describes what the next read of an engine would do.
type Plan struct {
	Before  string         `json:"before" yaml:"before"`
	After   string         `json:"after" yaml:"after"`
	Commit  bool           `json:"commit" yaml:"commit"`
	Count   int            `json:"count" yaml:"count"`
	Filters maputil.Object `json:"filters" yaml:"filters"`
	Changes []FieldChange  `json:"changes" yaml:"changes"`
}

// Build computes the plan for e without committing anything.
func Build(e *filter.Engine) *Plan {
	current := e.Peek()
	fromQuery := e.FromQuery()

	p := &Plan{
		Before:  e.Query().Encode(),
		After:   e.Encoded().Encode(),
		Commit:  e.Diverged(),
		Count:   e.Count(),
		Filters: maputil.Overlay(nil, current),
		Changes: []FieldChange{},
	}

	if !p.Commit {
		p.After = p.Before
		return p
	}

	p.Changes = CompareObjects(fromQuery, current)

	return p
}

// CompareObjects lists the top-level fields that differ between before and
// after, sorted by field. The result is never nil.
func CompareObjects(before, after maputil.Object) []FieldChange {
	changes := []FieldChange{}

	for key := range maputil.Diff(after, before) {
		oldVal, hadOld := before[key]
		newVal, hasNew := after[key]

		c := FieldChange{Field: key, Old: oldVal, New: newVal}

		switch {
		case !hadOld:
			c.Type = ChangeAdded
		case !hasNew:
			c.Type = ChangeRemoved
		default:
			c.Type = ChangeChanged
		}

		changes = append(changes, c)
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Field < changes[j].Field
	})

	return changes
}

// FormatTable writes the plan as a human-readable table.
func FormatTable(w io.Writer, p *Plan) {
	_, _ = fmt.Fprintf(w, "Before: ?%s\n", p.Before)

	if !p.Commit {
		_, _ = fmt.Fprintln(w, "No commit: query and filters agree.")
		_, _ = fmt.Fprintf(w, "Active filters: %d\n", p.Count)

		return
	}

	_, _ = fmt.Fprintf(w, "After:  ?%s\n", p.After)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Field Changes:")
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 60))

	for _, c := range p.Changes {
		_, _ = fmt.Fprintf(w, "  %s%-20s %s\n", changeIcon(c.Type), c.Field, describe(c))
	}

	_, _ = fmt.Fprintln(w)

	added, removed, changed := countByType(p.Changes)
	_, _ = fmt.Fprintf(w, "Summary: %d added, %d removed, %d changed; %d active filters\n",
		added, removed, changed, p.Count)
}

// FormatJSON writes the plan as JSON.
func FormatJSON(w io.Writer, p *Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(p)
}

func changeIcon(ct ChangeType) string {
	switch ct {
	case ChangeAdded:
		return "+ "
	case ChangeRemoved:
		return "- "
	case ChangeChanged:
		return "~ "
	default:
		return "  "
	}
}

func describe(c FieldChange) string {
	switch c.Type {
	case ChangeAdded:
		return literal(c.New)
	case ChangeRemoved:
		return literal(c.Old)
	default:
		return literal(c.Old) + " -> " + literal(c.New)
	}
}

func literal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	return string(b)
}

func countByType(changes []FieldChange) (added, removed, changed int) {
	for _, c := range changes {
		switch c.Type {
		case ChangeAdded:
			added++
		case ChangeRemoved:
			removed++
		case ChangeChanged:
			changed++
		}
	}

	return added, removed, changed
}
