package watch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/filtersync/internal/maputil"
	"github.com/hupe1980/filtersync/internal/query"
)

// FilterChange describes a single change to the reconciled filter object
// between two consecutive runs.
type FilterChange struct {
	// Kind is one of "added", "removed", or "changed".
	Kind string
	// Field is the top-level filter field.
	Field string
	// Detail holds the new value, or old and new for changes.
	Detail string
}

// FilterDiff compares two filter objects and returns the changes sorted by
// field.
func FilterDiff(prev, curr maputil.Object) []FilterChange {
	var changes []FilterChange

	for field := range maputil.Diff(curr, prev) {
		pv, existed := prev[field]
		cv, exists := curr[field]

		switch {
		case !existed:
			changes = append(changes, FilterChange{Kind: "added", Field: field, Detail: literal(cv)})
		case !exists:
			changes = append(changes, FilterChange{Kind: "removed", Field: field, Detail: literal(pv)})
		default:
			changes = append(changes, FilterChange{
				Kind:   "changed",
				Field:  field,
				Detail: fmt.Sprintf("%s -> %s", literal(pv), literal(cv)),
			})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })

	return changes
}

// FilterDiffSummary returns a human-readable one-line summary.
func FilterDiffSummary(changes []FilterChange) string {
	var added, removed, changed int

	for _, c := range changes {
		switch c.Kind {
		case "added":
			added++
		case "removed":
			removed++
		case "changed":
			changed++
		}
	}

	if added == 0 && removed == 0 && changed == 0 {
		return "no filter changes"
	}

	parts := make([]string, 0, 3)

	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d filter(s) added", added))
	}

	if removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d filter(s) removed", removed))
	}

	if changed > 0 {
		parts = append(parts, fmt.Sprintf("~%d filter(s) changed", changed))
	}

	return strings.Join(parts, ", ")
}

func literal(v any) string {
	s, err := query.EncodeValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	return s
}
