package plan

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/hupe1980/filtersync/internal/maputil"
	"github.com/hupe1980/filtersync/internal/output"
)

// diffContext is the number of unchanged YAML lines shown around a change.
const diffContext = 3

const (
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
	ansiReset = "\033[0m"
)

// ObjectDiff compares two filter objects: a unified diff of their YAML
// renderings plus the per-field change list.
type ObjectDiff struct {
	From    string        `json:"from" yaml:"from"`
	To      string        `json:"to" yaml:"to"`
	Unified string        `json:"unified,omitempty" yaml:"unified,omitempty"`
	Changes []FieldChange `json:"changes" yaml:"changes"`
}

// DiffObjects diffs a against b. from and to label the two sides, usually
// with the locations the objects were decoded from.
func DiffObjects(a, b maputil.Object, from, to string) (*ObjectDiff, error) {
	left, err := yamlLines(a)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", from, err)
	}

	right, err := yamlLines(b)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", to, err)
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        left,
		B:        right,
		FromFile: from,
		ToFile:   to,
		Context:  diffContext,
	})
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	return &ObjectDiff{
		From:    from,
		To:      to,
		Unified: unified,
		Changes: CompareObjects(a, b),
	}, nil
}

// Differs reports whether any field differs.
func (d *ObjectDiff) Differs() bool {
	return len(d.Changes) > 0
}

// Write prints the unified diff, with ANSI colors when color is set.
func (d *ObjectDiff) Write(w io.Writer, color bool) {
	if d.Unified == "" {
		_, _ = fmt.Fprintln(w, "No differences found.")
		return
	}

	for _, line := range strings.Split(strings.TrimSuffix(d.Unified, "\n"), "\n") {
		if c := lineColor(line); color && c != "" {
			_, _ = fmt.Fprintf(w, "%s%s%s\n", c, line, ansiReset)
			continue
		}

		_, _ = fmt.Fprintln(w, line)
	}
}

func lineColor(line string) string {
	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		return ansiBold
	case strings.HasPrefix(line, "@@"):
		return ansiCyan
	case strings.HasPrefix(line, "-"):
		return ansiRed
	case strings.HasPrefix(line, "+"):
		return ansiGreen
	default:
		return ""
	}
}

// yamlLines renders obj as YAML split into newline-terminated lines.
func yamlLines(obj maputil.Object) ([]string, error) {
	data, err := output.RenderYAML(obj)
	if err != nil {
		return nil, err
	}

	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines, nil
}
