package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/filtersync/internal/maputil"
)

// Format is a rendering format for filter objects.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats returns the supported format names.
func Formats() []string {
	return []string{string(FormatJSON), string(FormatYAML)}
}

// ParseFormat parses a format name. The empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (must be one of %v)", s, Formats())
	}
}

// Render serializes v in the given format with sorted keys and a trailing
// newline.
func Render(v any, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return RenderYAML(v)
	case FormatJSON, "":
		return RenderJSON(v)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// RenderJSON serializes v as indented JSON. HTML characters are kept as is.
func RenderJSON(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("serializing JSON: %w", err)
	}

	return buf.Bytes(), nil
}

// RenderYAML serializes v as YAML with two-space indentation.
func RenderYAML(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("serializing YAML: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("serializing YAML: %w", err)
	}

	return buf.Bytes(), nil
}

// ReadObject decodes a single JSON or YAML document into a filter object.
// An empty document yields an empty object. Nested mappings are returned as
// map[string]any.
func ReadObject(data []byte) (maputil.Object, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return maputil.Object{}, nil
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing object: %w", err)
	}

	if raw == nil {
		return maputil.Object{}, nil
	}

	obj, ok := normalizeValue(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parsing object: expected a mapping, got %T", raw)
	}

	return obj, nil
}

// normalizeValue converts mappings with non-string keys into map[string]any.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}

		return out
	default:
		return v
	}
}
