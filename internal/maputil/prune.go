package maputil

import "reflect"

// PruneOption tunes which values Prune treats as empty.
type PruneOption func(*pruneConfig)

type pruneConfig struct {
	keepEmptyStrings bool
}

// KeepEmptyStrings makes Prune retain fields holding "".
func KeepEmptyStrings() PruneOption {
	return func(c *pruneConfig) { c.keepEmptyStrings = true }
}

// Prune returns a shallow copy of obj without the fields whose value is
// empty. Only the top-level value of each field is inspected; non-empty
// nested values are carried over untouched.
func Prune(obj Object, opts ...PruneOption) Object {
	var cfg pruneConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	out := make(Object, len(obj))

	for k, v := range obj {
		if cfg.keepEmptyStrings {
			if s, ok := v.(string); ok && s == "" {
				out[k] = v
				continue
			}
		}

		if IsEmpty(v) {
			continue
		}

		out[k] = v
	}

	return out
}

// IsEmpty reports whether v is an empty filter value: nil, "", false, a
// zero-length sequence or a mapping without keys.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Slice, reflect.Map:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
