// Package maputil provides the map primitives behind filter reconciliation:
// deep copying, overlaying, empty-value pruning, value equality and
// key-wise differencing of filter objects.
package maputil

import "sort"

// Object is a filter object: a mapping from field name to a string, number,
// boolean, sequence or nested mapping value.
type Object = map[string]any

// DeepCopyMap performs a deep copy of a map[string]any.
func DeepCopyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))

	for k, v := range src {
		dst[k] = deepCopyValue(v)
	}

	return dst
}

// DeepCopySlice performs a deep copy of a []any.
func DeepCopySlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))

	for i, v := range src {
		dst[i] = deepCopyValue(v)
	}

	return dst
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyMap(val)
	case []any:
		return DeepCopySlice(val)
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

// Overlay returns a new object holding the keys of base with the keys of
// top applied over them. Neither input is modified. Values are not copied.
func Overlay(base, top Object) Object {
	out := make(Object, len(base)+len(top))

	for k, v := range base {
		out[k] = v
	}

	for k, v := range top {
		out[k] = v
	}

	return out
}

// Keys returns the keys of obj in sorted order.
func Keys(obj Object) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
