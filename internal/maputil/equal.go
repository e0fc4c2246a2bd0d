package maputil

import (
	"encoding/json"
	"reflect"
)

// Equal reports whether a and b hold the same filter value. Numbers compare
// by numeric value regardless of their Go kind, sequences element-wise and
// mappings key-wise, so a value decoded from JSON equals the typed value it
// was encoded from. Values of different semantic types are never equal.
func Equal(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize maps v onto the shapes produced by encoding/json decoding into
// an interface value: float64, string, bool, []any, map[string]any and nil.
func normalize(v any) any {
	switch val := v.(type) {
	case nil, string, bool, float64:
		return v
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalize(e)
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}

		return out
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}

		return string(val)
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}

		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}

		return out
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}

		if rv.Type().Key().Kind() != reflect.String {
			return viaJSON(v)
		}

		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()

		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface())
		}

		return out
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}

		return normalize(rv.Elem().Interface())
	default:
		return viaJSON(v)
	}
}

// viaJSON normalizes values without a direct mapping (structs, maps with
// non-string keys) through their JSON form. Values JSON cannot represent are
// returned unchanged and only equal themselves.
func viaJSON(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}

	return out
}
