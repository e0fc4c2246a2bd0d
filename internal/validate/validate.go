// Package validate provides value predicates for filter fields.
//
// A [Validator] decides whether a value decoded from a query string is
// acceptable for a field. Validators never fail loudly: a rejected value
// simply does not reach the filter object.
package validate

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/hupe1980/filtersync/internal/maputil"
)

// Validator reports whether value is acceptable for a field.
type Validator func(value any) bool

// Set maps field names to their validators. Fields absent from a Set can
// never be populated from a query string.
type Set map[string]Validator

// Fields returns the field names of s in sorted order.
func (s Set) Fields() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Has reports whether s holds a validator for field.
func (s Set) Has(field string) bool {
	_, ok := s[field]
	return ok
}

// String accepts string values.
func String(v any) bool {
	_, ok := v.(string)
	return ok
}

// NonEmptyString accepts strings other than "".
func NonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

// Number accepts finite numeric values of any Go numeric kind.
func Number(v any) bool {
	f, ok := toFloat(v)
	return ok && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Integer accepts numeric values without a fractional part.
func Integer(v any) bool {
	f, ok := toFloat(v)
	return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
}

// Boolean accepts true and false.
func Boolean(v any) bool {
	_, ok := v.(bool)
	return ok
}

// Array accepts any sequence.
func Array(v any) bool {
	if v == nil {
		return false
	}

	k := reflect.TypeOf(v).Kind()

	return k == reflect.Slice || k == reflect.Array
}

// StringArray accepts sequences whose elements are all strings.
func StringArray(v any) bool {
	return arrayOf(v, String)
}

// NumberArray accepts sequences whose elements are all numbers.
func NumberArray(v any) bool {
	return arrayOf(v, Number)
}

// Object accepts mappings keyed by string.
func Object(v any) bool {
	if _, ok := v.(map[string]any); ok {
		return true
	}

	if v == nil {
		return false
	}

	t := reflect.TypeOf(v)

	return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String
}

// Any accepts every value.
func Any(any) bool { return true }

// OneOf accepts values equal to one of allowed.
func OneOf(allowed ...any) Validator {
	return func(v any) bool {
		for _, a := range allowed {
			if maputil.Equal(a, v) {
				return true
			}
		}

		return false
	}
}

// Pattern accepts strings matching re.
func Pattern(re *regexp.Regexp) Validator {
	return func(v any) bool {
		s, ok := v.(string)
		return ok && re.MatchString(s)
	}
}

// Semver accepts strings that parse as semantic versions, e.g. "1.2.3".
func Semver(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}

	_, err := semver.NewVersion(s)

	return err == nil
}

// SemverConstraint accepts strings that parse as version constraints,
// e.g. ">= 1.2, < 2".
func SemverConstraint(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}

	_, err := semver.NewConstraint(s)

	return err == nil
}

// And accepts values every validator accepts.
func And(validators ...Validator) Validator {
	return func(v any) bool {
		for _, fn := range validators {
			if !fn(v) {
				return false
			}
		}

		return true
	}
}

// Or accepts values at least one validator accepts.
func Or(validators ...Validator) Validator {
	return func(v any) bool {
		for _, fn := range validators {
			if fn(v) {
				return true
			}
		}

		return false
	}
}

// Supported kind names for ForKind.
const (
	KindString           = "string"
	KindNumber           = "number"
	KindInteger          = "integer"
	KindBoolean          = "boolean"
	KindArray            = "array"
	KindStringArray      = "string-array"
	KindNumberArray      = "number-array"
	KindObject           = "object"
	KindAny              = "any"
	KindSemver           = "semver"
	KindSemverConstraint = "semver-constraint"
)

var kinds = map[string]Validator{
	KindString:           String,
	KindNumber:           Number,
	KindInteger:          Integer,
	KindBoolean:          Boolean,
	KindArray:            Array,
	KindStringArray:      StringArray,
	KindNumberArray:      NumberArray,
	KindObject:           Object,
	KindAny:              Any,
	KindSemver:           Semver,
	KindSemverConstraint: SemverConstraint,
}

// Kinds returns the supported kind names in sorted order.
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ForKind returns the validator registered for kind.
func ForKind(kind string) (Validator, error) {
	fn, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q (must be one of %v)", kind, Kinds())
	}

	return fn, nil
}

func arrayOf(v any, elem Validator) bool {
	if items, ok := v.([]any); ok {
		for _, item := range items {
			if !elem(item) {
				return false
			}
		}

		return true
	}

	if !Array(v) {
		return false
	}

	rv := reflect.ValueOf(v)
	for i := 0; i < rv.Len(); i++ {
		if !elem(rv.Index(i).Interface()) {
			return false
		}
	}

	return true
}

func toFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
