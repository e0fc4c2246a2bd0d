package query

import (
	"github.com/hupe1980/filtersync/internal/maputil"
	"github.com/hupe1980/filtersync/internal/validate"
)

// Report lists the query keys Decode left out of its result, and the keys
// that were taken as raw strings because they were not valid JSON.
type Report struct {
	// Unknown keys have no validator.
	Unknown []string
	// Rejected keys failed their validator.
	Rejected []string
	// Raw keys were not valid JSON; the raw string was validated instead.
	Raw []string
}

// Dropped returns the number of pairs that did not reach the result.
func (r Report) Dropped() int {
	return len(r.Unknown) + len(r.Rejected)
}

// Decode rebuilds a filter object from q. A shallow copy of defaults is the
// base; each pair, in query order, overrides it when its key has a validator
// and the validator accepts the parsed value. Unknown keys never reach the
// result, even when defaults holds the same key.
func Decode(q *Values, defaults maputil.Object, validators validate.Set) maputil.Object {
	obj, _ := DecodeWithReport(q, defaults, validators)
	return obj
}

// DecodeWithReport is Decode and additionally reports what was dropped.
func DecodeWithReport(q *Values, defaults maputil.Object, validators validate.Set) (maputil.Object, Report) {
	result := maputil.Overlay(nil, defaults)

	var report Report

	if q == nil {
		return result, report
	}

	q.Range(func(key, raw string) bool {
		value, ok := DecodeValue(raw)
		if !ok {
			report.Raw = append(report.Raw, key)
		}

		fn, known := validators[key]
		if !known {
			report.Unknown = append(report.Unknown, key)
			return true
		}

		if !fn(value) {
			report.Rejected = append(report.Rejected, key)
			return true
		}

		result[key] = value

		return true
	})

	return result, report
}

// EncodeObject writes the non-empty fields of obj into a new Values in
// sorted key order. Keys whose value cannot be encoded are returned in
// skipped.
func EncodeObject(obj maputil.Object) (q *Values, skipped []string) {
	q = New()

	for _, key := range maputil.Keys(obj) {
		value := obj[key]
		if maputil.IsEmpty(value) {
			continue
		}

		literal, err := EncodeValue(value)
		if err != nil {
			skipped = append(skipped, key)
			continue
		}

		q.Set(key, literal)
	}

	return q, skipped
}
