package maputil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/filtersync/internal/maputil"
)

func TestDiff_Flat(t *testing.T) {
	a := maputil.Object{"foo": "bar", "data": "t"}
	b := maputil.Object{"foo": "bar", "data": "x"}

	assert.Equal(t, maputil.Object{"data": "t"}, maputil.Diff(a, b))
}

func TestDiff_Nested(t *testing.T) {
	a := maputil.Object{"foo": "bar", "data": "t"}
	b := maputil.Object{"foo": "bar", "data": "x"}
	c := maputil.Object{"foo": "bar", "data": "t", "baz": map[string]any(a)}
	d := maputil.Object{"foo": "bar", "data": "x", "baz": map[string]any(b)}

	got := maputil.Diff(c, d)
	assert.Equal(t, maputil.Object{"data": "t", "baz": maputil.Object{"data": "t"}}, got)
}

func TestDiff_Identical(t *testing.T) {
	objs := []maputil.Object{
		nil,
		{},
		{"q": "x", "page": 2, "tags": []any{"a"}, "range": map[string]any{"min": 1}},
	}

	for _, o := range objs {
		got := maputil.Diff(o, o)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestDiff_MissingKeys(t *testing.T) {
	changed := maputil.Object{"only": "changed"}
	initial := maputil.Object{"gone": "initial"}

	got := maputil.Diff(changed, initial)
	assert.Equal(t, maputil.Object{"only": "changed", "gone": nil}, got)
}

func TestDiff_SequencesComparedWhole(t *testing.T) {
	changed := maputil.Object{"tags": []any{"a", "b"}}
	initial := maputil.Object{"tags": []any{"a", "c"}}

	got := maputil.Diff(changed, initial)
	assert.Equal(t, maputil.Object{"tags": []any{"a", "b"}}, got)
}

func TestDiff_TypedAndDecodedValuesAgree(t *testing.T) {
	decoded := maputil.Object{"page": float64(3), "tags": []any{"a"}}
	typed := maputil.Object{"page": 3, "tags": []string{"a"}}

	assert.Empty(t, maputil.Diff(decoded, typed))
}

func TestDiff_RecursionBoundedToOneLevel(t *testing.T) {
	changed := maputil.Object{
		"outer": map[string]any{
			"inner": map[string]any{"x": 1, "y": 2},
		},
	}
	initial := maputil.Object{
		"outer": map[string]any{
			"inner": map[string]any{"x": 1, "y": 3},
		},
	}

	got := maputil.Diff(changed, initial)
	assert.Equal(t, maputil.Object{
		"outer": maputil.Object{
			"inner": map[string]any{"x": 1, "y": 2},
		},
	}, got)
}

func TestDiff_MapVersusScalar(t *testing.T) {
	changed := maputil.Object{"k": "flat"}
	initial := maputil.Object{"k": map[string]any{"a": 1}}

	assert.Equal(t, maputil.Object{"k": "flat"}, maputil.Diff(changed, initial))
}
