package validate

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitives(t *testing.T) {
	tests := []struct {
		name string
		fn   Validator
		ok   []any
		bad  []any
	}{
		{"String", String, []any{"", "x"}, []any{nil, 1, true, []any{"x"}}},
		{"NonEmptyString", NonEmptyString, []any{"x"}, []any{"", nil, 1}},
		{"Number", Number, []any{float64(1), 2, int64(-3), uint8(4), 1.5}, []any{"1", nil, true}},
		{"Integer", Integer, []any{float64(2), 7}, []any{1.5, "2", nil}},
		{"Boolean", Boolean, []any{true, false}, []any{"true", 0, nil}},
		{"Array", Array, []any{[]any{}, []string{"a"}, [2]int{1, 2}}, []any{nil, "a", map[string]any{}}},
		{"StringArray", StringArray, []any{[]any{"a", "b"}, []string{"c"}, []any{}}, []any{[]any{"a", 1}, "a", nil}},
		{"NumberArray", NumberArray, []any{[]any{float64(1)}, []int{2}}, []any{[]any{"1"}, nil}},
		{"Object", Object, []any{map[string]any{}, map[string]int{"k": 1}}, []any{nil, []any{}, "x", map[int]string{}}},
		{"Any", Any, []any{nil, "x", 1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range tt.ok {
				assert.True(t, tt.fn(v), "%s should accept %#v", tt.name, v)
			}

			for _, v := range tt.bad {
				assert.False(t, tt.fn(v), "%s should reject %#v", tt.name, v)
			}
		})
	}
}

func TestOneOf(t *testing.T) {
	fn := OneOf("newest", "oldest", 3)

	assert.True(t, fn("newest"))
	assert.True(t, fn(float64(3)))
	assert.False(t, fn("relevance"))
	assert.False(t, fn("3"))
}

func TestPattern(t *testing.T) {
	uuid := Pattern(regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`))

	assert.True(t, uuid("65053180-5adc-473f-94ed-7210304a0ab4"))
	assert.False(t, uuid("not-a-guid"))
	assert.False(t, uuid(42))
}

func TestSemver(t *testing.T) {
	assert.True(t, Semver("1.2.3"))
	assert.True(t, Semver("v2.0.0-rc.1"))
	assert.False(t, Semver("latest"))
	assert.False(t, Semver(float64(1)))

	assert.True(t, SemverConstraint(">= 1.2, < 2"))
	assert.True(t, SemverConstraint("~1.4"))
	assert.False(t, SemverConstraint("newer than yesterday"))
	assert.False(t, SemverConstraint(nil))
}

func TestAndOr(t *testing.T) {
	short := func(v any) bool {
		s, ok := v.(string)
		return ok && len(s) < 4
	}

	and := And(String, short)
	assert.True(t, and("abc"))
	assert.False(t, and("abcd"))
	assert.False(t, and(1))

	or := Or(Boolean, Number)
	assert.True(t, or(true))
	assert.True(t, or(float64(1)))
	assert.False(t, or("x"))
}

func TestForKind(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			fn, err := ForKind(kind)
			require.NoError(t, err)
			assert.NotNil(t, fn)
		})
	}

	_, err := ForKind("date")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown kind "date"`)
}

func TestSet_Fields(t *testing.T) {
	s := Set{"tags": StringArray, "q": String}

	assert.Equal(t, []string{"q", "tags"}, s.Fields())
	assert.True(t, s.Has("q"))
	assert.False(t, s.Has("page"))
}
