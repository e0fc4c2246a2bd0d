package filter

import (
	"bytes"
	"log/slog"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/filtersync/internal/maputil"
	"github.com/hupe1980/filtersync/internal/query"
	"github.com/hupe1980/filtersync/internal/validate"
)

// commitRecorder captures every query representation handed to a CommitFunc.
type commitRecorder struct {
	calls []string
	last  *query.Values
}

func (r *commitRecorder) commit(q *query.Values) {
	r.calls = append(r.calls, q.Encode())
	r.last = q
}

func (r *commitRecorder) lastCall(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, r.calls, "expected at least one commit")

	return r.calls[len(r.calls)-1]
}

type engineSetup struct {
	query        string
	validators   validate.Set
	initial      maputil.Object
	countable    []string
	nonResetable []string
}

func buildEngine(s engineSetup) (*Engine, *commitRecorder) {
	rec := &commitRecorder{}
	e := New(query.Parse(s.query), rec.commit, s.validators, s.initial,
		WithCountable(s.countable...),
		WithNonResetable(s.nonResetable...),
	)

	return e, rec
}

func encoded(raw string) string {
	return query.Parse(raw).Encode()
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestEngine_Empty(t *testing.T) {
	e, rec := buildEngine(engineSetup{})

	assert.Equal(t, maputil.Object{}, e.Data())
	assert.Equal(t, 0, e.Count())
	assert.Empty(t, rec.calls)
}

func TestEngine_DefaultsWithoutQueryCommitOnce(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		initial:    maputil.Object{"foo": "bar"},
		validators: validate.Set{"foo": validate.String},
	})

	assert.Empty(t, rec.calls, "construction must not commit")
	assert.Equal(t, maputil.Object{"foo": "bar"}, e.Data())
	require.Len(t, rec.calls, 1)
	assert.Equal(t, encoded(`foo="bar"`), rec.calls[0])

	_ = e.Data()
	assert.Len(t, rec.calls, 1, "a synced engine must not commit again")
}

func TestEngine_QueryMatchingDefaultsDoesNotCommit(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		query:      `?foo="bar"`,
		initial:    maputil.Object{"foo": "bar"},
		validators: validate.Set{"foo": validate.String},
	})

	assert.Equal(t, maputil.Object{"foo": "bar"}, e.Data())
	assert.Empty(t, rec.calls)
}

func TestEngine_QueryWithoutValidatorIgnored(t *testing.T) {
	e, _ := buildEngine(engineSetup{query: `?foo="bar"`})

	assert.Equal(t, 0, e.Count())
	assert.Equal(t, maputil.Object{}, e.Data())
}

func TestEngine_OnlyValidatedQueryKeysApplied(t *testing.T) {
	e, _ := buildEngine(engineSetup{
		query:      `?foo="bar"&baz=true`,
		validators: validate.Set{"foo": validate.String},
	})

	assert.Equal(t, maputil.Object{"foo": "bar"}, e.Data())
	assert.Equal(t, 0, e.Count())
}

func TestEngine_QueryTakesPriorityOverDefaults(t *testing.T) {
	e, _ := buildEngine(engineSetup{
		query:      `?foo="bar"`,
		validators: validate.Set{"foo": validate.String},
		initial:    maputil.Object{"foo": "baz"},
	})

	assert.Equal(t, maputil.Object{"foo": "bar"}, e.Data())
}

func TestEngine_ConstructionPrunesEmptyValues(t *testing.T) {
	e, _ := buildEngine(engineSetup{
		query:      `?q=""&tags=[]`,
		validators: validate.Set{"q": validate.String, "tags": validate.Array, "on": validate.Boolean},
		initial:    maputil.Object{"on": false},
	})

	assert.Equal(t, maputil.Object{}, e.Peek())
}

// ---------------------------------------------------------------------------
// Count
// ---------------------------------------------------------------------------

func TestEngine_CountOnlyCountableFields(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		initial:   maputil.Object{"foo": "bar", "baz": true},
		countable: []string{"foo"},
	})

	assert.Equal(t, 1, e.Count())
	assert.Empty(t, rec.calls, "Count must not reconcile")
	assert.Equal(t, maputil.Object{"foo": "bar", "baz": true}, e.Data())
}

func TestEngine_CountIgnoresNonCountable(t *testing.T) {
	e, _ := buildEngine(engineSetup{
		query:      `?a="x"&b="y"&c="z"`,
		validators: validate.Set{"a": validate.String, "b": validate.String, "c": validate.String},
		countable:  []string{"a", "c", "missing"},
	})

	assert.Equal(t, 2, e.Count())

	e.Apply(maputil.Object{"a": nil})
	assert.Equal(t, 1, e.Count())
}

// ---------------------------------------------------------------------------
// Apply
// ---------------------------------------------------------------------------

func TestEngine_ApplyCommitsOnRead(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		initial:    maputil.Object{"foo": "bar"},
		validators: validate.Set{"foo": validate.String},
	})

	e.Apply(maputil.Object{"foo": "baz"})
	assert.Empty(t, rec.calls, "Apply must not commit by itself")

	assert.Equal(t, maputil.Object{"foo": "baz"}, e.Data())
	assert.Equal(t, encoded(`?foo="baz"`), rec.lastCall(t))

	e.Apply(maputil.Object{"foo": "bar"})
	assert.Equal(t, maputil.Object{"foo": "bar"}, e.Data())
	assert.Equal(t, encoded(`?foo="bar"`), rec.lastCall(t))
}

func TestEngine_ApplyNilRemovesField(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		query:      `?foo="bar"`,
		validators: validate.Set{"foo": validate.String},
	})

	e.Apply(maputil.Object{"foo": nil})

	assert.Equal(t, maputil.Object{}, e.Data())
	assert.Equal(t, "", rec.lastCall(t))
}

func TestEngine_ApplyNilRemovesStringArray(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		query:      `?foo=%5B"bar"%5D`,
		validators: validate.Set{"foo": validate.StringArray},
	})

	require.Equal(t, maputil.Object{"foo": []any{"bar"}}, e.Peek())

	e.Apply(maputil.Object{"foo": nil})

	assert.Equal(t, maputil.Object{}, e.Data())
	assert.Equal(t, "", rec.lastCall(t))
}

func TestEngine_ApplyArrayThenNil(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		validators: validate.Set{"foo": validate.StringArray},
	})

	e.Apply(maputil.Object{"foo": []string{"bar"}})
	_ = e.Data()
	e.Apply(maputil.Object{"foo": nil})
	_ = e.Data()

	assert.Equal(t, maputil.Object{}, e.Data())
	require.Len(t, rec.calls, 2)
	assert.Equal(t, encoded(`foo=["bar"]`), rec.calls[0])
	assert.Equal(t, "", rec.calls[1])
}

func TestEngine_ApplyTypedValuesConverge(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		validators: validate.Set{
			"page": validate.Integer,
			"tags": validate.StringArray,
			"rng":  validate.Object,
		},
	})

	e.Apply(maputil.Object{
		"page": 3,
		"tags": []string{"a", "b"},
		"rng":  map[string]int{"min": 1},
	})

	_ = e.Data()
	_ = e.Data()

	assert.Len(t, rec.calls, 1)
	assert.Equal(t, encoded(`page=3&rng={"min":1}&tags=["a","b"]`), rec.calls[0])
}

func TestEngine_ApplyKeepsFieldsOutsideValidators(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		validators: validate.Set{"foo": validate.String},
	})

	e.Apply(maputil.Object{"foo": "x", "extra": "kept"})

	assert.Equal(t, maputil.Object{"foo": "x", "extra": "kept"}, e.Data())
	assert.Equal(t, encoded(`extra="kept"&foo="x"`), rec.lastCall(t))

	// The query can never reproduce "extra", so every read re-commits.
	_ = e.Data()
	assert.Len(t, rec.calls, 2)
}

func TestEngine_DataIdentityStableWhenSynced(t *testing.T) {
	e, _ := buildEngine(engineSetup{
		query:      `?foo="bar"`,
		validators: validate.Set{"foo": validate.String},
	})

	first := e.Data()
	second := e.Data()

	assert.Equal(t, reflect.ValueOf(first).Pointer(), reflect.ValueOf(second).Pointer(),
		"a synced engine must hand out the same map")

	e.Apply(maputil.Object{"foo": "baz"})
	assert.NotEqual(t, reflect.ValueOf(first).Pointer(), reflect.ValueOf(e.Data()).Pointer())
}

// ---------------------------------------------------------------------------
// Reset
// ---------------------------------------------------------------------------

func TestEngine_ResetToDefaults(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		query:      `?foo="bar"`,
		validators: validate.Set{"foo": validate.String},
		initial:    maputil.Object{"foo": "baz"},
	})

	assert.Equal(t, maputil.Object{"foo": "bar"}, e.Data())

	e.Reset()
	assert.Equal(t, maputil.Object{"foo": "baz"}, e.Data())
	assert.Equal(t, encoded(`?foo="baz"`), rec.lastCall(t))
}

func TestEngine_ResetAfterApplyClearsQuery(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		validators: validate.Set{"foo": validate.String, "bar": validate.String},
	})

	e.Apply(maputil.Object{"foo": "lorem", "bar": "ipsum"})
	_ = e.Data()
	e.Reset()
	_ = e.Data()

	assert.Equal(t, "", rec.lastCall(t))
}

func TestEngine_ResetKeepsNonResetable(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		query:        `?foo="bar"&baz=true`,
		validators:   validate.Set{"foo": validate.String, "baz": validate.Boolean},
		initial:      maputil.Object{"foo": "baz", "baz": false},
		nonResetable: []string{"foo"},
	})

	assert.Equal(t, maputil.Object{"foo": "bar", "baz": true}, e.Data())
	assert.Empty(t, rec.calls)

	e.Reset()
	assert.Equal(t, maputil.Object{"foo": "bar"}, e.Data())
	assert.Equal(t, encoded(`?foo="bar"`), rec.lastCall(t))
}

func TestEngine_ResetAbsentNonResetableFallsBackToDefault(t *testing.T) {
	e, _ := buildEngine(engineSetup{
		validators:   validate.Set{"foo": validate.String},
		initial:      maputil.Object{"foo": "baz"},
		nonResetable: []string{"foo"},
	})

	e.Apply(maputil.Object{"foo": nil})
	require.Empty(t, e.Peek())

	e.Reset()
	assert.Equal(t, maputil.Object{"foo": "baz"}, e.Peek())
}

func TestEngine_ResetDoesNotAliasInitial(t *testing.T) {
	initial := maputil.Object{"foo": "baz"}
	e, _ := buildEngine(engineSetup{
		validators: validate.Set{"foo": validate.String},
		initial:    initial,
	})

	initial["foo"] = "changed"
	e.Reset()

	assert.Equal(t, maputil.Object{"foo": "baz"}, e.Peek())
	assert.Equal(t, maputil.Object{"foo": "baz"}, e.Initial())
}

func TestEngine_NestedInitialIsCopied(t *testing.T) {
	rng := map[string]any{"min": float64(1)}
	tags := []any{"a"}
	e, _ := buildEngine(engineSetup{
		validators: validate.Set{"rng": validate.Object, "tags": validate.Array},
		initial:    maputil.Object{"rng": rng, "tags": tags},
	})

	rng["min"] = float64(99)
	tags[0] = "changed"

	e.Peek()["rng"].(map[string]any)["min"] = float64(42)
	e.Initial()["rng"].(map[string]any)["min"] = float64(7)

	e.Reset()

	want := maputil.Object{"rng": map[string]any{"min": float64(1)}, "tags": []any{"a"}}
	assert.Equal(t, want, e.Peek())
	assert.Equal(t, want, e.Initial())
}

// ---------------------------------------------------------------------------
// Query representation
// ---------------------------------------------------------------------------

func TestEngine_CommitMutatesQueryInPlace(t *testing.T) {
	q := query.Parse(`?stale="x"&foo="old"`)
	rec := &commitRecorder{}

	e := New(q, rec.commit, validate.Set{"foo": validate.String}, nil)
	e.Apply(maputil.Object{"foo": "new"})
	_ = e.Data()

	assert.Same(t, q, rec.last)
	assert.Same(t, q, e.Query())
	assert.Equal(t, encoded(`foo="new"`), q.Encode())
}

func TestEngine_RoundTripThroughQuery(t *testing.T) {
	validators := validate.Set{
		"q":    validate.String,
		"page": validate.Number,
		"on":   validate.Boolean,
		"tags": validate.StringArray,
	}

	e, rec := buildEngine(engineSetup{validators: validators})
	e.Apply(maputil.Object{"q": "red shoes", "page": 2, "on": true, "tags": []string{"x"}})
	_ = e.Data()

	reloaded := New(query.Parse(rec.lastCall(t)), nil, validators, nil)
	assert.Empty(t, maputil.Diff(reloaded.Peek(), e.Peek()))
	assert.False(t, reloaded.Diverged())
}

func TestEngine_DivergedAndEncoded(t *testing.T) {
	e, rec := buildEngine(engineSetup{
		initial:    maputil.Object{"foo": "bar"},
		validators: validate.Set{"foo": validate.String},
	})

	assert.True(t, e.Diverged())
	assert.Equal(t, encoded(`foo="bar"`), e.Encoded().Encode())
	assert.Empty(t, rec.calls, "Diverged and Encoded must not commit")
	assert.Equal(t, "", e.Query().Encode())
}

func TestEngine_UnencodableValueLoggedAndSkipped(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rec := &commitRecorder{}
	e := New(query.New(), rec.commit, validate.Set{"foo": validate.String}, nil, WithLogger(logger))

	e.Apply(maputil.Object{"foo": "ok", "fn": func() {}})
	_ = e.Data()

	assert.Equal(t, encoded(`foo="ok"`), rec.lastCall(t))
	assert.Contains(t, buf.String(), "cannot be encoded")
	assert.Contains(t, buf.String(), "field=fn")
}

func TestEngine_NilCommitAndQuery(t *testing.T) {
	e := New(nil, nil, nil, maputil.Object{"foo": "bar"})

	assert.Equal(t, maputil.Object{"foo": "bar"}, e.Data())
	assert.Equal(t, encoded(`foo="bar"`), e.Query().Encode())
	assert.True(t, e.Diverged(), "without a validator the query can never reproduce foo")
}
