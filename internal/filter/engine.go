package filter

import (
	"io"
	"log/slog"

	"github.com/hupe1980/filtersync/internal/maputil"
	"github.com/hupe1980/filtersync/internal/query"
	"github.com/hupe1980/filtersync/internal/validate"
)

// CommitFunc receives the complete replacement query representation after
// a reconciliation. Its result, if any, is not observed.
type CommitFunc func(q *query.Values)

// Option configures an Engine.
type Option func(*Engine)

// WithCountable marks fields that count towards Count.
func WithCountable(fields ...string) Option {
	return func(e *Engine) {
		for _, f := range fields {
			e.countable[f] = struct{}{}
		}
	}
}

// WithNonResetable names fields whose current value survives Reset.
func WithNonResetable(fields ...string) Option {
	return func(e *Engine) {
		e.nonResetable = append(e.nonResetable, fields...)
	}
}

// WithLogger sets the logger used for debug output on commits.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine reconciles a filter object with a query representation.
//
// An Engine is not safe for concurrent use. Calling Data from inside the
// CommitFunc is not supported; use Peek there.
type Engine struct {
	query        *query.Values
	commit       CommitFunc
	validators   validate.Set
	initial      maputil.Object
	countable    map[string]struct{}
	nonResetable []string
	logger       *slog.Logger

	internal maputil.Object
}

// New builds an Engine from the current query q, which it keeps and mutates
// in place on commit. initial is deep-copied. Query values override initial for validated fields;
// empty values are pruned. Nothing is committed until the first Data call.
func New(q *query.Values, commit CommitFunc, validators validate.Set, initial maputil.Object, opts ...Option) *Engine {
	if q == nil {
		q = query.New()
	}

	if validators == nil {
		validators = validate.Set{}
	}

	e := &Engine{
		query:      q,
		commit:     commit,
		validators: validators,
		initial:    maputil.Overlay(nil, maputil.DeepCopyMap(initial)),
		countable:  make(map[string]struct{}),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	decoded, report := query.DecodeWithReport(q, maputil.DeepCopyMap(e.initial), validators)
	if report.Dropped() > 0 {
		e.logger.Debug("dropped query keys",
			slog.Any("unknown", report.Unknown),
			slog.Any("rejected", report.Rejected),
		)
	}

	e.internal = maputil.Prune(decoded)

	return e
}

// Apply overlays partial onto the filter object. Fields set to an empty
// value (nil, "", false, empty sequence or mapping) are removed.
//
// Apply does not consult the validator set: fields unknown to it are kept
// as given. Because decoding never reproduces such fields, an Engine holding
// one re-commits on every Data call.
func (e *Engine) Apply(partial maputil.Object) {
	e.internal = maputil.Prune(maputil.Overlay(e.internal, partial))
}

// Reset restores the initial object, carrying over the current value of
// every non-resetable field that is present. Carried values win over
// initial ones.
func (e *Engine) Reset() {
	carry := make(maputil.Object, len(e.nonResetable))

	for _, field := range e.nonResetable {
		if v, ok := e.internal[field]; ok {
			carry[field] = v
		}
	}

	e.internal = maputil.Prune(maputil.Overlay(maputil.DeepCopyMap(e.initial), carry))
}

// Data returns the filter object, first committing it to the query
// representation if the two have diverged. The returned map is the
// engine's own and must not be modified; it keeps its identity until the
// next Apply or Reset.
func (e *Engine) Data() maputil.Object {
	if e.Diverged() {
		e.commitQuery()
	}

	return e.internal
}

// Peek returns the filter object without reconciling.
func (e *Engine) Peek() maputil.Object {
	return e.internal
}

// Count returns how many fields of the filter object are countable.
func (e *Engine) Count() int {
	n := 0

	for key := range e.internal {
		if _, ok := e.countable[key]; ok {
			n++
		}
	}

	return n
}

// Diverged reports whether decoding the current query representation,
// without defaults, disagrees with the filter object.
func (e *Engine) Diverged() bool {
	return len(maputil.Diff(e.FromQuery(), e.internal)) > 0
}

// FromQuery decodes the current query representation without defaults.
func (e *Engine) FromQuery() maputil.Object {
	return query.Decode(e.query, nil, e.validators)
}

// Query returns the query representation the engine commits into.
func (e *Engine) Query() *query.Values {
	return e.query
}

// Initial returns a deep copy of the initial object used by Reset.
func (e *Engine) Initial() maputil.Object {
	return maputil.DeepCopyMap(e.initial)
}

// Encoded returns the query representation a commit of the current filter
// object would produce, without touching the live one.
func (e *Engine) Encoded() *query.Values {
	q, _ := query.EncodeObject(e.internal)
	return q
}

func (e *Engine) commitQuery() {
	encoded, skipped := query.EncodeObject(e.internal)
	for _, key := range skipped {
		e.logger.Warn("field value cannot be encoded, left out of query", slog.String("field", key))
	}

	e.query.Replace(encoded)

	e.logger.Debug("query diverged from filters, committing",
		slog.Int("keys", e.query.Len()),
		slog.String("query", e.query.Encode()),
	)

	if e.commit != nil {
		e.commit(e.query)
	}
}
