// Package filtersync provides a public Go API for keeping a structured
// filter object in sync with the query string of a URL.
//
// The engine can be used directly against any query representation:
//
//	q := filtersync.ParseQuery(`q="shoes"&page=2`)
//	e := filtersync.New(q, commit, filtersync.Validators{
//	    "q":    filtersync.String,
//	    "page": filtersync.Integer,
//	}, filtersync.Object{"page": 1})
//	filters := e.Data()
//
// Sync runs a whole reconciliation of one URL against a profile:
//
//	result, err := filtersync.Sync(ctx, "/search?q=%22shoes%22",
//	    filtersync.WithSet(filtersync.Object{"tags": []any{"red"}}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.URL)
package filtersync

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/filtersync/internal/filter"
	"github.com/hupe1980/filtersync/internal/maputil"
	"github.com/hupe1980/filtersync/internal/query"
	"github.com/hupe1980/filtersync/internal/router"
	"github.com/hupe1980/filtersync/internal/validate"
)

type (
	// Object is a filter object: field names mapped to JSON-compatible values.
	Object = maputil.Object

	// Query is an ordered query representation.
	Query = query.Values

	// Validator reports whether a value is acceptable for a field.
	Validator = validate.Validator

	// Validators maps field names to their validators.
	Validators = validate.Set

	// Engine reconciles a filter object with a query representation.
	Engine = filter.Engine

	// EngineOption configures an Engine.
	EngineOption = filter.Option

	// CommitFunc receives the replacement query after a reconciliation.
	CommitFunc = filter.CommitFunc

	// Profile is a named, reusable filter schema.
	Profile = filter.Profile

	// Field declares one filter field of a Profile.
	Field = filter.Field

	// Router holds one location and its navigation history.
	Router = router.Router

	// HistoryMode determines how commits are recorded by a Router.
	HistoryMode = router.Mode
)

// History modes.
const (
	Push    = router.ModePush
	Replace = router.ModeReplace
)

// Value validators.
var (
	String           Validator = validate.String
	NonEmptyString   Validator = validate.NonEmptyString
	Number           Validator = validate.Number
	Integer          Validator = validate.Integer
	Boolean          Validator = validate.Boolean
	Array            Validator = validate.Array
	StringArray      Validator = validate.StringArray
	NumberArray      Validator = validate.NumberArray
	ObjectValue      Validator = validate.Object
	AnyValue         Validator = validate.Any
	Semver           Validator = validate.Semver
	SemverConstraint Validator = validate.SemverConstraint
)

// OneOf accepts only the listed values.
func OneOf(allowed ...any) Validator { return validate.OneOf(allowed...) }

// And accepts values every validator accepts.
func And(validators ...Validator) Validator { return validate.And(validators...) }

// Or accepts values any validator accepts.
func Or(validators ...Validator) Validator { return validate.Or(validators...) }

// ParseQuery parses a raw query string, with or without a leading "?".
func ParseQuery(raw string) *Query {
	if len(raw) > 0 && raw[0] == '?' {
		raw = raw[1:]
	}

	return query.Parse(raw)
}

// New builds an Engine for q. See filter.New for the reconciliation rules.
func New(q *Query, commit CommitFunc, validators Validators, initial Object, opts ...EngineOption) *Engine {
	return filter.New(q, commit, validators, initial, opts...)
}

// WithCountable marks fields that count towards Engine.Count.
func WithCountable(fields ...string) EngineOption { return filter.WithCountable(fields...) }

// WithNonResetable names fields whose value survives Engine.Reset.
func WithNonResetable(fields ...string) EngineOption { return filter.WithNonResetable(fields...) }

// WithEngineLogger sets the engine's debug logger.
func WithEngineLogger(logger *slog.Logger) EngineOption { return filter.WithLogger(logger) }

// ParseProfiles parses a YAML document with a top-level profiles section.
func ParseProfiles(data []byte) (map[string]Profile, error) {
	return filter.ParseProfiles(data)
}

// ResolveProfile resolves name against the built-in and custom profiles.
func ResolveProfile(name string, custom map[string]Profile) (Profile, error) {
	return filter.ResolveProfile(name, custom)
}

// NewRouter parses a URL or bare query string into a Router.
func NewRouter(raw string, mode HistoryMode) (*Router, error) {
	return router.New(raw, mode)
}

// Option configures Sync. Use the With* functions to create Options.
type Option func(*options)

type options struct {
	profile     string
	custom      map[string]Profile
	profileData []byte
	mode        HistoryMode
	reset       bool
	set         Object
	logger      *slog.Logger
}

// WithProfile selects the profile to reconcile against (default: "search").
func WithProfile(name string) Option { return func(o *options) { o.profile = name } }

// WithProfiles adds custom profiles.
func WithProfiles(profiles map[string]Profile) Option {
	return func(o *options) { o.custom = profiles }
}

// WithProfileData adds custom profiles parsed from YAML. They may extend
// profiles passed with WithProfiles.
func WithProfileData(data []byte) Option { return func(o *options) { o.profileData = data } }

// WithHistoryMode sets how commits are recorded (default: Push).
func WithHistoryMode(m HistoryMode) Option { return func(o *options) { o.mode = m } }

// WithReset resets the filters before changes are applied.
func WithReset() Option { return func(o *options) { o.reset = true } }

// WithSet applies partial to the filters. Empty values remove fields.
func WithSet(partial Object) Option { return func(o *options) { o.set = partial } }

// WithLogger sets the logger used by the engine.
func WithLogger(logger *slog.Logger) Option { return func(o *options) { o.logger = logger } }

// Result is the outcome of a Sync.
type Result struct {
	// URL is the location after reconciliation.
	URL string

	// Filters is the reconciled filter object.
	Filters Object

	// Count is the number of active countable filters.
	Count int

	// Committed reports whether the query was rewritten.
	Committed bool

	// History lists the recorded locations, oldest first.
	History []string
}

// Sync loads raw into a router, builds an engine from the selected
// profile, applies the requested changes and reads the filters once.
func Sync(ctx context.Context, raw string, opts ...Option) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o := &options{profile: "search", mode: Push}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	custom := make(map[string]Profile, len(o.custom))
	for name, p := range o.custom {
		custom[name] = p
	}

	if len(o.profileData) > 0 {
		parsed, err := filter.ReadProfiles(o.profileData)
		if err != nil {
			return nil, err
		}

		for name, p := range parsed {
			custom[name] = p
		}
	}

	if err := filter.ValidateProfiles(custom); err != nil {
		return nil, err
	}

	p, err := filter.ResolveProfile(o.profile, custom)
	if err != nil {
		return nil, err
	}

	r, err := router.New(raw, o.mode)
	if err != nil {
		return nil, err
	}

	committed := false

	e, err := p.NewEngine(r.Query(), func(q *query.Values) {
		committed = true
		r.Commit(q)
	}, filter.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", o.profile, err)
	}

	if o.reset {
		e.Reset()
	}

	if len(o.set) > 0 {
		e.Apply(o.set)
	}

	result := &Result{
		Filters: e.Data(),
		Count:   e.Count(),
		URL:     r.URL(),
	}
	result.Committed = committed

	for _, entry := range r.History() {
		result.History = append(result.History, entry.URL)
	}

	return result, nil
}
