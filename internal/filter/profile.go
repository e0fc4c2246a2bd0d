package filter

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"sigs.k8s.io/yaml"

	"github.com/hupe1980/filtersync/internal/maputil"
	"github.com/hupe1980/filtersync/internal/query"
	"github.com/hupe1980/filtersync/internal/validate"
)

// Field declares one filter field of a Profile.
type Field struct {
	// Kind names the value validator (see validate.Kinds).
	Kind string `json:"kind" yaml:"kind"`
	// Default is the value used when the query lacks the field and on Reset.
	Default any `json:"default,omitempty" yaml:"default,omitempty"`
	// Countable fields contribute to Engine.Count.
	Countable bool `json:"countable,omitempty" yaml:"countable,omitempty"`
	// Persistent fields keep their value across Engine.Reset.
	Persistent bool `json:"persistent,omitempty" yaml:"persistent,omitempty"`
	// Enum restricts accepted values to the listed ones.
	Enum []any `json:"enum,omitempty" yaml:"enum,omitempty"`
	// Pattern restricts accepted string values to a regular expression.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// Profile is a reusable filter schema that can be selected by name via
// --profile.
type Profile struct {
	// Description is shown by the profiles command.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Extends names another profile whose fields this one inherits.
	Extends string `json:"extends,omitempty" yaml:"extends,omitempty"`
	// Fields maps field names to their declarations.
	Fields map[string]Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// builtinProfiles contains the built-in profile definitions.
var builtinProfiles = map[string]Profile{
	"search": {
		Description: "free-text search with paging, sorting and tags",
		Fields: map[string]Field{
			"q":    {Kind: validate.KindString, Countable: true},
			"page": {Kind: validate.KindInteger, Default: float64(1), Persistent: true},
			"sort": {Kind: validate.KindString, Enum: []any{"relevance", "newest", "oldest"}},
			"tags": {Kind: validate.KindStringArray, Countable: true},
		},
	},
}

// BuiltinProfileNames returns the names of all built-in profiles, sorted.
func BuiltinProfileNames() []string {
	names := make([]string, 0, len(builtinProfiles))
	for name := range builtinProfiles {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ResolveProfile resolves a profile name by checking built-in profiles
// first, then custom ones. A custom profile that extends another is merged
// on top of it.
func ResolveProfile(name string, custom map[string]Profile) (Profile, error) {
	return resolveProfile(name, custom, map[string]bool{})
}

func resolveProfile(name string, custom map[string]Profile, visiting map[string]bool) (Profile, error) {
	if p, ok := builtinProfiles[name]; ok {
		return p, nil
	}

	p, ok := custom[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}

	if p.Extends == "" {
		return p, nil
	}

	if visiting[name] {
		return Profile{}, fmt.Errorf("profile %q: extends cycle", name)
	}

	visiting[name] = true

	base, err := resolveProfile(p.Extends, custom, visiting)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %q extends %q: %w", name, p.Extends, err)
	}

	return mergeProfiles(base, p), nil
}

// mergeProfiles merges an extension profile on top of a base profile.
// Extension fields replace base fields of the same name.
func mergeProfiles(base, ext Profile) Profile {
	merged := Profile{
		Description: base.Description,
		Fields:      make(map[string]Field, len(base.Fields)+len(ext.Fields)),
	}

	if ext.Description != "" {
		merged.Description = ext.Description
	}

	for name, f := range base.Fields {
		merged.Fields[name] = f
	}

	for name, f := range ext.Fields {
		merged.Fields[name] = f
	}

	return merged
}

// FieldNames returns the profile's field names, sorted.
func (p Profile) FieldNames() []string {
	names := make([]string, 0, len(p.Fields))
	for name := range p.Fields {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Validate checks field kinds, patterns and enums, and that every default
// is accepted by its own field's validator.
func (p Profile) Validate() error {
	_, err := p.Validators()
	return err
}

// Validators builds the validator set of the profile.
func (p Profile) Validators() (validate.Set, error) {
	set := make(validate.Set, len(p.Fields))

	for _, name := range p.FieldNames() {
		fn, err := p.Fields[name].validator()
		if err != nil {
			return nil, fmt.Errorf("fields[%s]: %w", name, err)
		}

		set[name] = fn
	}

	return set, nil
}

// Initial returns the default object of the profile.
func (p Profile) Initial() maputil.Object {
	initial := make(maputil.Object, len(p.Fields))

	for name, f := range p.Fields {
		if f.Default != nil {
			initial[name] = f.Default
		}
	}

	return initial
}

// Countable returns the countable field names, sorted.
func (p Profile) Countable() []string {
	return p.selectFields(func(f Field) bool { return f.Countable })
}

// NonResetable returns the persistent field names, sorted.
func (p Profile) NonResetable() []string {
	return p.selectFields(func(f Field) bool { return f.Persistent })
}

// NewEngine builds an Engine for q from the profile. Extra options are
// applied after the profile's own.
func (p Profile) NewEngine(q *query.Values, commit CommitFunc, opts ...Option) (*Engine, error) {
	validators, err := p.Validators()
	if err != nil {
		return nil, err
	}

	all := append([]Option{
		WithCountable(p.Countable()...),
		WithNonResetable(p.NonResetable()...),
	}, opts...)

	return New(q, commit, validators, p.Initial(), all...), nil
}

func (p Profile) selectFields(keep func(Field) bool) []string {
	var names []string

	for _, name := range p.FieldNames() {
		if keep(p.Fields[name]) {
			names = append(names, name)
		}
	}

	return names
}

func (f Field) validator() (validate.Validator, error) {
	kind := f.Kind
	if kind == "" {
		kind = validate.KindAny
	}

	base, err := validate.ForKind(kind)
	if err != nil {
		return nil, err
	}

	all := []validate.Validator{base}

	if f.Pattern != "" {
		re, reErr := regexp.Compile(f.Pattern)
		if reErr != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", f.Pattern, reErr)
		}

		all = append(all, validate.Pattern(re))
	}

	for _, v := range f.Enum {
		for _, fn := range all {
			if !fn(v) {
				return nil, fmt.Errorf("enum value %v is not a valid %s", v, kind)
			}
		}
	}

	if len(f.Enum) > 0 {
		all = append(all, validate.OneOf(f.Enum...))
	}

	fn := validate.And(all...)

	if f.Default != nil && !fn(f.Default) {
		return nil, fmt.Errorf("default %v is not accepted by the field", f.Default)
	}

	return fn, nil
}

// profileFile is the on-disk shape of a profile file or the profiles
// section of .filtersync.yaml.
type profileFile struct {
	Profiles map[string]Profile `json:"profiles,omitempty" yaml:"profiles,omitempty"`
}

// ParseProfiles parses the profiles section from raw YAML bytes and
// validates every resolved profile.
func ParseProfiles(data []byte) (map[string]Profile, error) {
	profiles, err := ReadProfiles(data)
	if err != nil {
		return nil, err
	}

	if err := ValidateProfiles(profiles); err != nil {
		return nil, err
	}

	return profiles, nil
}

// ReadProfiles parses the profiles section from raw YAML bytes without
// resolving extends. Profiles from several sources can be merged and then
// checked together with ValidateProfiles.
func ReadProfiles(data []byte) (map[string]Profile, error) {
	var raw profileFile

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing profiles: %w", err)
	}

	for name := range raw.Profiles {
		if _, builtin := builtinProfiles[name]; builtin {
			return nil, fmt.Errorf("profiles[%s]: shadows a built-in profile", name)
		}
	}

	return raw.Profiles, nil
}

// ValidateProfiles resolves and validates every profile of custom. A
// profile may extend any built-in or any other profile of custom.
func ValidateProfiles(custom map[string]Profile) error {
	names := make([]string, 0, len(custom))
	for name := range custom {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		p, err := ResolveProfile(name, custom)
		if err != nil {
			return err
		}

		if err := p.Validate(); err != nil {
			return fmt.Errorf("profiles[%s].%w", name, err)
		}
	}

	return nil
}

// LoadProfileFile reads profiles from path with ReadProfiles. An empty path
// yields no profiles.
func LoadProfileFile(path string) (map[string]Profile, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading profile file %q: %w", path, err)
	}

	return ReadProfiles(data)
}
