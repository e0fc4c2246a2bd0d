package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/filtersync/internal/config"
	"github.com/hupe1980/filtersync/internal/filter"
	"github.com/hupe1980/filtersync/internal/logging"
	"github.com/hupe1980/filtersync/internal/output"
	"github.com/hupe1980/filtersync/internal/query"
	"github.com/hupe1980/filtersync/internal/validate"
)

// adHocProfile is the name reported for profiles built from --field flags.
const adHocProfile = "ad-hoc"

// schemaOptions holds the ad-hoc schema flags shared by every command that
// builds an engine.
type schemaOptions struct {
	fields       []string
	defaults     []string
	countable    []string
	nonResetable []string
}

// registerSchemaFlags adds the ad-hoc schema flags to a cobra command.
func registerSchemaFlags(cmd *cobra.Command, opts *schemaOptions) {
	f := cmd.Flags()
	f.StringArrayVar(&opts.fields, "field", nil,
		fmt.Sprintf("declare a field (name=kind, kind one of %s); replaces the profile", strings.Join(validate.Kinds(), ", ")))
	f.StringArrayVar(&opts.defaults, "default", nil, "set a field default (name=<json>)")
	f.StringSliceVar(&opts.countable, "countable", nil, "mark fields as countable")
	f.StringSliceVar(&opts.nonResetable, "non-resetable", nil, "mark fields as surviving reset")
}

// selectedProfile is a resolved, validated profile and the name it was
// selected by.
type selectedProfile struct {
	name    string
	profile filter.Profile
}

// resolveProfile selects the profile for a command. Ad-hoc --field flags
// replace the configured profile; --default, --countable and
// --non-resetable then adjust whichever profile was selected.
func resolveProfile(cmd *cobra.Command, opts *schemaOptions) (*selectedProfile, error) {
	cfg := config.FromContext(cmd.Context())

	sel, err := baseProfile(cmd, cfg, opts)
	if err != nil {
		return nil, err
	}

	if err := applySchemaFlags(&sel.profile, opts); err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}

	if err := sel.profile.Validate(); err != nil {
		return nil, &ExitError{Code: exitUsage, Err: fmt.Errorf("profile %q: %w", sel.name, err)}
	}

	return sel, nil
}

func baseProfile(cmd *cobra.Command, cfg *config.Config, opts *schemaOptions) (*selectedProfile, error) {
	if len(opts.fields) > 0 {
		p := filter.Profile{Fields: make(map[string]filter.Field, len(opts.fields))}

		for _, arg := range opts.fields {
			name, kind, ok := strings.Cut(arg, "=")
			if !ok || name == "" {
				return nil, &ExitError{Code: exitUsage, Err: fmt.Errorf("invalid --field %q: expected name=kind", arg)}
			}

			p.Fields[name] = filter.Field{Kind: kind}
		}

		return &selectedProfile{name: adHocProfile, profile: p}, nil
	}

	custom, err := customProfiles(cmd, cfg)
	if err != nil {
		return nil, err
	}

	p, err := filter.ResolveProfile(cfg.Profile, custom)
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}

	// Copy the field map so flag adjustments never touch shared profiles.
	fields := make(map[string]filter.Field, len(p.Fields))
	for name, f := range p.Fields {
		fields[name] = f
	}

	p.Fields = fields

	return &selectedProfile{name: cfg.Profile, profile: p}, nil
}

// customProfiles merges the config file profiles with those of
// --profile-file and validates the merged set, so a profile-file profile
// may extend one from the config file. The profile file wins on name
// clashes.
func customProfiles(cmd *cobra.Command, cfg *config.Config) (map[string]filter.Profile, error) {
	merged := make(map[string]filter.Profile, len(cfg.Profiles))
	for name, p := range cfg.Profiles {
		merged[name] = p
	}

	path, _ := cmd.Flags().GetString("profile-file")

	fromFile, err := filter.LoadProfileFile(path)
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}

	for name, p := range fromFile {
		merged[name] = p
	}

	if err := filter.ValidateProfiles(merged); err != nil {
		return nil, &ExitError{Code: exitUsage, Err: fmt.Errorf("profile file %q: %w", path, err)}
	}

	return merged, nil
}

func applySchemaFlags(p *filter.Profile, opts *schemaOptions) error {
	field := func(flag, name string) (filter.Field, error) {
		f, ok := p.Fields[name]
		if !ok {
			return f, fmt.Errorf("--%s %s: no such field (fields: %s)", flag, name, strings.Join(p.FieldNames(), ", "))
		}

		return f, nil
	}

	for _, arg := range opts.defaults {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("invalid --default %q: expected name=<json>", arg)
		}

		f, err := field("default", name)
		if err != nil {
			return err
		}

		f.Default, _ = query.DecodeValue(raw)
		p.Fields[name] = f
	}

	for _, name := range opts.countable {
		f, err := field("countable", name)
		if err != nil {
			return err
		}

		f.Countable = true
		p.Fields[name] = f
	}

	for _, name := range opts.nonResetable {
		f, err := field("non-resetable", name)
		if err != nil {
			return err
		}

		f.Persistent = true
		p.Fields[name] = f
	}

	return nil
}

// newEngine builds an engine for q from the selected profile, logging
// through the command's logger.
func (s *selectedProfile) newEngine(ctx context.Context, q *query.Values, commit filter.CommitFunc) (*filter.Engine, error) {
	logger := logging.ForProfile(logging.FromContext(ctx), s.name)

	e, err := s.profile.NewEngine(q, commit, filter.WithLogger(logger))
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}

	return e, nil
}

// parseAssignment splits name=<json> into the field name and its decoded
// value. Values that are not valid JSON are taken as raw strings.
func parseAssignment(flag, arg string) (string, any, error) {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return "", nil, &ExitError{Code: exitUsage, Err: fmt.Errorf("invalid --%s %q: expected name=<json>", flag, arg)}
	}

	value, _ := query.DecodeValue(raw)

	return name, value, nil
}

// writeRendered sends rendered output to the command's stdout.
func writeRendered(cmd *cobra.Command, data []byte) error {
	if err := output.NewStdoutWriter(cmd.OutOrStdout()).Write(data); err != nil {
		return &ExitError{Code: exitFailure, Err: err}
	}

	return nil
}
