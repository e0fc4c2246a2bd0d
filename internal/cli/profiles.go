package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/filtersync/internal/config"
	"github.com/hupe1980/filtersync/internal/filter"
	"github.com/hupe1980/filtersync/internal/output"
)

func newProfilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles [name]",
		Short: "List filter profiles or show one",
		Long: `Profiles lists the built-in profiles and those declared in the config
file or --profile-file, with their fields. Given a name, the resolved
profile is printed in the selected output format, with any extends chain
merged in.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())

			custom, err := customProfiles(cmd, cfg)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return showProfile(cmd, cfg, args[0], custom)
			}

			return listProfiles(cmd, cfg, custom)
		},
	}

	return cmd
}

func showProfile(cmd *cobra.Command, cfg *config.Config, name string, custom map[string]filter.Profile) error {
	p, err := filter.ResolveProfile(name, custom)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	data, err := output.Render(p, cfg.Format())
	if err != nil {
		return &ExitError{Code: exitFailure, Err: err}
	}

	return writeRendered(cmd, data)
}

func listProfiles(cmd *cobra.Command, cfg *config.Config, custom map[string]filter.Profile) error {
	names := filter.BuiltinProfileNames()
	builtin := make(map[string]bool, len(names))

	for _, name := range names {
		builtin[name] = true
	}

	customNames := make([]string, 0, len(custom))
	for name := range custom {
		customNames = append(customNames, name)
	}

	sort.Strings(customNames)
	names = append(names, customNames...)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tSOURCE\tFIELDS\tDESCRIPTION")

	for _, name := range names {
		p, err := filter.ResolveProfile(name, custom)
		if err != nil {
			return &ExitError{Code: exitUsage, Err: err}
		}

		source := "custom"
		if builtin[name] {
			source = "built-in"
		}

		marker := ""
		if name == cfg.Profile {
			marker = "*"
		}

		_, _ = fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\n",
			name, marker, source, describeFields(p), p.Description)
	}

	return tw.Flush()
}

// describeFields renders fields as name:kind with flags, e.g. "q:string(c)".
func describeFields(p filter.Profile) string {
	parts := make([]string, 0, len(p.Fields))

	for _, name := range p.FieldNames() {
		f := p.Fields[name]

		kind := f.Kind
		if kind == "" {
			kind = "any"
		}

		var flags string
		if f.Countable {
			flags += "c"
		}

		if f.Persistent {
			flags += "p"
		}

		entry := name + ":" + kind
		if flags != "" {
			entry += "(" + flags + ")"
		}

		parts = append(parts, entry)
	}

	return strings.Join(parts, " ")
}
