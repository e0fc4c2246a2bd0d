package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/filtersync/internal/maputil"
	"github.com/hupe1980/filtersync/internal/output"
	"github.com/hupe1980/filtersync/internal/query"
	"github.com/hupe1980/filtersync/internal/yamlutil"
)

type encodeOptions struct {
	schemaOptions

	strict bool
}

func newEncodeCommand() *cobra.Command {
	opts := &encodeOptions{}

	cmd := &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Encode filter objects as query strings",
		Long: `Encode reads filter objects as JSON or YAML and prints the query string
each one commits to, one per line. Multi-document YAML yields one line per
document. Empty values are pruned and keys are written in sorted order.

With no argument, or "-", the object is read from stdin.

--strict decodes every produced query through the selected profile and
fails when a field would be dropped.`,
		Example: `  echo '{"q": "shoes", "tags": ["red"]}' | filtersync encode
  filtersync encode filters.yaml --strict`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}

			return runEncode(cmd, src, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when the profile would drop a field")

	registerSchemaFlags(cmd, &opts.schemaOptions)

	return cmd
}

func runEncode(cmd *cobra.Command, src string, opts *encodeOptions) error {
	data, err := readInput(cmd, src)
	if err != nil {
		return err
	}

	var sel *selectedProfile
	if opts.strict {
		if sel, err = resolveProfile(cmd, &opts.schemaOptions); err != nil {
			return err
		}
	}

	docs := yamlutil.SplitDocuments(data)
	if len(docs) == 0 {
		docs = [][]byte{nil}
	}

	w := cmd.OutOrStdout()

	for i, doc := range docs {
		obj, err := output.ReadObject(doc)
		if err != nil {
			return &ExitError{Code: exitFailure, Err: fmt.Errorf("document %d: %w", i, err)}
		}

		q, skipped := query.EncodeObject(maputil.Prune(obj))
		if len(skipped) > 0 {
			return &ExitError{Code: exitFailure, Err: fmt.Errorf("document %d: cannot encode %s", i, strings.Join(skipped, ", "))}
		}

		if sel != nil {
			validators, _ := sel.profile.Validators()
			if _, report := query.DecodeWithReport(q, nil, validators); report.Dropped() > 0 {
				dropped := append(append([]string{}, report.Unknown...), report.Rejected...)

				return &ExitError{Code: exitFailure, Err: fmt.Errorf("document %d: profile %q drops %s",
					i, sel.name, strings.Join(dropped, ", "))}
			}
		}

		if _, err := fmt.Fprintf(w, "?%s\n", q.Encode()); err != nil {
			return err
		}
	}

	return nil
}

func readInput(cmd *cobra.Command, src string) ([]byte, error) {
	if src == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, &ExitError{Code: exitFailure, Err: fmt.Errorf("reading stdin: %w", err)}
		}

		return data, nil
	}

	data, err := os.ReadFile(src) //nolint:gosec // User-specified input file
	if err != nil {
		return nil, &ExitError{Code: exitFailure, Err: fmt.Errorf("reading file: %w", err)}
	}

	return data, nil
}
