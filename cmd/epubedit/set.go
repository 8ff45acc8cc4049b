package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/childeyouyu/epubedit"
	"github.com/spf13/cobra"
)

func newSetCommand(a *app) *cobra.Command {
	var (
		assignments []string
		output      string
		inPlace     bool
	)

	cmd := &cobra.Command{
		Use:   "set FILE --set FIELD=VALUE...",
		Short: "Write metadata fields into a copy of an ePub",
		Long: `Write metadata fields into a copy of an ePub.

Each --set names one field and one value. Repeat --set with the same
multi-valued field (author_name, describe) to write several values; they
replace every existing value of that field. Fields not named are left
untouched.

The result goes to --output, or to the source file with --in-place, or
otherwise next to the source with the configured suffix appended to its
name (book.epub becomes book_edited.epub by default).`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			if len(assignments) == 0 {
				return usageError(errors.New("at least one --set FIELD=VALUE is required"))
			}
			if output != "" && inPlace {
				return usageError(errors.New("--output and --in-place are mutually exclusive"))
			}

			md, err := parseAssignments(assignments)
			if err != nil {
				return err
			}

			dst := output
			switch {
			case dst != "":
			case inPlace || a.cfg.InPlace:
				dst = src
			default:
				dst = suffixedPath(src, a.cfg.OutputSuffix)
			}

			if err := a.editor().Commit(src, md, dst); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Wrote "+dst))
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&assignments, "set", "s", nil, "FIELD=VALUE to write (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "overwrite the source file")

	return cmd
}

// parseAssignments builds a record holding only the assigned fields. Values
// for the same field accumulate in flag order.
func parseAssignments(assignments []string) (epubedit.Metadata, error) {
	var (
		md     epubedit.Metadata
		order  []epubedit.Field
		values = make(map[epubedit.Field][]string)
	)
	for _, raw := range assignments {
		name, value, ok := strings.Cut(raw, "=")
		if !ok {
			return md, usageError(fmt.Errorf("--set %q: want FIELD=VALUE", raw))
		}
		f, err := epubedit.ParseField(strings.TrimSpace(name))
		if err != nil {
			return md, err
		}
		if value == "" {
			return md, usageError(fmt.Errorf("--set %q: empty value", raw))
		}
		if _, seen := values[f]; !seen {
			order = append(order, f)
		}
		values[f] = append(values[f], value)
	}

	for _, f := range order {
		if err := md.Set(f, values[f]...); err != nil {
			return md, err
		}
	}
	return md, nil
}

// suffixedPath inserts suffix between the base name and extension of path.
func suffixedPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
