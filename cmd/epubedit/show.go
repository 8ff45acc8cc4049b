package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/childeyouyu/epubedit"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// showResult is the metadata of one archive as printed by show.
type showResult struct {
	File   string                      `json:"file"`
	Fields map[epubedit.Field][]string `json:"fields"`
}

func newShowCommand(a *app) *cobra.Command {
	var (
		fieldNames []string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "show FILE...",
		Short: "Show the metadata of one or more ePub files",
		Long: `Show the metadata of one or more ePub files.

Without --field every field is printed, empty ones included. With --field
only the named fields that have a value are printed. Files are read
concurrently, up to the configured number of jobs.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := make([]epubedit.Field, 0, len(fieldNames))
			for _, name := range fieldNames {
				f, err := epubedit.ParseField(name)
				if err != nil {
					return err
				}
				fields = append(fields, f)
			}

			results, err := a.loadAll(cmd, args, fields)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			return writeText(cmd.OutOrStdout(), results, fields)
		},
	}

	cmd.Flags().StringArrayVarP(&fieldNames, "field", "f", nil, "show only this field (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	return cmd
}

// loadAll reads every file with at most cfg.Jobs loads in flight. Results
// keep the order of paths; the first failure cancels the remaining loads.
func (a *app) loadAll(cmd *cobra.Command, paths []string, fields []epubedit.Field) ([]showResult, error) {
	ed := a.editor()
	results := make([]showResult, len(paths))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(a.cfg.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			md, err := ed.Load(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			values := md.All()
			if len(fields) > 0 {
				if values, err = md.Selected(fields...); err != nil {
					return err
				}
			}
			results[i] = showResult{File: path, Fields: values}
			a.logger.Debug("loaded metadata", "file", path, "fields", len(values))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeJSON(w io.Writer, results []showResult) error {
	for _, r := range results {
		for f, v := range r.Fields {
			if v == nil {
				r.Fields[f] = []string{}
			}
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func writeText(w io.Writer, results []showResult, fields []epubedit.Field) error {
	order := fields
	if len(order) == 0 {
		order = epubedit.Fields()
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(TitleStyle.Render(r.File) + "\n")
		for _, f := range order {
			values, ok := r.Fields[f]
			if !ok {
				continue
			}
			name := CmdStyle.Render(fmt.Sprintf("%-*s", fieldWidth, f))
			if len(values) == 0 {
				b.WriteString("  " + name + " " + SubtitleStyle.Render("(none)") + "\n")
				continue
			}
			b.WriteString("  " + name + " " + strings.Join(values, "; ") + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
