package main

import (
	"fmt"
	"strings"

	"github.com/childeyouyu/epubedit"
	"github.com/spf13/cobra"
)

func newFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the metadata field names",
		Long: `List the field names accepted by show, get and set.

Multi-valued fields take one value per --set flag. Read-only fields are
shown by show and get but refused by set.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			for _, f := range epubedit.Fields() {
				line := CmdStyle.Render(string(f))
				if flags := fieldFlags(f); flags != "" {
					line = CmdStyle.Render(fmt.Sprintf("%-*s", fieldWidth, f)) + " " + VerboseStyle.Render(flags)
				}
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// fieldWidth pads field names into a column.
const fieldWidth = 16

func fieldFlags(f epubedit.Field) string {
	var flags []string
	if f.IsMulti() {
		flags = append(flags, "multi")
	}
	if f.IsReadOnly() {
		flags = append(flags, "read-only")
	}
	if len(flags) == 0 {
		return ""
	}
	return "(" + strings.Join(flags, ", ") + ")"
}
