package main

import (
	"fmt"

	"github.com/childeyouyu/epubedit"
	"github.com/spf13/cobra"
)

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE FIELD",
		Short: "Print one metadata field",
		Long: `Print the values of one metadata field, one per line.

An empty field prints nothing. Run 'epubedit fields' for the field names.`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := epubedit.ParseField(args[1])
			if err != nil {
				return err
			}
			md, err := a.editor().Load(args[0])
			if err != nil {
				return err
			}
			values, err := md.Get(field)
			if err != nil {
				return err
			}
			for _, v := range values {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), v); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
