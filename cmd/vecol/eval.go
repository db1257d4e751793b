package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oisee/veccol/pkg/interp"
)

func newEvalCmd() *cobra.Command {
	var cols []string

	cmd := &cobra.Command{
		Use:   "eval [expr]",
		Short: "Evaluate a single expression against in-memory columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := interp.New(nil)
			for _, spec := range cols {
				name, col, err := parseColumnSpec(spec)
				if err != nil {
					return err
				}
				env.Register(name, col)
			}

			out, err := env.Eval(args[0])
			if err != nil {
				return fmt.Errorf("eval: %w", err)
			}
			fmt.Println(formatColumn(out))

			if env.Diagnostics.HasErrors() {
				for _, d := range env.Diagnostics.All() {
					fmt.Fprintf(cmd.ErrOrStderr(), "diagnostic: %s: %s\n", d.Code, d.Message)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&cols, "col", nil, `column literal "name:type=v1,v2,..." (repeatable)`)
	return cmd
}
