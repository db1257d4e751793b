package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oisee/veccol/pkg/interp"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive read-eval-print loop over a persistent environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runRepl(in io.Reader, out io.Writer) error {
	env := interp.New(nil)
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "vecol repl -- :register name:type=v1,v2,...  :unregister name  :quit")

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == ":quit" || line == ":exit":
			return nil

		case strings.HasPrefix(line, ":register "):
			spec := strings.TrimSpace(strings.TrimPrefix(line, ":register "))
			name, col, err := parseColumnSpec(spec)
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			env.Register(name, col)
			fmt.Fprintf(out, "registered %s (%d rows)\n", name, col.Len())

		case strings.HasPrefix(line, ":unregister "):
			name := strings.TrimSpace(strings.TrimPrefix(line, ":unregister "))
			env.Unregister(name)
			fmt.Fprintf(out, "unregistered %s\n", name)

		case line == ":size":
			fmt.Fprintln(out, env.Size())

		default:
			result, err := env.Eval(line)
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			fmt.Fprintln(out, formatColumn(result))
			if env.Diagnostics.HasErrors() {
				if d, ok := env.Diagnostics.Last(); ok {
					fmt.Fprintf(out, "diagnostic: %s: %s\n", d.Code, d.Message)
				}
			}
		}
	}
	return scanner.Err()
}
