// Command vecol is the columnar expression engine's CLI: eval a single
// expression, bench throughput across expressions, or drive a
// persistent environment interactively, mirroring the cobra command
// structure of the teacher's cmd/z80opt.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vecol",
		Short: "vecol — columnar vectorized expression engine",
	}

	rootCmd.AddCommand(newEvalCmd())
	rootCmd.AddCommand(newBenchCmd())
	rootCmd.AddCommand(newReplCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
