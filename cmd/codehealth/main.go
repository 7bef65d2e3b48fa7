// Command codehealth evaluates source-code samples for documentation quality
// using chained LLM calls with a self-correcting refinement loop.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "codehealth",
		Short: "LLM-driven quality evaluation for documentation code samples",
	}

	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newValidateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
