package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var flags evaluateFlags
	var analysisPath string

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Run a standalone verification pass over an existing analysis",
		Long: `Validate fact-checks a previously produced analysis against its code sample
without entering the refinement loop. The analysis JSON is read from the
--analysis file; the code sample comes from a file argument or stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, _, err := loadCode(cmd, args, "", flags.callTimeout)
			if err != nil {
				return err
			}
			analysis, err := readAnalysisFile(analysisPath)
			if err != nil {
				return err
			}

			controller, err := buildController(flags)
			if err != nil {
				return err
			}

			verification, err := controller.ValidateOnly(cmd.Context(), code, analysis)
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}

			b, err := json.MarshalIndent(verification, "", "  ")
			if err != nil {
				return fmt.Errorf("validate: marshal: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}

	cmd.Flags().StringVar(&analysisPath, "analysis", "", "path to the analysis JSON to verify (required)")
	cmd.Flags().StringVar(&flags.provider, "provider", "google", "LLM provider: google, anthropic, or openai")
	cmd.Flags().StringVar(&flags.analysisModel, "model", "gemini-2.5-pro", "model for verification")
	cmd.Flags().StringVar(&flags.structureModel, "structure-model", "gemini-2.5-flash-lite", "lighter model for structuring output")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 8192, "max output tokens per stage call")
	cmd.Flags().Float64Var(&flags.temperature, "temperature", 0.2, "sampling temperature")
	cmd.Flags().DurationVar(&flags.callTimeout, "timeout", 2*time.Minute, "per-stage-call timeout")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "print prompts to stderr")

	if err := cmd.MarkFlagRequired("analysis"); err != nil {
		// MarkFlagRequired only fails for unregistered flags.
		fmt.Fprintln(os.Stderr, err)
	}

	return cmd
}
