package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/codehealth/internal/analyze"
	"github.com/dshills/codehealth/internal/fetch"
	"github.com/dshills/codehealth/internal/llm"
	"github.com/dshills/codehealth/internal/product"
	"github.com/dshills/codehealth/internal/refine"
	"github.com/dshills/codehealth/internal/render"
	"github.com/dshills/codehealth/internal/schema"
	"github.com/dshills/codehealth/internal/stage"
	"github.com/dshills/codehealth/internal/verify"
)

// evaluateFlags holds all flags for the evaluate command.
type evaluateFlags struct {
	githubLink     string
	language       string
	provider       string
	analysisModel  string
	structureModel string
	maxTokens      int
	temperature    float64
	maxIterations  int
	threshold      int
	callTimeout    time.Duration
	format         string
	debug          bool
}

func newEvaluateCmd() *cobra.Command {
	var flags evaluateFlags

	cmd := &cobra.Command{
		Use:   "evaluate [file]",
		Short: "Analyze a code sample and refine until verification accepts it",
		Long: `Evaluate reads a code sample from a file, stdin, or a GitHub link and runs
the full analysis pipeline. The structured analysis is fact-checked by an
independent verification pass; when the verification score is at or below
the acceptance threshold, analysis is re-run with the verifier's reasoning
as corrective feedback, up to the configured iteration cap.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.githubLink, "github-link", "", "public GitHub file link to fetch the sample from")
	cmd.Flags().StringVar(&flags.language, "language", "", "language hint; overrides detection")
	cmd.Flags().StringVar(&flags.provider, "provider", "google", "LLM provider: google, anthropic, or openai")
	cmd.Flags().StringVar(&flags.analysisModel, "model", "gemini-2.5-pro", "model for analysis and verification")
	cmd.Flags().StringVar(&flags.structureModel, "structure-model", "gemini-2.5-flash-lite", "lighter model for structuring output")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 8192, "max output tokens per stage call")
	cmd.Flags().Float64Var(&flags.temperature, "temperature", 0.2, "sampling temperature")
	cmd.Flags().IntVar(&flags.maxIterations, "max-iterations", refine.DefaultMaxIterations, "refinement iteration cap")
	cmd.Flags().IntVar(&flags.threshold, "threshold", refine.DefaultAcceptanceThreshold, "verification score the analysis must exceed")
	cmd.Flags().DurationVar(&flags.callTimeout, "timeout", 2*time.Minute, "per-stage-call timeout")
	cmd.Flags().StringVar(&flags.format, "format", "json", "output format: json or markdown")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "print prompts to stderr")

	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string, flags evaluateFlags) error {
	ctx := cmd.Context()

	code, sourceURI, err := loadCode(cmd, args, flags.githubLink, flags.callTimeout)
	if err != nil {
		return err
	}

	controller, err := buildController(flags)
	if err != nil {
		return err
	}

	result, evalErr := controller.Evaluate(ctx, refine.Request{
		Code:         code,
		SourceURI:    sourceURI,
		LanguageHint: flags.language,
	})
	if result != nil {
		if flags.debug {
			for _, w := range result.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), w.String())
			}
		}
		if err := writeResult(cmd.OutOrStdout(), result, flags.format); err != nil {
			return err
		}
	}
	if evalErr != nil {
		return fmt.Errorf("evaluate: %w", evalErr)
	}
	return nil
}

// buildController wires the stage clients and pipelines into a controller.
func buildController(flags evaluateFlags) (*refine.Controller, error) {
	clients, err := stage.NewClients(stage.Options{
		Provider:       flags.provider,
		AnalysisModel:  flags.analysisModel,
		StructureModel: flags.structureModel,
		MaxTokens:      flags.maxTokens,
		Temperature:    flags.temperature,
		CallTimeout:    flags.callTimeout,
		Debug:          flags.debug,
	})
	if err != nil {
		return nil, err
	}

	// Categorization fallback reuses the lighter structuring model.
	fallback, err := llm.NewProvider(flags.provider, flags.structureModel)
	if err != nil {
		return nil, err
	}
	categorizer, err := product.New(fallback, flags.structureModel)
	if err != nil {
		return nil, err
	}

	return refine.New(
		analyze.New(clients, categorizer),
		verify.New(clients),
		refine.Config{
			MaxIterations:       flags.maxIterations,
			AcceptanceThreshold: flags.threshold,
		},
	), nil
}

// loadCode resolves the sample from a GitHub link, a file argument, or stdin.
func loadCode(cmd *cobra.Command, args []string, githubLink string, timeout time.Duration) (code, sourceURI string, err error) {
	if githubLink != "" {
		client := fetch.New(timeout)
		code, err = client.Fetch(cmd.Context(), githubLink)
		return code, githubLink, err
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", args[0], err)
		}
		return string(data), args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), "", nil
}

// writeResult renders a refinement result in the selected format.
func writeResult(w io.Writer, result *refine.Result, format string) error {
	switch format {
	case "markdown":
		_, err := io.WriteString(w, render.RenderMarkdown(result))
		return err
	case "json", "":
		b, err := render.RenderJSON(result)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	default:
		return fmt.Errorf("unknown format %q (use json or markdown)", format)
	}
}

// readAnalysisFile loads a previously produced AnalysisResult from disk.
func readAnalysisFile(path string) (*schema.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var analysis schema.AnalysisResult
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &analysis, nil
}
