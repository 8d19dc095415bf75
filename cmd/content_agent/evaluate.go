package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/marketing-agent/internal/observability"
	"github.com/jonathan/marketing-agent/internal/types"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score existing content without rewriting it",
	RunE:  runEvaluate,
}

var (
	evaluateContentFile string
	evaluateContentType string
	evaluateBrandVoice  string
	evaluatePlatform    string
	evaluateAudience    string
	evaluateKeyMessages []string
	evaluateOutputFile  string
	evaluateVerbose     bool
)

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateContentFile, "content", "c", "", "Path to a text file with the content (required)")
	evaluateCmd.Flags().StringVar(&evaluateContentType, "content-type", "", "Content type, e.g. social_post")
	evaluateCmd.Flags().StringVar(&evaluateBrandVoice, "brand-voice", "", "Expected brand voice")
	evaluateCmd.Flags().StringVar(&evaluatePlatform, "platform", "", "Target platform")
	evaluateCmd.Flags().StringVar(&evaluateAudience, "audience", "", "Target audience")
	evaluateCmd.Flags().StringSliceVar(&evaluateKeyMessages, "key-message", nil, "Key message to check for (repeatable)")
	evaluateCmd.Flags().StringVarP(&evaluateOutputFile, "out", "o", "", "Path to output Evaluation JSON file (default stdout)")
	evaluateCmd.Flags().BoolVarP(&evaluateVerbose, "verbose", "v", false, "Print a readable summary to stderr")

	if err := evaluateCmd.MarkFlagRequired("content"); err != nil {
		panic(fmt.Sprintf("failed to mark content flag as required: %v", err))
	}

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	content, err := os.ReadFile(evaluateContentFile)
	if err != nil {
		return fmt.Errorf("failed to read content file: %w", err)
	}
	req := types.EvaluateRequest{
		Content:        strings.TrimSpace(string(content)),
		ContentType:    evaluateContentType,
		BrandVoice:     evaluateBrandVoice,
		Platform:       evaluatePlatform,
		TargetAudience: evaluateAudience,
		KeyMessages:    evaluateKeyMessages,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, _, err := setupAgent(ctx)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	ev, err := a.Evaluate(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to evaluate content: %w", err)
	}
	if evaluateVerbose {
		observability.NewPrinter(os.Stderr).PrintEvaluation(&ev)
	}
	return writeJSON(cmd.OutOrStdout(), evaluateOutputFile, ev)
}
