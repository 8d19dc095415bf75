package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/marketing-agent/internal/agent"
	"github.com/jonathan/marketing-agent/internal/observability"
	"github.com/jonathan/marketing-agent/internal/schemas"
	"github.com/jonathan/marketing-agent/internal/types"
	schemafiles "github.com/jonathan/marketing-agent/schemas"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate, evaluate and optimize content for one request",
	Long:  "Reads a GenerationRequest JSON file, runs the evaluator-optimizer workflow and writes the GenerationResult as JSON.",
	RunE:  runGenerate,
}

var (
	generateRequestFile string
	generateOutputFile  string
	generateVerbose     bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateRequestFile, "request", "r", "", "Path to GenerationRequest JSON file (required)")
	generateCmd.Flags().StringVarP(&generateOutputFile, "out", "o", "", "Path to output GenerationResult JSON file (default stdout)")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print a readable summary to stderr")

	if err := generateCmd.MarkFlagRequired("request"); err != nil {
		panic(fmt.Sprintf("failed to mark request flag as required: %v", err))
	}

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	req, err := readGenerationRequest(generateRequestFile)
	if err != nil {
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

	result, err := generate(ctx, a, req)
	if err != nil {
		return err
	}
	if generateVerbose {
		observability.NewPrinter(os.Stderr).PrintGenerationResult(result)
	}
	return writeJSON(cmd.OutOrStdout(), generateOutputFile, result)
}

// readGenerationRequest validates a request file against its schema and decodes it.
func readGenerationRequest(path string) (types.GenerationRequest, error) {
	var req types.GenerationRequest
	if err := schemas.ValidateFile(schemafiles.GenerationRequest, path); err != nil {
		return req, fmt.Errorf("invalid request file %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read request file: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to unmarshal request JSON: %w", err)
	}
	return req, nil
}

func generate(ctx context.Context, a *agent.Agent, req types.GenerationRequest) (*types.GenerationResult, error) {
	result, err := a.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	return result, nil
}
