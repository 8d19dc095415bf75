package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/marketing-agent/internal/feedback"
	"github.com/jonathan/marketing-agent/internal/observability"
	"github.com/jonathan/marketing-agent/internal/types"
	"github.com/spf13/cobra"
)

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Draft text for a topic and self-review it until approved",
	RunE:  runLoop,
}

var (
	loopTopic         string
	loopMaxIterations int
	loopOutputFile    string
	loopVerbose       bool
)

func init() {
	loopCmd.Flags().StringVarP(&loopTopic, "topic", "t", "", "Topic to write about (required)")
	loopCmd.Flags().IntVar(&loopMaxIterations, "max-iterations", types.DefaultMaxIterations, "Maximum review rounds (1-10)")
	loopCmd.Flags().StringVarP(&loopOutputFile, "out", "o", "", "Path to output JSON file (default stdout)")
	loopCmd.Flags().BoolVarP(&loopVerbose, "verbose", "v", false, "Print each iteration to stderr")

	if err := loopCmd.MarkFlagRequired("topic"); err != nil {
		panic(fmt.Sprintf("failed to mark topic flag as required: %v", err))
	}

	rootCmd.AddCommand(loopCmd)
}

func runLoop(cmd *cobra.Command, _ []string) error {
	req := types.LoopRequest{Topic: loopTopic, MaxIterations: loopMaxIterations}
	if err := req.Validate(); err != nil {
		return err
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	result, err := feedback.NewLoop(client, logger).Run(ctx, req)
	if err != nil {
		return fmt.Errorf("feedback loop failed: %w", err)
	}
	if loopVerbose {
		observability.NewPrinter(os.Stderr).PrintLoopResult(result)
	}
	return writeJSON(cmd.OutOrStdout(), loopOutputFile, result)
}
