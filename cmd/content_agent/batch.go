package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonathan/marketing-agent/internal/agent"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate content for several request files concurrently",
	Long: `Runs the generate workflow for every request file and writes one result per
request into the output directory as <name>.result.json. Requests that share a
file name get numbered results (<name>-2.result.json). A failed request is
reported and does not stop the others.`,
	RunE: runBatch,
}

var (
	batchRequestFiles []string
	batchOutputDir    string
	batchConcurrency  int
)

func init() {
	batchCmd.Flags().StringSliceVar(&batchRequestFiles, "requests", nil, "Comma-separated GenerationRequest JSON files (required)")
	batchCmd.Flags().StringVar(&batchOutputDir, "out-dir", "", "Directory for result files (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2, "Maximum requests in flight")

	if err := batchCmd.MarkFlagRequired("requests"); err != nil {
		panic(fmt.Sprintf("failed to mark requests flag as required: %v", err))
	}
	if err := batchCmd.MarkFlagRequired("out-dir"); err != nil {
		panic(fmt.Sprintf("failed to mark out-dir flag as required: %v", err))
	}

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, logger, err := setupAgent(ctx)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	summary, err := generateBatch(ctx, a, logger, batchRequestFiles, batchOutputDir, batchConcurrency)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d succeeded, %d failed\n", summary.Succeeded, len(summary.Failed)) //nolint:errcheck
	if len(summary.Failed) > 0 {
		return fmt.Errorf("batch failed for: %s", strings.Join(summary.Failed, ", "))
	}
	return nil
}

// batchSummary reports the outcome of a batch run.
type batchSummary struct {
	Succeeded int
	Failed    []string
}

// generateBatch runs each request with at most concurrency in flight.
// Per-request failures are collected; only context cancellation aborts.
func generateBatch(ctx context.Context, a *agent.Agent, logger *slog.Logger, paths []string, outDir string, concurrency int) (batchSummary, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return batchSummary{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	var (
		mu      sync.Mutex
		summary batchSummary
	)
	fail := func(path string, err error) {
		logger.Error("batch request failed", "request", path, "error", err)
		mu.Lock()
		summary.Failed = append(summary.Failed, path)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	outPaths := resultPaths(outDir, paths)
	for i, path := range paths {
		outPath := outPaths[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			req, err := readGenerationRequest(path)
			if err != nil {
				fail(path, err)
				return nil
			}
			result, err := generate(gctx, a, req)
			if err != nil {
				fail(path, err)
				return nil
			}
			if err := writeJSON(nil, outPath, result); err != nil {
				fail(path, err)
				return nil
			}
			logger.Info("batch request completed",
				"request", path,
				"result", outPath,
				"task_id", result.TaskID,
				"score", result.Evaluation.Score)
			mu.Lock()
			summary.Succeeded++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// resultPaths maps each request to <outDir>/<name>.result.json, numbering
// later requests whose names collide so no result overwrites another.
func resultPaths(outDir string, requestPaths []string) []string {
	used := make(map[string]bool, len(requestPaths))
	out := make([]string, len(requestPaths))
	for i, p := range requestPaths {
		base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[name] = true
		out[i] = filepath.Join(outDir, name+".result.json")
	}
	return out
}
