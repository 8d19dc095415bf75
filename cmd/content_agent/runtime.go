package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonathan/marketing-agent/internal/agent"
	"github.com/jonathan/marketing-agent/internal/config"
	"github.com/jonathan/marketing-agent/internal/llm"
	"github.com/jonathan/marketing-agent/internal/logging"
	"github.com/jonathan/marketing-agent/internal/optimizer"
)

// loadRuntime reads configuration and installs the default logger.
func loadRuntime() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Server.Debug)
	return cfg, logger, nil
}

// newClient creates the Gemini client, or returns an error naming the
// missing key.
func newClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required (set GEMINI_API_KEY or GOOGLE_API_KEY)")
	}
	client, err := llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// thresholdStore seeds the live thresholds from configuration.
func thresholdStore(cfg *config.Config) (*optimizer.ThresholdStore, error) {
	store, err := optimizer.NewThresholdStore(cfg.OptimizationThresholds())
	if err != nil {
		return nil, fmt.Errorf("invalid optimization thresholds: %w", err)
	}
	return store, nil
}

// setupAgent loads configuration and builds an agent backed by Gemini.
func setupAgent(ctx context.Context) (*agent.Agent, *slog.Logger, error) {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return nil, nil, err
	}
	store, err := thresholdStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return agent.New(client, store, agent.WithLogger(logger)), logger, nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err := w.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
