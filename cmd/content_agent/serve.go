package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonathan/marketing-agent/internal/agent"
	"github.com/jonathan/marketing-agent/internal/config"
	"github.com/jonathan/marketing-agent/internal/db"
	"github.com/jonathan/marketing-agent/internal/server"
	"github.com/jonathan/marketing-agent/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the content generation API server",
	Long: `Start an HTTP server exposing /generate, /evaluate, /config and /health.
Without an API key the server still starts and reports itself as degraded.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := thresholdStore(cfg)
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		Addr:       cfg.Addr(),
		Thresholds: store,
		Logger:     logger,
		RateLimit:  ratelimit.LoadConfig(),
	}

	if cfg.APIKey != "" {
		client, err := newClient(ctx, cfg)
		if err != nil {
			return err
		}
		a := agent.New(client, store, agent.WithLogger(logger))
		defer a.Close() //nolint:errcheck
		srvCfg.Agent = a
	} else {
		logger.Warn("no API key configured; /generate and /evaluate will return 503")
	}

	database, err := connectTasks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
		srvCfg.Tasks = database
	}

	return server.New(srvCfg).Start()
}

// connectTasks opens the task history store when DATABASE_URL is set.
func connectTasks(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to prepare database schema: %w", err)
	}
	logger.Info("task history enabled")
	return database, nil
}
