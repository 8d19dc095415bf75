package main

import (
	"context"

	"github.com/jonathan/marketing-agent/internal/feedback"
	"github.com/jonathan/marketing-agent/internal/server"
	"github.com/jonathan/marketing-agent/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var serveLoopPort int

var serveLoopCmd = &cobra.Command{
	Use:   "serve-loop",
	Short: "Start the feedback-loop API server",
	Long:  `Start an HTTP server exposing /generate/loop, which drafts text and self-reviews it until approved.`,
	RunE:  runServeLoop,
}

func init() {
	serveLoopCmd.Flags().IntVar(&serveLoopPort, "port", 0, "Port to listen on (overrides LOOP_PORT)")
	rootCmd.AddCommand(serveLoopCmd)
}

func runServeLoop(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	if serveLoopPort > 0 {
		cfg.Server.LoopPort = serveLoopPort
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	srvCfg := server.Config{
		Addr:      cfg.LoopAddr(),
		Logger:    logger,
		RateLimit: ratelimit.LoadConfig(),
	}
	if cfg.APIKey != "" {
		client, err := newClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close() //nolint:errcheck
		srvCfg.Loop = feedback.NewLoop(client, logger)
	} else {
		logger.Warn("no API key configured; /generate/loop will return 503")
	}

	return server.NewLoop(srvCfg).Start()
}
