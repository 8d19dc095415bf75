// Package main provides the entry point for the marketing content agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "content_agent",
	Short: "Marketing content generation agent",
	Long: "Generates marketing content with Gemini, scores it with a structured evaluation and " +
		"rewrites it when the score falls below the optimization thresholds.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or TOML config file")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
