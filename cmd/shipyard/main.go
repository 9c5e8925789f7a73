// Package main provides the CLI entry point for the Shipyard AI tool-execution
// core.
//
// Shipyard mediates between a conversational language-model agent and
// privileged operations on projects, applications, databases, backups and
// servers. It exposes a typed, policy-tagged tool catalog, streams chat and
// agent runs over SSE, and gates risky tool calls behind a two-phase
// approval/execution protocol.
//
// # Basic Usage
//
// Start the server:
//
//	shipyard serve --config shipyard.yaml
//
// Inspect the tool catalog:
//
//	shipyard tools
//
// Mint a development session token:
//
//	shipyard token --user u-1 --org org-1
//
// # Environment Variables
//
//   - AUTH_SECRET: session-token signing secret (required in production)
//   - DATABASE_DRIVER / DATABASE_PATH / DATABASE_URL: persistence backend
//   - IS_CLOUD, JOBS_URL, API_KEY: remote jobs-service scheduler
//   - STRIPE_SECRET_KEY, BASE_PRICE_MONTHLY_ID, BASE_ANNUAL_MONTHLY_ID: billing
//   - SITE_URL, NODE_ENV, LISTEN_ADDR: serving defaults
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:           "shipyard",
		Short:         "AI tool-execution core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		buildServeCmd(),
		buildToolsCmd(),
		buildTokenCmd(),
		buildVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shipyard %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
