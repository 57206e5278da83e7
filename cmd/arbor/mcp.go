package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
	mcpAdapter "github.com/aretw0/arbor/internal/adapters/mcp"
	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/logging"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the Arbor engine as an MCP server over stdio.
This lets AI agents drive conversations as tools: one dialog_turn call
per turn, with the acts returned as structured data.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cliOptions(cmd)

		// Logs must never corrupt JSON-RPC on Stdout.
		log.SetOutput(os.Stderr)
		logger := logging.New(slog.LevelInfo)
		if opts.Debug {
			logger = logging.New(slog.LevelDebug)
		}

		engine, closer, err := cli.BuildEngine(opts, logger)
		if err != nil {
			log.Fatalf("Error initializing arbor: %v", err)
		}
		defer closer()

		srv := mcpAdapter.NewServer(engine, arbor.Version)

		logger.Info("Starting Arbor MCP Server (Stdio)...")
		if err := srv.ServeStdio(); err != nil {
			logger.Error("MCP Server execution failed", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
