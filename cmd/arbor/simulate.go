package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an interactive conversation against the recipe",
	Long: `Starts a developer REPL over the recipe's control tree. Each line is
resolved into an intent the way an understanding service would, and the
resulting acts are rendered as markdown.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cliOptions(cmd)
		conversationID, _ := cmd.Flags().GetString("conversation")
		if conversationID == "" {
			conversationID = uuid.NewString()
		}
		logger := cli.NewLogger(opts.Debug)

		engine, closer, err := cli.BuildEngine(opts, logger)
		if err != nil {
			fmt.Printf("Error initializing arbor: %v\n", err)
			os.Exit(1)
		}
		defer closer()

		if err := cli.Simulate(cmd.Context(), engine, conversationID); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringP("conversation", "c", "", "Conversation ID to resume (default: a fresh one)")
}
