package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor is a control-tree dialog engine",
	Long:  `Arbor runs multi-turn conversations over declarative control trees defined in YAML recipes.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("recipe", "r", "arbor.yaml", "Path to the tree recipe")
	rootCmd.PersistentFlags().String("store", "memory", "Session store: memory, file or redis")
	rootCmd.PersistentFlags().String("dir", ".", "Base directory for the file store")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address (store=redis)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}

// cliOptions collects the persistent flags into the shared options struct.
func cliOptions(cmd *cobra.Command) cli.Options {
	recipePath, _ := cmd.Flags().GetString("recipe")
	storeKind, _ := cmd.Flags().GetString("store")
	dir, _ := cmd.Flags().GetString("dir")
	redisAddr, _ := cmd.Flags().GetString("redis-addr")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Options{
		RecipePath: recipePath,
		StoreKind:  storeKind,
		Dir:        dir,
		RedisAddr:  redisAddr,
		Debug:      debug,
	}
}
