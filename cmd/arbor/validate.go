package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/pkg/control"
	"github.com/aretw0/arbor/pkg/recipe"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the recipe for consistency",
	Long:  `Parses the recipe, compiles its expressions and builds the tree once, reporting duplicate IDs and broken configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Recipe is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	recipePath, _ := cmd.Flags().GetString("recipe")
	if !cmd.Flags().Changed("recipe") && len(args) > 0 {
		recipePath = args[0]
	}

	doc, err := recipe.Load(recipePath)
	if err != nil {
		return err
	}
	build, err := doc.Builder()
	if err != nil {
		return err
	}
	root, err := build()
	if err != nil {
		return err
	}
	if _, err := control.Index(root); err != nil {
		return err
	}
	return nil
}
