package main

import (
	"fmt"

	"github.com/aretw0/polya/pkg/catalog"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [catalog]",
	Short: "Validate an exercise catalog",
	Long: `Parses a catalog file (YAML, or JSON by extension) and checks its structure.
Without an argument the configured catalog is validated.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.CatalogPath
		if len(args) == 1 {
			path = args[0]
		}

		cat, err := catalog.Load(path)
		if err != nil {
			return err
		}

		name := path
		if name == "" {
			name = "built-in catalog"
		}
		steps := 0
		for _, ex := range cat.Exercises {
			steps += ex.StepCount()
		}
		fmt.Printf("✓ %s is valid: %d exercises, %d steps, %d method stages\n", name, len(cat.Exercises), steps, len(cat.Method))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
