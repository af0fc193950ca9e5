package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/polya"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Polya",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Polya %s\n", versionString())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func versionString() string {
	if v := strings.TrimSpace(polya.Version); v != "" {
		return v
	}
	return "dev"
}
