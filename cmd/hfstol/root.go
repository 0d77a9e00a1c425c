package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hfstol",
	Short: "Lookup tools for optimized-lookup transducers",
	Long: `hfstol reads finite-state transducers in the hfst optimized-lookup
binary format and answers morphological queries against them: surface
wordforms to analyses, tagged analyses back to wordforms, on the
command line, over HTTP, or through the Model Context Protocol.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}
