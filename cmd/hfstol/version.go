package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of hfstol",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hfstol version %s\n", strings.TrimSpace(hfstol.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
