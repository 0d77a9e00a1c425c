package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/cli"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <generator.hfstol> [analyses...]",
	Short: "Generate surface wordforms from tagged analyses",
	Long: `Feeds tagged analysis strings such as "atim+N+A+Pl" to a generator
transducer and prints the surface wordforms it emits, in the same
tab-separated block format as lookup. Analyses come from the arguments,
from stdin, or from an interactive prompt when stdin is a terminal.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := commandLogger(cmd)
		t, err := hfstol.Load(args[0], budgetOptions(cmd, logger)...)
		if err != nil {
			return err
		}

		analyses := args[1:]
		return cli.RunLookup(cmd.Context(), generateResolver(t), os.Stdin, os.Stdout, logger, cli.LookupOptions{
			Words:       analyses,
			Interactive: len(analyses) == 0 && stdinIsTerminal(),
			ShowWeights: showWeights(cmd, t),
			Source:      t.Source(),
			Version:     strings.TrimSpace(hfstol.Version),
		})
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addBudgetFlags(generateCmd)
	generateCmd.Flags().Bool("weights", false, "Show the weight column (defaults to the transducer's weightedness)")
}

// generateResolver adapts generator lookups to the shared loop.
func generateResolver(t *hfstol.Transducer) cli.Resolver {
	return func(ctx context.Context, input string) ([]cli.Result, error) {
		forms, err := t.GenerateFrom(ctx, input)
		results := make([]cli.Result, len(forms))
		for i, f := range forms {
			results[i] = cli.Result{Output: f.Text(), Weight: f.Weight}
		}
		return results, err
	}
}
