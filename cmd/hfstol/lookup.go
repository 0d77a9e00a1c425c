package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/cli"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <analyser.hfstol> [words...]",
	Short: "Analyse surface wordforms",
	Long: `Looks up surface wordforms in an analyser transducer and prints the
analyses as tab-separated blocks, one block per input, the way the
original optimized-lookup tool formats them. Words come from the
arguments, from stdin, or from an interactive prompt when stdin is a
terminal.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := commandLogger(cmd)
		t, err := hfstol.Load(args[0], budgetOptions(cmd, logger)...)
		if err != nil {
			return err
		}

		symbols, _ := cmd.Flags().GetBool("symbols")
		words := args[1:]
		return cli.RunLookup(cmd.Context(), analyseResolver(t, symbols), os.Stdin, os.Stdout, logger, cli.LookupOptions{
			Words:       words,
			Interactive: len(words) == 0 && stdinIsTerminal(),
			ShowWeights: showWeights(cmd, t),
			Source:      t.Source(),
			Version:     strings.TrimSpace(hfstol.Version),
		})
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	addBudgetFlags(lookupCmd)
	lookupCmd.Flags().Bool("symbols", false, "Print the space-separated symbol segmentation instead of the joined analysis")
	lookupCmd.Flags().Bool("weights", false, "Show the weight column (defaults to the transducer's weightedness)")
}

// analyseResolver adapts analyser lookups to the shared loop. Budget
// errors pass through together with the partial results.
func analyseResolver(t *hfstol.Transducer, symbols bool) cli.Resolver {
	return func(ctx context.Context, input string) ([]cli.Result, error) {
		analyses, err := t.Analyse(ctx, input)
		results := make([]cli.Result, len(analyses))
		for i, a := range analyses {
			out := a.Text()
			if symbols {
				out = strings.Join(visibleSymbols(a.Symbols), " ")
			}
			results[i] = cli.Result{Output: out, Weight: a.Weight}
		}
		return results, err
	}
}

// visibleSymbols drops epsilon markers and flag diacritics from a
// symbol sequence.
func visibleSymbols(symbols []string) []string {
	kept := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := fst.ParseFlag(s); ok {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
